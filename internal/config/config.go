// Package config loads service configuration from the environment.
// Values from a local .env file are merged in by the caller via godotenv
// before Load is invoked.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverCSV      = "csv"
	StoreDriverPostgres = "postgres"

	FeedRelayRedis = "redis"
	FeedRelayNATS  = "nats"
)

// Config holds all configuration for the complaint backend.
type Config struct {
	HTTPAddr         string
	AuthoritiesFile  string
	ImageRequireAuth bool

	Store struct {
		Driver      string
		DataFile    string
		ImageDir    string
		DatabaseURL string
	}

	JWT struct {
		Secret        string
		Algorithm     string
		ExpireMinutes int
		Issuer        string
	}

	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}

	Telegram struct {
		BotToken    string
		StaffChatID int64
	}

	Model struct {
		ServerURL string
		Name      string
		Timeout   time.Duration
	}

	// FeedRelay selects how live feed events reach other instances:
	// "" (local only), "redis" or "nats".
	FeedRelay string

	NATS struct {
		URL     string
		Subject string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
		Channel  string
	}

	Log struct {
		Level  string
		Format string
	}

	Telemetry struct {
		OTLPEndpoint string
		OTLPInsecure bool
	}

	NotifyLang    string
	NotifyTimeout time.Duration
}

// Load reads configuration from environment variables, falling back to defaults.
func Load() *Config {
	cfg := &Config{}
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8000")
	cfg.AuthoritiesFile = getEnv("AUTHORITIES_FILE", "authorities.json")
	cfg.ImageRequireAuth = getEnvAsBool("IMAGE_REQUIRE_AUTH", false)

	cfg.Store.Driver = strings.ToLower(getEnv("STORE_DRIVER", StoreDriverCSV))
	cfg.Store.DataFile = getEnv("DATA_FILE", "data/complaints.csv")
	cfg.Store.ImageDir = getEnv("IMAGE_DIR", "data/images")
	cfg.Store.DatabaseURL = getEnv("DATABASE_URL", "")

	cfg.JWT.Secret = getEnv("JWT_SECRET_KEY", "")
	cfg.JWT.Algorithm = getEnv("JWT_ALGORITHM", "HS256")
	cfg.JWT.ExpireMinutes = getEnvAsInt("JWT_EXPIRE_MINUTES", 60)
	cfg.JWT.Issuer = getEnv("JWT_ISSUER", "smartpothole-backend")

	cfg.SMTP.Host = getEnv("SMTP_HOST", "")
	cfg.SMTP.Port = getEnvAsInt("SMTP_PORT", 587)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")
	cfg.SMTP.From = getEnv("SMTP_FROM", cfg.SMTP.Username)

	cfg.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.Telegram.StaffChatID = int64(getEnvAsInt("TELEGRAM_STAFF_CHAT_ID", 0))

	cfg.Model.ServerURL = getEnv("MODEL_SERVER_URL", "")
	cfg.Model.Name = getEnv("MODEL_NAME", "smart_pothole_model")
	cfg.Model.Timeout = time.Duration(getEnvAsInt("MODEL_TIMEOUT_SECONDS", 10)) * time.Second

	cfg.NATS.URL = getEnv("NATS_URL", "")
	cfg.NATS.Subject = getEnv("NATS_EVENTS_SUBJECT", "complaints.events")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)
	cfg.Redis.Channel = getEnv("REDIS_EVENTS_CHANNEL", "complaints:events")

	cfg.FeedRelay = strings.ToLower(getEnv("FEED_RELAY", defaultFeedRelay(cfg)))

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg.Telemetry.OTLPInsecure = getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false)

	cfg.NotifyLang = getEnv("NOTIFY_LANG", "en")
	cfg.NotifyTimeout = time.Duration(getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 30)) * time.Second

	return cfg
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	if c.JWT.ExpireMinutes <= 0 {
		return fmt.Errorf("JWT_EXPIRE_MINUTES must be positive, got %d", c.JWT.ExpireMinutes)
	}
	switch c.Store.Driver {
	case StoreDriverCSV:
	case StoreDriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.FeedRelay {
	case "":
	case FeedRelayRedis:
		if c.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is required when FEED_RELAY=redis")
		}
	case FeedRelayNATS:
		if c.NATS.URL == "" {
			return errors.New("NATS_URL is required when FEED_RELAY=nats")
		}
	default:
		return fmt.Errorf("unknown FEED_RELAY %q", c.FeedRelay)
	}
	return nil
}

// defaultFeedRelay picks Redis, then NATS, from whichever is configured.
func defaultFeedRelay(c *Config) string {
	switch {
	case c.Redis.Addr != "":
		return FeedRelayRedis
	case c.NATS.URL != "":
		return FeedRelayNATS
	}
	return ""
}

// TokenTTL is the lifetime of issued access tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpireMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
