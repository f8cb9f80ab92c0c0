package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"smartpothole/backend/internal/api/handler"
	"smartpothole/backend/internal/auth"
	"smartpothole/backend/internal/classifier"
	"smartpothole/backend/internal/complaint"
	"smartpothole/backend/internal/config"
	"smartpothole/backend/internal/feed"
	"smartpothole/backend/internal/localization"
	"smartpothole/backend/internal/logger"
	"smartpothole/backend/internal/notify"
	"smartpothole/backend/internal/storage"
	"smartpothole/backend/internal/telegram"
	"smartpothole/backend/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file loaded")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "smartpothole-backend")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, "smartpothole-backend", cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.OTLPInsecure, zl)

	// 1. Storage
	store, closeStore, err := storage.Open(cfg)
	if err != nil {
		zl.Fatal("Failed to open complaint store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore() //nolint:errcheck

	images, err := storage.NewImageStore(cfg.Store.ImageDir)
	if err != nil {
		zl.Fatal("Failed to prepare image directory", zap.Error(err))
	}

	// 2. Live feed, fanned out through Redis or NATS when more than one instance runs
	var relay feed.Relay
	switch cfg.FeedRelay {
	case config.FeedRelayRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			zl.Fatal("Failed to connect Redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		relay = feed.NewRedisRelay(rdb, cfg.Redis.Channel, zl)
	case config.FeedRelayNATS:
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("smartpothole-backend"))
		if err != nil {
			zl.Fatal("Failed to connect NATS", zap.String("url", cfg.NATS.URL), zap.Error(err))
		}
		defer nc.Drain() //nolint:errcheck
		relay = feed.NewNATSRelay(nc, cfg.NATS.Subject, zl)
	}
	hub := feed.NewHub(relay, zl)
	go hub.Run(ctx)

	// 3. Notifications
	localizer, err := localization.Builtin()
	if err != nil {
		zl.Fatal("Failed to load message catalogue", zap.Error(err))
	}

	var notifiers []notify.Notifier
	if cfg.SMTP.Host != "" {
		dialer := notify.NewSMTPDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.NotifyTimeout)
		notifiers = append(notifiers, notify.NewEmailNotifier(dialer, cfg.SMTP.From, localizer, cfg.NotifyLang))
	} else {
		notifiers = append(notifiers, notify.Nop{Channel: "email", Logger: zl})
	}

	var bot *telegram.BotService
	if cfg.Telegram.BotToken != "" {
		api, err := telegram.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			zl.Fatal("Failed to start Telegram bot", zap.Error(err))
		}
		notifiers = append(notifiers, telegram.NewStaffNotifier(api, cfg.Telegram.StaffChatID, localizer, cfg.NotifyLang))
		bot = telegram.NewBotService(api, store, cfg.Telegram.StaffChatID, zl)
	}
	dispatcher := notify.NewDispatcher(zl.Named("notify"), cfg.NotifyTimeout, notifiers...)

	// 4. Domain services
	complaints, err := complaint.NewService(ctx, store, images, dispatcher, hub, zl)
	if err != nil {
		zl.Fatal("Failed to initialise complaint service", zap.Error(err))
	}

	credentials, err := auth.LoadCredentialStore(cfg.AuthoritiesFile)
	if err != nil {
		zl.Fatal("Failed to load authority credentials", zap.String("path", cfg.AuthoritiesFile), zap.Error(err))
	}
	if credentials.Len() == 0 {
		zl.Warn("No authority identities configured; staff login will always fail")
	}

	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.TokenTTL(), cfg.JWT.Issuer)
	if err != nil {
		zl.Fatal("Failed to initialise token service", zap.Error(err))
	}

	var clf *classifier.Adapter
	if cfg.Model.ServerURL != "" {
		scorer := classifier.NewRemoteScorer(cfg.Model.ServerURL, cfg.Model.Name, cfg.Model.Timeout, zl)
		clf = classifier.NewAdapter(scorer, config.ClassifierImageSize, config.PotholeThreshold)
	} else {
		zl.Warn("MODEL_SERVER_URL not set; /predict will answer 503")
	}

	// 5. Background workers
	if bot != nil {
		go bot.Run(ctx)
	}

	// 6. HTTP
	h := handler.NewHandler(complaints, credentials, tokens, clf, hub, zl)
	h.ImageRequireAuth = cfg.ImageRequireAuth

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(h.Router(), "smartpothole-backend"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zl.Info("Starting SmartPothole backend",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.Store.Driver),
			zap.Bool("classifier", clf != nil),
			zap.String("feed_relay", cfg.FeedRelay))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("HTTP server shutdown failed", zap.Error(err))
	}
	dispatcher.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		zl.Warn("Tracer shutdown failed", zap.Error(err))
	}
}
