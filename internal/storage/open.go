package storage

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"smartpothole/backend/internal/config"
)

// Open returns the complaint store selected by cfg.Store.Driver. The returned
// close func releases the database pool, if one was opened.
func Open(cfg *config.Config) (Storage, func() error, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverCSV:
		s, err := NewCSVStore(cfg.Store.DataFile)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil

	case config.StoreDriverPostgres:
		db, err := gorm.Open(postgres.Open(cfg.Store.DatabaseURL), &gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
		}
		s := NewPostgresStore(db)
		if err := s.Migrate(); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return s, sqlDB.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
