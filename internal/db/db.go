package db

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"unit-telemetry-backend/config"
	"unit-telemetry-backend/internal/apperr"
)

// Open connects to the configured database and sizes the connection pool.
// It does not touch the schema; call EnsureSchema before using the store.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres, "":
		dialector = postgres.Open(cfg.ConnString())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.ConnString())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, apperr.Unavailable("db.open", "failed to connect to database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, apperr.Unavailable("db.open", "database is unreachable", err)
	}

	log.Printf("connected to %s (max_open_conns=%d)", cfg.Redacted(), cfg.MaxOpenConns)
	return db, nil
}

// Init opens the database and provisions the schema.
func Init(ctx context.Context, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		Close(db)
		return nil, err
	}
	return db, nil
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
