package db

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"unit-telemetry-backend/internal/apperr"
	"unit-telemetry-backend/internal/model"
)

// EnsureSchema creates the units and sensor_data tables with their
// constraints if they do not exist. It is safe to run against a provisioned
// database: existing tables and rows are left untouched.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)

	if tx.Dialector.Name() == "sqlite" {
		if err := requireSQLiteForeignKeys(tx); err != nil {
			return err
		}
	}

	log.Println("Running database migrations...")
	if err := tx.AutoMigrate(&model.Unit{}, &model.SensorReading{}); err != nil {
		return apperr.Classify("db.ensure_schema", fmt.Errorf("automigrate failed: %w", err))
	}

	log.Println("Database schema is up to date.")
	return nil
}

// SQLite only enforces foreign keys when the connection enables them, e.g.
// with the _foreign_keys=on DSN parameter.
func requireSQLiteForeignKeys(db *gorm.DB) error {
	var enabled int
	if err := db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error; err != nil {
		return apperr.Classify("db.ensure_schema", err)
	}
	if enabled != 1 {
		return apperr.New(apperr.KindInternal, "db.ensure_schema",
			"sqlite foreign keys are disabled; add _foreign_keys=on to the DSN")
	}
	return nil
}
