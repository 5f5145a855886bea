package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"unit-telemetry-backend/internal/apperr"
	"unit-telemetry-backend/internal/model"
)

// Stable identifiers of the sample data.
var (
	SeedAssemblyLineID = uuid.MustParse("b08499c7-5e6a-4d9b-a7f4-21915f01198c")
	SeedHVACRooftopID  = uuid.MustParse("1a3b5c7d-9e0f-11a2-b3c4-5d6e7f8a9b0c")

	SeedValidatedReadingID = uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	SeedPendingReadingID   = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	SeedHVACReadingID      = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
)

// SeedResult reports how many rows a seed run inserted. Rows that already
// existed are not counted.
type SeedResult struct {
	Units    int64
	Readings int64
}

// SeedUnits returns the sample units.
func SeedUnits() []model.Unit {
	return []model.Unit{
		{ID: SeedAssemblyLineID, Name: "Assembly-Line-1", Location: strPtr("Factory Floor 1"), IsActive: true},
		{ID: SeedHVACRooftopID, Name: "HVAC-Rooftop-7", Location: strPtr("Building A Roof"), IsActive: true},
	}
}

// SeedReadings returns the sample readings. They reference SeedUnits.
func SeedReadings() []model.SensorReading {
	return []model.SensorReading{
		{ID: SeedValidatedReadingID, UnitID: SeedAssemblyLineID, Temperature: dec("23.5"), Humidity: dec("45.2"), Status: model.StatusValidated},
		{ID: SeedPendingReadingID, UnitID: SeedAssemblyLineID, Temperature: dec("24.1"), Humidity: dec("46.0"), Status: model.StatusPending},
		{ID: SeedHVACReadingID, UnitID: SeedHVACRooftopID, Temperature: dec("19.8"), Humidity: dec("52.3"), Status: model.StatusPending},
	}
}

// LoadSeedData inserts the sample units and readings, skipping any row whose
// id already exists. Existing rows are never overwritten, so running it again
// is a no-op.
func LoadSeedData(ctx context.Context, db *gorm.DB) (SeedResult, error) {
	return loadSeed(ctx, db, SeedUnits(), SeedReadings())
}

func loadSeed(ctx context.Context, db *gorm.DB, units []model.Unit, readings []model.SensorReading) (SeedResult, error) {
	var result SeedResult
	now := time.Now().UTC()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Units go first so the readings' foreign keys resolve inside the
		// same transaction.
		for i := range units {
			if units[i].CreatedAt.IsZero() {
				units[i].CreatedAt = now
			}
			res := insertIfAbsent(tx, &units[i])
			if res.Error != nil {
				return fmt.Errorf("failed to seed unit %s: %w", units[i].ID, res.Error)
			}
			result.Units += res.RowsAffected
		}

		for i := range readings {
			if readings[i].Timestamp.IsZero() {
				readings[i].Timestamp = now
			}
			res := insertIfAbsent(tx, &readings[i])
			if res.Error != nil {
				return fmt.Errorf("failed to seed reading %s: %w", readings[i].ID, res.Error)
			}
			result.Readings += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, apperr.Classify("db.load_seed", err)
	}

	log.Printf("seed data loaded: %d units and %d readings inserted", result.Units, result.Readings)
	return result, nil
}

func insertIfAbsent(tx *gorm.DB, value any) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(value)
}

func strPtr(s string) *string { return &s }

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
