package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"unit-telemetry-backend/internal/apperr"
	"unit-telemetry-backend/internal/model"
)

// ReadingRepository defines the operations on sensor readings.
type ReadingRepository interface {
	Create(ctx context.Context, in ReadingInput) (*model.SensorReading, error)
	Get(ctx context.Context, id uuid.UUID) (*model.SensorReading, error)
	// ListByUnit returns the unit's readings, newest first. A missing unit
	// is NotFound rather than an empty list.
	ListByUnit(ctx context.Context, unitID uuid.UUID, filter ReadingFilter, page Page) ([]model.SensorReading, error)
	Query(ctx context.Context, q ReadingQuery) ([]model.SensorReading, error)
	Update(ctx context.Context, id uuid.UUID, patch ReadingPatch) (*model.SensorReading, error)
	// UpdateStatus sets any non-empty status. Transitions are not checked.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.SensorReading, error)
	// Archive marks the reading archived. Archiving twice is not an error.
	Archive(ctx context.Context, id uuid.UUID) (*model.SensorReading, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Statistics(ctx context.Context, unitID uuid.UUID) (*model.ReadingStatistics, error)
}

type readingRepo struct {
	s *gormStore
}

func (r *readingRepo) Create(ctx context.Context, in ReadingInput) (*model.SensorReading, error) {
	const op = "readings.create"
	if in.UnitID == uuid.Nil {
		return nil, apperr.Validation(op, "unit_id is required")
	}

	reading := model.SensorReading{
		ID:          uuid.New(),
		UnitID:      in.UnitID,
		Timestamp:   time.Now().UTC(),
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		Status:      model.StatusPending,
		IsArchived:  in.IsArchived,
	}
	if in.Timestamp != nil {
		reading.Timestamp = in.Timestamp.UTC()
	}
	if in.Status != nil {
		if err := validateStatus(op, *in.Status); err != nil {
			return nil, err
		}
		reading.Status = *in.Status
	}

	err := r.s.run(ctx, op, func(tx *gorm.DB) error {
		err := tx.Create(&reading).Error
		if err == nil {
			return nil
		}
		classified := apperr.Classify(op, err)
		if apperr.KindOf(classified) == apperr.KindReferentialIntegrity {
			return apperr.ReferentialIntegrity(op, err, "unit %s does not exist", in.UnitID)
		}
		return classified
	})
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

func (r *readingRepo) Get(ctx context.Context, id uuid.UUID) (*model.SensorReading, error) {
	var reading *model.SensorReading
	err := r.s.run(ctx, "readings.get", func(tx *gorm.DB) error {
		var err error
		reading, err = getReading(tx, "readings.get", id)
		return err
	})
	return reading, err
}

func (r *readingRepo) ListByUnit(ctx context.Context, unitID uuid.UUID, filter ReadingFilter, page Page) ([]model.SensorReading, error) {
	return r.query(ctx, "readings.list_by_unit", ReadingQuery{
		UnitIDs:    []uuid.UUID{unitID},
		Status:     filter.Status,
		IsArchived: filter.IsArchived,
		Order:      OrderDesc,
		Page:       page,
	})
}

func (r *readingRepo) Query(ctx context.Context, q ReadingQuery) ([]model.SensorReading, error) {
	return r.query(ctx, "readings.query", q)
}

func (r *readingRepo) query(ctx context.Context, op string, q ReadingQuery) ([]model.SensorReading, error) {
	plan, err := planQuery(op, q)
	if err != nil {
		return nil, err
	}
	var readings []model.SensorReading
	err = r.s.run(ctx, op, func(tx *gorm.DB) error {
		var err error
		readings, err = plan.execute(tx, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return readings, nil
}

func (r *readingRepo) Update(ctx context.Context, id uuid.UUID, patch ReadingPatch) (*model.SensorReading, error) {
	const op = "readings.update"
	if patch.Status != nil {
		if err := validateStatus(op, *patch.Status); err != nil {
			return nil, err
		}
	}

	updates := make(map[string]any, 4)
	if patch.Temperature != nil {
		updates["temperature"] = *patch.Temperature
	}
	if patch.Humidity != nil {
		updates["humidity"] = *patch.Humidity
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.IsArchived != nil {
		updates["is_archived"] = *patch.IsArchived
	}
	return r.update(ctx, op, id, updates)
}

func (r *readingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.SensorReading, error) {
	const op = "readings.update_status"
	if err := validateStatus(op, status); err != nil {
		return nil, err
	}
	return r.update(ctx, op, id, map[string]any{"status": status})
}

func (r *readingRepo) Archive(ctx context.Context, id uuid.UUID) (*model.SensorReading, error) {
	return r.update(ctx, "readings.archive", id, map[string]any{"is_archived": true})
}

// update applies updates to the reading inside one transaction and returns
// the stored row. An empty update only reads.
func (r *readingRepo) update(ctx context.Context, op string, id uuid.UUID, updates map[string]any) (*model.SensorReading, error) {
	var reading *model.SensorReading
	err := r.s.transaction(ctx, op, func(tx *gorm.DB) error {
		current, err := getReading(tx, op, id)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			reading = current
			return nil
		}
		if err := tx.Model(&model.SensorReading{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		reading, err = getReading(tx, op, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reading, nil
}

func (r *readingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "readings.delete"
	return r.s.run(ctx, op, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.SensorReading{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound(op, "sensor reading %s not found", id)
		}
		return nil
	})
}

func (r *readingRepo) Statistics(ctx context.Context, unitID uuid.UUID) (*model.ReadingStatistics, error) {
	const op = "readings.statistics"
	stats := &model.ReadingStatistics{}
	err := r.s.run(ctx, op, func(tx *gorm.DB) error {
		if err := requireUnits(tx, op, []uuid.UUID{unitID}); err != nil {
			return err
		}
		return tx.Model(&model.SensorReading{}).
			Select(`AVG(temperature) AS avg_temperature,
				AVG(humidity) AS avg_humidity,
				COUNT(*) AS total_readings,
				COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS validated_readings,
				COALESCE(SUM(CASE WHEN is_archived = ? THEN 1 ELSE 0 END), 0) AS archived_readings`,
				model.StatusValidated, true).
			Where("unit_id = ?", unitID).
			Scan(stats).Error
	})
	if err != nil {
		return nil, err
	}
	// Scan zeroes fields the select does not return.
	stats.UnitID = unitID
	return stats, nil
}

func getReading(tx *gorm.DB, op string, id uuid.UUID) (*model.SensorReading, error) {
	var reading model.SensorReading
	if err := tx.Where("id = ?", id).Take(&reading).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(op, "sensor reading %s not found", id)
		}
		return nil, err
	}
	return &reading, nil
}

func validateStatus(op, status string) error {
	if strings.TrimSpace(status) == "" {
		return apperr.Validation(op, "status must not be empty")
	}
	return nil
}
