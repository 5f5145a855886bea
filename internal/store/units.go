package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"unit-telemetry-backend/internal/apperr"
	"unit-telemetry-backend/internal/model"
)

// UnitRepository defines the operations on monitored units.
type UnitRepository interface {
	Create(ctx context.Context, in UnitInput) (*model.Unit, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Unit, error)
	List(ctx context.Context, filter UnitFilter, page Page) ([]model.Unit, error)
	Count(ctx context.Context, filter UnitFilter) (int64, error)
	Update(ctx context.Context, id uuid.UUID, patch UnitPatch) (*model.Unit, error)
	// Delete removes the unit. Its readings go with it through the
	// foreign key's ON DELETE CASCADE.
	Delete(ctx context.Context, id uuid.UUID) error
}

type unitRepo struct {
	s *gormStore
}

func (r *unitRepo) Create(ctx context.Context, in UnitInput) (*model.Unit, error) {
	const op = "units.create"
	if err := validateUnitName(op, in.Name); err != nil {
		return nil, err
	}

	unit := model.Unit{
		ID:        uuid.New(),
		Name:      in.Name,
		Location:  in.Location,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	err := r.s.run(ctx, op, func(tx *gorm.DB) error {
		if err := tx.Create(&unit).Error; err != nil {
			return duplicateName(op, in.Name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepo) Get(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	var unit *model.Unit
	err := r.s.run(ctx, "units.get", func(tx *gorm.DB) error {
		var err error
		unit, err = getUnit(tx, "units.get", id)
		return err
	})
	return unit, err
}

func (r *unitRepo) List(ctx context.Context, filter UnitFilter, page Page) ([]model.Unit, error) {
	const op = "units.list"
	offset, limit, err := page.bounds(op)
	if err != nil {
		return nil, err
	}

	units := make([]model.Unit, 0)
	err = r.s.run(ctx, op, func(tx *gorm.DB) error {
		// id breaks created_at ties so page boundaries are stable.
		return filterUnits(tx, filter).
			Order("created_at ASC").
			Order("id ASC").
			Offset(offset).
			Limit(limit).
			Find(&units).Error
	})
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (r *unitRepo) Count(ctx context.Context, filter UnitFilter) (int64, error) {
	var n int64
	err := r.s.run(ctx, "units.count", func(tx *gorm.DB) error {
		return filterUnits(tx, filter).Count(&n).Error
	})
	return n, err
}

func (r *unitRepo) Update(ctx context.Context, id uuid.UUID, patch UnitPatch) (*model.Unit, error) {
	const op = "units.update"
	if patch.Name != nil {
		if err := validateUnitName(op, *patch.Name); err != nil {
			return nil, err
		}
	}

	var unit *model.Unit
	err := r.s.transaction(ctx, op, func(tx *gorm.DB) error {
		current, err := getUnit(tx, op, id)
		if err != nil {
			return err
		}
		if patch.empty() {
			unit = current
			return nil
		}

		updates := make(map[string]any, 3)
		if patch.Name != nil {
			updates["name"] = *patch.Name
		}
		if patch.Location != nil {
			updates["location"] = *patch.Location
		}
		if patch.IsActive != nil {
			updates["is_active"] = *patch.IsActive
		}
		if err := tx.Model(&model.Unit{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if patch.Name != nil {
				return duplicateName(op, *patch.Name, err)
			}
			return err
		}

		unit, err = getUnit(tx, op, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (r *unitRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "units.delete"
	return r.s.run(ctx, op, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.Unit{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound(op, "unit %s not found", id)
		}
		return nil
	})
}

func getUnit(tx *gorm.DB, op string, id uuid.UUID) (*model.Unit, error) {
	var unit model.Unit
	if err := tx.Where("id = ?", id).Take(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(op, "unit %s not found", id)
		}
		return nil, err
	}
	return &unit, nil
}

func filterUnits(tx *gorm.DB, filter UnitFilter) *gorm.DB {
	q := tx.Model(&model.Unit{})
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	return q
}

func validateUnitName(op, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation(op, "unit name must not be empty")
	}
	return nil
}

// duplicateName names the clashing unit when err is a unique violation.
func duplicateName(op, name string, err error) error {
	classified := apperr.Classify(op, err)
	if apperr.KindOf(classified) != apperr.KindDuplicateKey {
		return classified
	}
	return &apperr.Error{
		Kind: apperr.KindDuplicateKey,
		Op:   op,
		Msg:  fmt.Sprintf("unit name %q already exists", name),
		Err:  err,
	}
}
