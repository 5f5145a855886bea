package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"unit-telemetry-backend/internal/apperr"
)

const (
	// DefaultPageSize is used when Page.Size is zero.
	DefaultPageSize = 100
	// MaxPageSize is the largest accepted Page.Size.
	MaxPageSize = 1000
)

// Page selects a window of an ordered listing. Number is zero-based. The
// zero value is the first page of DefaultPageSize rows.
type Page struct {
	Number int
	Size   int
}

// bounds validates p and returns its offset and limit.
func (p Page) bounds(op string) (offset, limit int, err error) {
	size := p.Size
	if size == 0 {
		size = DefaultPageSize
	}
	if p.Number < 0 {
		return 0, 0, apperr.Validation(op, "page must not be negative, got %d", p.Number)
	}
	if size < 1 || size > MaxPageSize {
		return 0, 0, apperr.Validation(op, "page size must be between 1 and %d, got %d", MaxPageSize, p.Size)
	}
	return p.Number * size, size, nil
}

// UnitInput holds the fields of a new unit.
type UnitInput struct {
	Name     string  `json:"name"`
	Location *string `json:"location"`
}

// UnitFilter narrows unit listings. Nil fields match everything.
type UnitFilter struct {
	IsActive *bool
}

// UnitPatch lists the unit fields to change. Nil fields are left alone.
type UnitPatch struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	IsActive *bool   `json:"is_active"`
}

func (p UnitPatch) empty() bool {
	return p.Name == nil && p.Location == nil && p.IsActive == nil
}

// ReadingInput holds the fields of a new reading. A nil Timestamp means now
// and a nil Status means PENDING.
type ReadingInput struct {
	UnitID      uuid.UUID           `json:"unit_id"`
	Timestamp   *time.Time          `json:"timestamp"`
	Temperature decimal.NullDecimal `json:"temperature"`
	Humidity    decimal.NullDecimal `json:"humidity"`
	Status      *string             `json:"status"`
	IsArchived  bool                `json:"is_archived"`
}

// ReadingFilter narrows the readings of one unit.
type ReadingFilter struct {
	Status     *string
	IsArchived *bool
}

// ReadingPatch lists the reading fields to change. Setting Temperature or
// Humidity to an invalid NullDecimal clears the measurement.
type ReadingPatch struct {
	Temperature *decimal.NullDecimal `json:"temperature"`
	Humidity    *decimal.NullDecimal `json:"humidity"`
	Status      *string              `json:"status"`
	IsArchived  *bool                `json:"is_archived"`
}

func (p ReadingPatch) empty() bool {
	return p.Temperature == nil && p.Humidity == nil && p.Status == nil && p.IsArchived == nil
}

// Order is the direction readings are listed in, by timestamp.
type Order string

const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// ReadingQuery is a conjunction of reading predicates. An empty UnitIDs
// spans all units. From is inclusive and To exclusive.
type ReadingQuery struct {
	UnitIDs    []uuid.UUID
	Status     *string
	IsArchived *bool
	From       *time.Time
	To         *time.Time
	Order      Order
	Page       Page
}
