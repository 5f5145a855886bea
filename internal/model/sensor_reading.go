package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Conventional reading statuses. The store accepts any non-empty status.
const (
	StatusPending   = "PENDING"
	StatusValidated = "VALIDATED"
	StatusRejected  = "REJECTED"
)

// SensorReading is a single timestamped measurement taken by a unit.
type SensorReading struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	UnitID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"unit_id"`
	Timestamp   time.Time           `gorm:"column:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"timestamp"`
	Temperature decimal.NullDecimal `gorm:"type:numeric" json:"temperature"`
	Humidity    decimal.NullDecimal `gorm:"type:numeric" json:"humidity"`
	Status      string              `gorm:"size:64;not null;default:'PENDING';index" json:"status"`
	IsArchived  bool                `gorm:"not null;default:false" json:"is_archived"`

	// Associations
	Unit *Unit `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName keeps the table name used by existing deployments.
func (SensorReading) TableName() string {
	return "sensor_data"
}

// ReadingStatistics aggregates the readings of one unit.
type ReadingStatistics struct {
	UnitID            uuid.UUID           `json:"unit_id"`
	AvgTemperature    decimal.NullDecimal `json:"avg_temperature"`
	AvgHumidity       decimal.NullDecimal `json:"avg_humidity"`
	TotalReadings     int64               `json:"total_readings"`
	ValidatedReadings int64               `json:"validated_readings"`
	ArchivedReadings  int64               `json:"archived_readings"`
}
