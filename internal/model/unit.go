package model

import (
	"time"

	"github.com/google/uuid"
)

// Unit represents a monitored physical asset that produces sensor readings.
type Unit struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Location  *string   `gorm:"size:255" json:"location"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}
