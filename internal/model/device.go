package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device statuses. UNRESOLVED marks placeholder records created from a
// reconciliation run that still need full data entry.
const (
	StatusActive      = "ACTIVE"
	StatusInService   = "IN_SERVICE"
	StatusRetired     = "RETIRED"
	StatusUnresolved  = "UNRESOLVED"
	AssetIDUnknown    = "UNKNOWN"
	DeviceTypeDefault = "TOUGHBOOK"
)

// Device represents a tracked physical device (Toughbook, laptop, desktop).
// Either SerialNumber or PIDNumber must be non-empty; both are stored
// uppercase and, when present, are unique across the inventory.
type Device struct {
	ID           string `gorm:"primaryKey;size:36"`
	SerialNumber string `gorm:"size:64;index"`
	PIDNumber    string `gorm:"column:pid_number;size:64;index"`
	AssetID      string `gorm:"size:64"`
	DeviceType   string `gorm:"size:32;not null"`
	Status       string `gorm:"size:32;not null"`
	Officer      string `gorm:"size:128"`
	Location     string `gorm:"size:128"`
	Notes        string
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// BeforeCreate assigns the opaque record identifier.
func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
