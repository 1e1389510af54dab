package model

import "time"

// MismatchOpen represents a device currently in a PID-mismatch state (hot table).
type MismatchOpen struct {
	DeviceID     string    `gorm:"primaryKey;size:36"`
	ObservedAt   time.Time `gorm:"not null"`
	SerialNumber string    `gorm:"size:64;not null"`
	PIDNumber    string    `gorm:"column:pid_number;size:64;not null"`
	ExpectedPID  string    `gorm:"column:expected_pid;size:64;not null"`
}

// MismatchHistory records a resolved mismatch episode (cold table).
type MismatchHistory struct {
	ID           int64     `gorm:"autoIncrement"`
	DeviceID     string    `gorm:"not null;index;primaryKey;size:36"`
	ObservedAt   time.Time `gorm:"not null;index;primaryKey"` // Time the resolution was observed
	SerialNumber string    `gorm:"size:64;not null"`
	PIDNumber    string    `gorm:"column:pid_number;size:64;not null"`
	ExpectedPID  string    `gorm:"column:expected_pid;size:64;not null"`
	PeriodStart  time.Time `gorm:"not null"`
	PeriodEnd    time.Time `gorm:"not null"`
}
