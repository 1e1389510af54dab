package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"device-inventory-backend/internal/model"
	"device-inventory-backend/internal/pid"
)

var (
	// ErrMissingIdentifiers is returned when a device carries neither a
	// serial number nor a PID.
	ErrMissingIdentifiers = errors.New("device must have a serial number or a PID")
	// ErrDuplicateSerial is returned when a non-empty serial number is
	// already taken by another device.
	ErrDuplicateSerial = errors.New("serial number already in use")
	// ErrDuplicatePID is returned when a non-empty PID is already taken by
	// another device.
	ErrDuplicatePID = errors.New("pid number already in use")
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	ListDevices(ctx context.Context) ([]model.Device, error)
	GetDevice(ctx context.Context, id string) (model.Device, error)
	CreateDevice(ctx context.Context, device *model.Device) error
	UpdateDevice(ctx context.Context, device *model.Device) error
	BulkCreateDevices(ctx context.Context, devices []model.Device) (BulkCreateResult, error)
	UpdateMismatches(ctx context.Context, now time.Time, devices []model.Device) ([]string, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// ListDevices returns a snapshot of the full inventory.
func (s *gormStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Order("created_at").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

func (s *gormStore) GetDevice(ctx context.Context, id string) (model.Device, error) {
	var device model.Device
	err := s.db.WithContext(ctx).First(&device, "id = ?", id).Error
	return device, err
}

// CreateDevice stores a new device after canonicalizing its identifiers and
// checking the uniqueness rules.
func (s *gormStore) CreateDevice(ctx context.Context, device *model.Device) error {
	canonicalizeIdentifiers(device)
	if device.SerialNumber == "" && device.PIDNumber == "" {
		return ErrMissingIdentifiers
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkIdentifierConflicts(tx, device); err != nil {
			return err
		}
		if err := tx.Create(device).Error; err != nil {
			return fmt.Errorf("failed to create device: %w", err)
		}
		return nil
	})
}

// UpdateDevice saves changes to an existing device under the same
// identifier rules as CreateDevice.
func (s *gormStore) UpdateDevice(ctx context.Context, device *model.Device) error {
	canonicalizeIdentifiers(device)
	if device.SerialNumber == "" && device.PIDNumber == "" {
		return ErrMissingIdentifiers
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkIdentifierConflicts(tx, device); err != nil {
			return err
		}
		if err := tx.Save(device).Error; err != nil {
			return fmt.Errorf("failed to update device %s: %w", device.ID, err)
		}
		return nil
	})
}

// BulkCreateDevices creates the given devices in one transaction, skipping
// payloads whose serial or PID conflicts with an existing record or with an
// earlier payload in the same batch. Conflicts are reported, not fatal: the
// remaining payloads are still created.
func (s *gormStore) BulkCreateDevices(ctx context.Context, devices []model.Device) (BulkCreateResult, error) {
	var result BulkCreateResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seenSerials := make(map[string]bool)
		seenPIDs := make(map[string]bool)

		var toCreate []model.Device
		for i := range devices {
			d := devices[i]
			canonicalizeIdentifiers(&d)
			if d.SerialNumber == "" && d.PIDNumber == "" {
				result.Conflicts = append(result.Conflicts, BulkConflict{
					Identifier: d.PIDNumber, Reason: "missing identifiers",
				})
				continue
			}
			if d.SerialNumber != "" && seenSerials[d.SerialNumber] {
				result.Conflicts = append(result.Conflicts, BulkConflict{
					Identifier: d.SerialNumber, Reason: "duplicate serial number in batch",
				})
				continue
			}
			if d.PIDNumber != "" && seenPIDs[d.PIDNumber] {
				result.Conflicts = append(result.Conflicts, BulkConflict{
					Identifier: d.PIDNumber, Reason: "duplicate pid number in batch",
				})
				continue
			}

			switch err := checkIdentifierConflicts(tx, &d); {
			case errors.Is(err, ErrDuplicateSerial):
				result.Conflicts = append(result.Conflicts, BulkConflict{
					Identifier: d.SerialNumber, Reason: "serial number already in use",
				})
				continue
			case errors.Is(err, ErrDuplicatePID):
				result.Conflicts = append(result.Conflicts, BulkConflict{
					Identifier: d.PIDNumber, Reason: "pid number already in use",
				})
				continue
			case err != nil:
				return err
			}

			if d.SerialNumber != "" {
				seenSerials[d.SerialNumber] = true
			}
			if d.PIDNumber != "" {
				seenPIDs[d.PIDNumber] = true
			}
			toCreate = append(toCreate, d)
		}

		if len(toCreate) > 0 {
			log.Printf("Batch creating %d devices...", len(toCreate))
			if err := tx.CreateInBatches(&toCreate, 100).Error; err != nil {
				return fmt.Errorf("batch create devices failed: %w", err)
			}
		}
		result.Created = len(toCreate)
		return nil
	})
	if err != nil {
		return BulkCreateResult{}, err
	}
	return result, nil
}

// UpdateMismatches compares every device against the PID derivation rule and
// maintains the mismatch open/history tables transactionally. It returns the
// IDs of devices that entered a mismatched state during this sweep, for
// notification dispatch.
func (s *gormStore) UpdateMismatches(ctx context.Context, now time.Time, devices []model.Device) ([]string, error) {
	openRecords, err := s.fetchAllOpenMismatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open mismatch records: %w", err)
	}

	var newlyMismatched []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, device := range devices {
			oldRecord, exists := openRecords[device.ID]
			mismatched := pid.IsMismatch(device.SerialNumber, device.PIDNumber)

			if exists {
				if !mismatched {
					// Mismatch resolved: archive the episode and close it.
					if err := archiveMismatch(tx, oldRecord, now); err != nil {
						return err
					}
					if err := tx.Delete(&model.MismatchOpen{}, "device_id = ?", oldRecord.DeviceID).Error; err != nil {
						return fmt.Errorf("failed to delete open mismatch for device %s: %w", oldRecord.DeviceID, err)
					}
				} else if device.SerialNumber != oldRecord.SerialNumber || device.PIDNumber != oldRecord.PIDNumber {
					// Identifiers changed but the device is still mismatched:
					// archive the old episode and start a new one.
					if err := archiveMismatch(tx, oldRecord, now); err != nil {
						return err
					}
					updated := prepareMismatch(device, now)
					if err := tx.Save(&updated).Error; err != nil {
						return fmt.Errorf("failed to update open mismatch for device %s: %w", device.ID, err)
					}
				}
				delete(openRecords, device.ID)
			} else if mismatched {
				newRecord := prepareMismatch(device, now)
				if err := tx.Create(&newRecord).Error; err != nil {
					return fmt.Errorf("failed to create open mismatch for device %s: %w", device.ID, err)
				}
				newlyMismatched = append(newlyMismatched, device.ID)
			}
		}

		// Devices that were open but are no longer in the inventory snapshot.
		for _, remaining := range openRecords {
			if err := archiveMismatch(tx, remaining, now); err != nil {
				return err
			}
			if err := tx.Delete(&model.MismatchOpen{}, "device_id = ?", remaining.DeviceID).Error; err != nil {
				return fmt.Errorf("failed to delete open mismatch for device %s: %w", remaining.DeviceID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newlyMismatched, nil
}

// archiveMismatch records a completed mismatch episode in the history table.
func archiveMismatch(tx *gorm.DB, record model.MismatchOpen, observationTime time.Time) error {
	history := model.MismatchHistory{
		DeviceID:     record.DeviceID,
		ObservedAt:   observationTime,
		SerialNumber: record.SerialNumber,
		PIDNumber:    record.PIDNumber,
		ExpectedPID:  record.ExpectedPID,
		PeriodStart:  record.ObservedAt,
		PeriodEnd:    observationTime,
	}
	if err := tx.Create(&history).Error; err != nil {
		return fmt.Errorf("failed to archive mismatch for device %s: %w", record.DeviceID, err)
	}
	return nil
}

func prepareMismatch(device model.Device, now time.Time) model.MismatchOpen {
	return model.MismatchOpen{
		DeviceID:     device.ID,
		ObservedAt:   now,
		SerialNumber: device.SerialNumber,
		PIDNumber:    device.PIDNumber,
		ExpectedPID:  pid.ExpectedFromSerial(device.SerialNumber),
	}
}

func (s *gormStore) fetchAllOpenMismatches(ctx context.Context) (map[string]model.MismatchOpen, error) {
	var openRecords []model.MismatchOpen
	if err := s.db.WithContext(ctx).Find(&openRecords).Error; err != nil {
		return nil, err
	}
	recordMap := make(map[string]model.MismatchOpen, len(openRecords))
	for _, r := range openRecords {
		recordMap[r.DeviceID] = r
	}
	return recordMap, nil
}

// canonicalizeIdentifiers applies the stored-uppercase convention.
func canonicalizeIdentifiers(device *model.Device) {
	device.SerialNumber = strings.ToUpper(strings.TrimSpace(device.SerialNumber))
	device.PIDNumber = strings.ToUpper(strings.TrimSpace(device.PIDNumber))
}

// checkIdentifierConflicts verifies that the device's non-empty serial and
// PID are not taken by a different record.
func checkIdentifierConflicts(tx *gorm.DB, device *model.Device) error {
	if device.SerialNumber != "" {
		var count int64
		if err := tx.Model(&model.Device{}).
			Where("serial_number = ? AND id <> ?", device.SerialNumber, device.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("serial conflict check failed: %w", err)
		}
		if count > 0 {
			return ErrDuplicateSerial
		}
	}
	if device.PIDNumber != "" {
		var count int64
		if err := tx.Model(&model.Device{}).
			Where("pid_number = ? AND id <> ?", device.PIDNumber, device.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("pid conflict check failed: %w", err)
		}
		if count > 0 {
			return ErrDuplicatePID
		}
	}
	return nil
}
