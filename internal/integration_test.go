package internal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"device-inventory-backend/config"
	"device-inventory-backend/internal/audit"
	"device-inventory-backend/internal/model"
	"device-inventory-backend/internal/store"
)

// TestMismatchLifecycle simulates a device entering and leaving a PID
// mismatch state across audit sweeps and verifies the database at each step.
func TestMismatchLifecycle(t *testing.T) {
	// 1. Setup an in-memory SQLite database for testing.
	testDB, err := gorm.Open(sqlite.Open("file:mismatch_lifecycle?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	err = testDB.AutoMigrate(
		&model.Device{},
		&model.MismatchOpen{},
		&model.MismatchHistory{},
		&model.PushSubscription{},
	)
	require.NoError(t, err)

	// 2. Create a mock configuration.
	mockConfig := &config.Config{
		Audit: config.AuditConfig{Enabled: true, Interval: time.Minute},
	}
	mockConfig.WorkerPool.Size = 4

	appStore := store.NewGormStore(testDB)
	auditService := audit.NewService(mockConfig, appStore)

	// 3. Store a device whose PID deviates from the derived one.
	device := model.Device{
		SerialNumber: "3ITTA13927",
		PIDNumber:    "OLD_PID_123",
		AssetID:      "PD-0042",
		DeviceType:   model.DeviceTypeDefault,
		Status:       model.StatusActive,
	}
	require.NoError(t, appStore.CreateDevice(context.Background(), &device))

	var firstObservedAt time.Time
	t.Run("Sweep 1: Mismatch Opens", func(t *testing.T) {
		auditService.SweepOnce(context.Background())

		var open model.MismatchOpen
		err := testDB.Where("device_id = ?", device.ID).First(&open).Error
		require.NoError(t, err, "Expected an open mismatch record")
		assert.Equal(t, "3ITTA13927", open.SerialNumber)
		assert.Equal(t, "OLD_PID_123", open.PIDNumber)
		assert.Equal(t, "Z100A13927", open.ExpectedPID)
		assert.WithinDuration(t, time.Now(), open.ObservedAt, 5*time.Second)

		var historyCount int64
		testDB.Model(&model.MismatchHistory{}).Where("device_id = ?", device.ID).Count(&historyCount)
		assert.Equal(t, int64(0), historyCount, "history should be empty")
		firstObservedAt = open.ObservedAt
	})

	t.Run("Sweep 2: Unchanged Mismatch Stays Open", func(t *testing.T) {
		auditService.SweepOnce(context.Background())

		var openCount int64
		testDB.Model(&model.MismatchOpen{}).Where("device_id = ?", device.ID).Count(&openCount)
		assert.Equal(t, int64(1), openCount)

		var historyCount int64
		testDB.Model(&model.MismatchHistory{}).Where("device_id = ?", device.ID).Count(&historyCount)
		assert.Equal(t, int64(0), historyCount)
	})

	t.Run("Sweep 3: Corrected PID Archives The Episode", func(t *testing.T) {
		device.PIDNumber = "Z100A13927"
		require.NoError(t, appStore.UpdateDevice(context.Background(), &device))

		auditService.SweepOnce(context.Background())

		var openCount int64
		testDB.Model(&model.MismatchOpen{}).Where("device_id = ?", device.ID).Count(&openCount)
		assert.Equal(t, int64(0), openCount, "open mismatches should be empty")

		var history model.MismatchHistory
		err := testDB.Where("device_id = ?", device.ID).First(&history).Error
		require.NoError(t, err, "Expected a history record")
		assert.Equal(t, "OLD_PID_123", history.PIDNumber)
		assert.Equal(t, "Z100A13927", history.ExpectedPID)
		assert.Equal(t, firstObservedAt.Unix(), history.PeriodStart.Unix(), "PeriodStart should match the first observation")
		assert.True(t, history.PeriodEnd.After(history.PeriodStart) || history.PeriodEnd.Equal(history.PeriodStart))
	})
}

// TestBulkCreateBackstop verifies that bulk-created placeholders respect the
// uniqueness rules and that conflicts never abort the rest of the batch.
func TestBulkCreateBackstop(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open("file:bulk_backstop?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, testDB.AutoMigrate(&model.Device{}))

	appStore := store.NewGormStore(testDB)

	existing := model.Device{PIDNumber: "Z100A13927", Status: model.StatusActive, DeviceType: model.DeviceTypeDefault}
	require.NoError(t, appStore.CreateDevice(context.Background(), &existing))

	result, err := appStore.BulkCreateDevices(context.Background(), []model.Device{
		{PIDNumber: "Z100A13927", AssetID: model.AssetIDUnknown, DeviceType: model.DeviceTypeDefault, Status: model.StatusUnresolved},
		{PIDNumber: "Z100B12345", AssetID: model.AssetIDUnknown, DeviceType: model.DeviceTypeDefault, Status: model.StatusUnresolved},
		{PIDNumber: "Z100B12345", AssetID: model.AssetIDUnknown, DeviceType: model.DeviceTypeDefault, Status: model.StatusUnresolved},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Len(t, result.Conflicts, 2)

	var total int64
	testDB.Model(&model.Device{}).Count(&total)
	assert.Equal(t, int64(2), total)
}
