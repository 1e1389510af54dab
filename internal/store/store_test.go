package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"device-inventory-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_UpdateMismatches(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name             string
		devices          []model.Device
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedNewlyIDs []string
		expectedErr      bool
	}{
		{
			name: "New mismatch detected, should notify",
			devices: []model.Device{
				{ID: "dev-1", SerialNumber: "3ITTA13927", PIDNumber: "OLD_PID_123"},
			},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "mismatch_opens"`)).
					WillReturnRows(sqlmock.NewRows([]string{"device_id", "observed_at", "serial_number", "pid_number", "expected_pid"}))

				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "mismatch_opens"`)).
					WithArgs("dev-1", Any{}, "3ITTA13927", "OLD_PID_123", "Z100A13927").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			expectedNewlyIDs: []string{"dev-1"},
		},
		{
			name: "Mismatch resolves, should archive and close without notifying",
			devices: []model.Device{
				{ID: "dev-2", SerialNumber: "3ITTA13927", PIDNumber: "Z100A13927"},
			},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "mismatch_opens"`)).
					WillReturnRows(sqlmock.NewRows([]string{"device_id", "observed_at", "serial_number", "pid_number", "expected_pid"}).
						AddRow("dev-2", now.Add(-10*time.Minute), "3ITTA13927", "OLD_PID_123", "Z100A13927"))

				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "mismatch_histories"`)).
					WithArgs("dev-2", Any{}, "3ITTA13927", "OLD_PID_123", "Z100A13927", Any{}, Any{}).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "mismatch_opens" WHERE device_id = $1`)).
					WithArgs("dev-2").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			expectedNewlyIDs: nil,
		},
		{
			name: "Still mismatched with unchanged identifiers, should do nothing",
			devices: []model.Device{
				{ID: "dev-3", SerialNumber: "3ITTA13927", PIDNumber: "OLD_PID_123"},
			},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "mismatch_opens"`)).
					WillReturnRows(sqlmock.NewRows([]string{"device_id", "observed_at", "serial_number", "pid_number", "expected_pid"}).
						AddRow("dev-3", now.Add(-10*time.Minute), "3ITTA13927", "OLD_PID_123", "Z100A13927"))

				mock.ExpectBegin()
				// No database writes expected
				mock.ExpectCommit()
			},
			expectedNewlyIDs: nil,
		},
		{
			name: "Identifiers change while still mismatched, should archive and restart episode",
			devices: []model.Device{
				{ID: "dev-4", SerialNumber: "3ITTA13927", PIDNumber: "OTHER_PID"},
			},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "mismatch_opens"`)).
					WillReturnRows(sqlmock.NewRows([]string{"device_id", "observed_at", "serial_number", "pid_number", "expected_pid"}).
						AddRow("dev-4", now.Add(-10*time.Minute), "3ITTA13927", "OLD_PID_123", "Z100A13927"))

				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "mismatch_histories"`)).
					WithArgs("dev-4", Any{}, "3ITTA13927", "OLD_PID_123", "Z100A13927", Any{}, Any{}).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				// Save on an existing primary key issues an UPDATE
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "mismatch_opens"`)).
					WithArgs(Any{}, "3ITTA13927", "OTHER_PID", "Z100A13927", "dev-4").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			expectedNewlyIDs: nil,
		},
		{
			name:    "Device disappears from snapshot, should archive and close",
			devices: []model.Device{},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "mismatch_opens"`)).
					WillReturnRows(sqlmock.NewRows([]string{"device_id", "observed_at", "serial_number", "pid_number", "expected_pid"}).
						AddRow("dev-5", now.Add(-10*time.Minute), "3ITTA13927", "OLD_PID_123", "Z100A13927"))

				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "mismatch_histories"`)).
					WithArgs("dev-5", Any{}, "3ITTA13927", "OLD_PID_123", "Z100A13927", Any{}, Any{}).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "mismatch_opens"`)).
					WithArgs("dev-5").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			expectedNewlyIDs: nil,
		},
		{
			name: "Device without both identifiers is never mismatched",
			devices: []model.Device{
				{ID: "dev-6", SerialNumber: "3ITTA13927", PIDNumber: ""},
			},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "mismatch_opens"`)).
					WillReturnRows(sqlmock.NewRows([]string{"device_id", "observed_at", "serial_number", "pid_number", "expected_pid"}))

				mock.ExpectBegin()
				mock.ExpectCommit()
			},
			expectedNewlyIDs: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			store := NewGormStore(gormDB)

			tc.mockExpectations(mock)

			newlyMismatched, err := store.UpdateMismatches(context.Background(), now, tc.devices)

			if tc.expectedErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.ElementsMatch(t, tc.expectedNewlyIDs, newlyMismatched)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
