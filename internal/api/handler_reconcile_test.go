package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"device-inventory-backend/internal/model"
	"device-inventory-backend/internal/store"
)

func setupReconcileRouter(t *testing.T, name string) (*gin.Engine, *gorm.DB) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(&model.Device{}))

	handler := NewHandler(store.NewGormStore(testDB), nil, nil)

	r := gin.Default()
	r.POST("/api/reconcile", handler.ReconcileList)
	r.POST("/api/reconcile/placeholders", handler.CreatePlaceholders)
	return r, testDB
}

func TestReconcileList(t *testing.T) {
	router, testDB := setupReconcileRouter(t, "reconcile_list")
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	tracked := model.Device{SerialNumber: "3ITTA13927", PIDNumber: "Z100A13927", Status: model.StatusActive, DeviceType: model.DeviceTypeDefault}
	require.NoError(t, testDB.Create(&tracked).Error)

	body, _ := json.Marshal(map[string]string{"text": "Z100A13927\nz100b12345; Z100A13927"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/reconcile", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Found        []string       `json:"found"`
		Missing      []string       `json:"missing"`
		FoundDevices []model.Device `json:"foundDevices"`
		Parsed       []string       `json:"parsed"`
		FoundCount   int            `json:"foundCount"`
		MissingCount int            `json:"missingCount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, []string{"Z100A13927", "Z100B12345", "Z100A13927"}, resp.Parsed)
	assert.Equal(t, []string{"Z100A13927", "Z100A13927"}, resp.Found)
	assert.Equal(t, []string{"Z100B12345"}, resp.Missing)
	assert.Equal(t, 2, resp.FoundCount)
	assert.Equal(t, 1, resp.MissingCount)
	assert.Len(t, resp.FoundDevices, 2)
	assert.Equal(t, tracked.ID, resp.FoundDevices[0].ID)
}

func TestReconcileListBadRequest(t *testing.T) {
	router, testDB := setupReconcileRouter(t, "reconcile_bad")
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/reconcile", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePlaceholders(t *testing.T) {
	router, testDB := setupReconcileRouter(t, "reconcile_placeholders")
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	existing := model.Device{PIDNumber: "Z100C67890", Status: model.StatusActive, DeviceType: model.DeviceTypeDefault}
	require.NoError(t, testDB.Create(&existing).Error)

	body, _ := json.Marshal(map[string][]string{
		"identifiers": {"Z100B12345", "Z100C67890", "Z100E55555"},
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/reconcile/placeholders", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var result store.BulkCreateResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "Z100C67890", result.Conflicts[0].Identifier)

	var created model.Device
	require.NoError(t, testDB.First(&created, "pid_number = ?", "Z100B12345").Error)
	assert.Equal(t, model.StatusUnresolved, created.Status)
	assert.Equal(t, model.AssetIDUnknown, created.AssetID)
	assert.Equal(t, model.DeviceTypeDefault, created.DeviceType)
	assert.Equal(t, "", created.SerialNumber)
}
