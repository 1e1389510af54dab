package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"device-inventory-backend/internal/model"
	"device-inventory-backend/internal/pid"
	"device-inventory-backend/internal/store"
)

// deviceView is the flattened structure for the API response. The expected
// PID and mismatch flag are derived on read, never stored.
type deviceView struct {
	model.Device
	ExpectedPID string `json:"expectedPid"`
	PIDMismatch bool   `json:"pidMismatch"`
}

func newDeviceView(d model.Device) deviceView {
	return deviceView{
		Device:      d,
		ExpectedPID: pid.ExpectedFromSerial(d.SerialNumber),
		PIDMismatch: pid.IsMismatch(d.SerialNumber, d.PIDNumber),
	}
}

// ListDevices handles GET /api/devices. With ?mismatch=true only devices
// whose stored PID deviates from the derived one are returned.
func (h *Handler) ListDevices(c *gin.Context) {
	devices, err := h.store.ListDevices(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve devices"})
		return
	}

	mismatchOnly := c.Query("mismatch") == "true"

	views := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		v := newDeviceView(d)
		if mismatchOnly && !v.PIDMismatch {
			continue
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, views)
}

// GetDevice handles GET /api/devices/:id.
func (h *Handler) GetDevice(c *gin.Context) {
	device, err := h.store.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, newDeviceView(device))
}

type devicePayload struct {
	SerialNumber string `json:"serialNumber"`
	PIDNumber    string `json:"pidNumber"`
	AssetID      string `json:"assetId"`
	DeviceType   string `json:"deviceType"`
	Status       string `json:"status"`
	Officer      string `json:"officer"`
	Location     string `json:"location"`
	Notes        string `json:"notes"`
}

// CreateDevice handles POST /api/devices.
func (h *Handler) CreateDevice(c *gin.Context) {
	var req devicePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device := model.Device{
		SerialNumber: req.SerialNumber,
		PIDNumber:    req.PIDNumber,
		AssetID:      req.AssetID,
		DeviceType:   req.DeviceType,
		Status:       req.Status,
		Officer:      req.Officer,
		Location:     req.Location,
		Notes:        req.Notes,
	}
	if device.DeviceType == "" {
		device.DeviceType = model.DeviceTypeDefault
	}
	if device.Status == "" {
		device.Status = model.StatusActive
	}

	if err := h.store.CreateDevice(c.Request.Context(), &device); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrMissingIdentifiers) ||
			errors.Is(err, store.ErrDuplicateSerial) ||
			errors.Is(err, store.ErrDuplicatePID) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, newDeviceView(device))
}

// UpdateDevice handles PUT /api/devices/:id.
func (h *Handler) UpdateDevice(c *gin.Context) {
	device, err := h.store.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	var req devicePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device.SerialNumber = req.SerialNumber
	device.PIDNumber = req.PIDNumber
	device.AssetID = req.AssetID
	device.DeviceType = req.DeviceType
	device.Status = req.Status
	device.Officer = req.Officer
	device.Location = req.Location
	device.Notes = req.Notes

	if err := h.store.UpdateDevice(c.Request.Context(), &device); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrMissingIdentifiers) ||
			errors.Is(err, store.ErrDuplicateSerial) ||
			errors.Is(err, store.ErrDuplicatePID) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, newDeviceView(device))
}
