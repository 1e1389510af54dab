package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"device-inventory-backend/internal/reconcile"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportDevices handles GET /api/devices/export, streaming the inventory as
// an xlsx workbook with the derived identifier columns included.
func (h *Handler) ExportDevices(c *gin.Context) {
	devices, err := h.store.ListDevices(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve devices"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"Serial Number", "PID", "Expected PID", "Mismatch", "Asset ID", "Device Type", "Status", "Officer", "Location"}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		f.SetCellValue(sheet, cell, header)
	}

	for i, d := range devices {
		v := newDeviceView(d)
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), v.SerialNumber)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), v.PIDNumber)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), v.ExpectedPID)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), v.PIDMismatch)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), v.AssetID)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), v.DeviceType)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), v.Status)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), v.Officer)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), v.Location)
	}

	writeWorkbook(c, f, "inventory.xlsx")
}

type reconcileExportRequest struct {
	Text string `json:"text" binding:"required"`
	Set  string `json:"set" binding:"required"` // "found" or "missing"
}

// ExportReconciliation handles POST /api/reconcile/export: re-runs the
// reconciliation against a fresh snapshot and exports the requested
// partition as an xlsx workbook.
func (h *Handler) ExportReconciliation(c *gin.Context) {
	var req reconcileExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Set != "found" && req.Set != "missing" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "set must be \"found\" or \"missing\""})
		return
	}

	devices, err := h.store.ListDevices(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve devices"})
		return
	}

	result := reconcile.Reconcile(reconcile.ParseList(req.Text), devices)

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	f.SetCellValue(sheet, "A1", "PID")
	if req.Set == "found" {
		f.SetCellValue(sheet, "B1", "Serial Number")
		f.SetCellValue(sheet, "C1", "Asset ID")
		for i, id := range result.Found {
			row := i + 2
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), id)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), result.FoundDevices[i].SerialNumber)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), result.FoundDevices[i].AssetID)
		}
	} else {
		for i, id := range result.Missing {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), id)
		}
	}

	writeWorkbook(c, f, req.Set+".xlsx")
}

func writeWorkbook(c *gin.Context, f *excelize.File, filename string) {
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := f.Write(c.Writer); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to write workbook"})
	}
}
