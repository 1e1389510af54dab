package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"device-inventory-backend/internal/reconcile"
)

type reconcileRequest struct {
	Text string `json:"text"`
}

type reconcileResponse struct {
	reconcile.Result
	Parsed       []string `json:"parsed"`
	FoundCount   int      `json:"foundCount"`
	MissingCount int      `json:"missingCount"`
}

// ReconcileList handles POST /api/reconcile. The pasted text is parsed and
// partitioned against a snapshot of the inventory taken at request time.
func (h *Handler) ReconcileList(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	devices, err := h.store.ListDevices(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve devices"})
		return
	}

	ids := reconcile.ParseList(req.Text)
	result := reconcile.Reconcile(ids, devices)

	c.JSON(http.StatusOK, reconcileResponse{
		Result:       result,
		Parsed:       ids,
		FoundCount:   len(result.Found),
		MissingCount: len(result.Missing),
	})
}

type placeholdersRequest struct {
	Identifiers []string `json:"identifiers" binding:"required"`
}

// CreatePlaceholders handles POST /api/reconcile/placeholders: the missing
// partition of a reconciliation run is materialized as placeholder records.
// Conflicts are reported per identifier; the submitted list is never
// modified, so the operator can correct and retry.
func (h *Handler) CreatePlaceholders(c *gin.Context) {
	var req placeholdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	devices := reconcile.PlaceholderDevices(req.Identifiers)
	result, err := h.store.BulkCreateDevices(c.Request.Context(), devices)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}
