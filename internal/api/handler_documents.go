package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"device-inventory-backend/internal/document"
)

// GenerateDocument handles POST /api/devices/:id/documents/:kind, rendering
// the registration or deactivation email and memo for a device. The client
// hands the strings to the operator's mail client and PDF view verbatim.
func (h *Handler) GenerateDocument(c *gin.Context) {
	device, err := h.store.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	doc, err := document.Generate(c.Param("kind"), device, h.docs, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, doc)
}
