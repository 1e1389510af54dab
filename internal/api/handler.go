package api

import (
	"device-inventory-backend/config"
	"device-inventory-backend/internal/store"

	"github.com/SherClockHolmes/webpush-go"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	webpush *webpush.Options
	docs    *config.DocumentsConfig
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, webpushOptions *webpush.Options, docs *config.DocumentsConfig) *Handler {
	return &Handler{
		store:   s,
		webpush: webpushOptions,
		docs:    docs,
	}
}
