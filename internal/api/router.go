package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"device-inventory-backend/config"
	"device-inventory-backend/internal/mw"
	"device-inventory-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, webpushOptions *webpush.Options, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, webpushOptions, &cfg.Documents)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/devices", caching, handler.ListDevices)
		api.GET("/devices/export", handler.ExportDevices)
		api.GET("/devices/:id", handler.GetDevice)
		api.POST("/devices", handler.CreateDevice)
		api.PUT("/devices/:id", handler.UpdateDevice)
		api.POST("/devices/:id/documents/:kind", handler.GenerateDocument)

		api.POST("/reconcile", handler.ReconcileList)
		api.POST("/reconcile/placeholders", handler.CreatePlaceholders)
		api.POST("/reconcile/export", handler.ExportReconciliation)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
