// Package audit runs the periodic PID mismatch sweep over the inventory and
// pushes browser notifications for devices that enter a mismatched state.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"device-inventory-backend/config"
	"device-inventory-backend/internal/store"
)

// Service orchestrates the mismatch sweep.
type Service struct {
	cfg        *config.Config
	store      store.Store
	workerPool *WorkerPool
}

// NewService creates and initializes a new audit service.
func NewService(cfg *config.Config, s store.Store) *Service {
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	return &Service{
		cfg:        cfg,
		store:      s,
		workerPool: NewWorkerPool(cfg.WorkerPool.Size, s.DB(), &webpushOptions),
	}
}

// Run starts the sweep loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Audit.Enabled {
		log.Println("Mismatch audit is disabled. Not starting.")
		return
	}
	log.Println("Starting mismatch audit service...")

	s.workerPool.Start(ctx)

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Audit.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Mismatch audit service shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Audit.Interval)
		}
	}
}

// SweepOnce performs a single mismatch sweep over the current inventory.
func (s *Service) SweepOnce(ctx context.Context) {
	log.Println("Executing mismatch sweep...")
	now := time.Now().UTC()

	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		log.Printf("Error loading inventory snapshot: %v", err)
		return
	}

	newlyMismatched, err := s.store.UpdateMismatches(ctx, now, devices)
	if err != nil {
		log.Printf("Error updating mismatch records: %v", err)
		return
	}

	if len(newlyMismatched) > 0 {
		log.Printf("Dispatching alerts for %d newly mismatched devices", len(newlyMismatched))
		for _, deviceID := range newlyMismatched {
			s.workerPool.Dispatch(deviceID)
		}
	}

	log.Println("Mismatch sweep finished.")
}
