package application

import (
	"context"
	"fmt"

	"github.com/alorle/overlay-manager/internal/port/driven"
	"github.com/alorle/overlay-manager/metrics"
)

// HealthService reports on the health of the overlay store.
type HealthService struct {
	repo   driven.OverlayRepository
	driver string
}

// NewHealthService creates a new health check service for the store named by driver.
func NewHealthService(repo driven.OverlayRepository, driver string) *HealthService {
	return &HealthService{
		repo:   repo,
		driver: driver,
	}
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Status string // "ok" or "error"
	Error  string // empty if status is "ok", otherwise contains error message
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status string          // "ok" if all components are healthy, "degraded" otherwise
	Store  ComponentHealth // overlay store health
}

// StoreStats describes the store backing the overlay service.
type StoreStats struct {
	Driver   string
	Overlays int
}

// Check pings the store and reports the overall status.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status: "ok",
		Store:  ComponentHealth{Status: "ok"},
	}

	if err := s.repo.Ping(ctx); err != nil {
		metrics.RecordHealthCheckFailure()
		status.Store = ComponentHealth{
			Status: "error",
			Error:  err.Error(),
		}
		status.Status = "degraded"
	}

	return status
}

// StoreStats verifies the store is reachable and counts the stored overlays.
func (s *HealthService) StoreStats(ctx context.Context) (StoreStats, error) {
	if err := s.repo.Ping(ctx); err != nil {
		metrics.RecordHealthCheckFailure()
		return StoreStats{}, fmt.Errorf("ping %s store: %w", s.driver, err)
	}

	n, err := s.repo.Count(ctx)
	if err != nil {
		return StoreStats{}, fmt.Errorf("count overlays: %w", err)
	}
	metrics.SetOverlaysStored(n)

	return StoreStats{Driver: s.driver, Overlays: n}, nil
}
