package application

import (
	"context"

	"github.com/alorle/catalog-ingest/circuitbreaker"
	"github.com/alorle/catalog-ingest/internal/port/driven"
)

// HealthService reports the health of the store and of every provider circuit.
type HealthService struct {
	store    driven.CatalogStore
	breakers *circuitbreaker.Group
}

// NewHealthService creates a new health check service.
func NewHealthService(store driven.CatalogStore, breakers *circuitbreaker.Group) *HealthService {
	return &HealthService{
		store:    store,
		breakers: breakers,
	}
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Status string `json:"status"`          // "ok" or "error"
	Error  string `json:"error,omitempty"` // empty if status is "ok"
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status    string            `json:"status"` // "ok" if everything is healthy, "degraded" otherwise
	Store     ComponentHealth   `json:"store"`
	Providers map[string]string `json:"providers"` // circuit state per provider
}

// Check pings the store and collects circuit states.
// Any open circuit degrades the overall status.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Store:     ComponentHealth{Status: "ok"},
		Providers: make(map[string]string),
	}

	if err := s.store.Ping(ctx); err != nil {
		status.Store = ComponentHealth{
			Status: "error",
			Error:  err.Error(),
		}
		status.Status = "degraded"
	}

	if s.breakers != nil {
		for name, state := range s.breakers.States() {
			status.Providers[name] = state.String()
			if state == circuitbreaker.StateOpen {
				status.Status = "degraded"
			}
		}
	}

	return status
}
