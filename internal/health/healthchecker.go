package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by component-level checkers such as the store.
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker folds the component checkers into the single flag the
// health endpoint and the startup gate read. The flag starts unhealthy until
// the first evaluation completes.
type ServiceHealthChecker struct {
	healthy atomic.Bool
	deps    []HealthChecker
	log     zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	return &ServiceHealthChecker{deps: deps, log: log}
}

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() }

// Components reports the current health of each dependency by name.
func (h *ServiceHealthChecker) Components() map[string]bool {
	out := make(map[string]bool, len(h.deps))
	for _, c := range h.deps {
		out[c.Name()] = c.IsHealthy()
	}
	return out
}

// Start re-evaluates dependency health on every tick until ctx is cancelled.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	was := h.refresh(false)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			was = h.refresh(was)
		}
	}
}

// refresh recomputes the aggregate flag and logs UP/DOWN transitions.
func (h *ServiceHealthChecker) refresh(was bool) bool {
	now := h.allHealthy()
	h.healthy.Store(now)
	if now != was {
		if now {
			h.log.Info().Msg("service health: UP")
		} else {
			h.log.Error().Stack().Msg("service health: DOWN")
		}
	}
	return now
}

func (h *ServiceHealthChecker) allHealthy() bool {
	for _, c := range h.deps {
		if !c.IsHealthy() {
			return false
		}
	}
	return true
}
