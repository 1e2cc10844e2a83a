package api

import (
	"net/http"
	"sync/atomic"
	"time"

	respond "github.com/pantrylab/pantry-service/internal/api/respond"
)

// HealthHandler handles health check endpoints
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// global health flag (1 = healthy, 0 = unhealthy)
var healthyFlag atomic.Int32

func init() {
	healthyFlag.Store(0)
}

// BindServiceHealth allows run.go to inject the service health function.
var serviceIsHealthy func() bool = func() bool { return healthyFlag.Load() == 1 }

func BindServiceHealth(f func() bool) { serviceIsHealthy = f }

// BindComponentHealth injects the per-component breakdown reported alongside
// the overall status. Optional; the body omits components when unbound.
var componentHealth func() map[string]bool

func BindComponentHealth(f func() map[string]bool) { componentHealth = f }

// CheckHealth handles GET /v0/health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if serviceIsHealthy() {
		status = "healthy"
	}
	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if componentHealth != nil {
		response["components"] = componentHealth()
	}
	respond.WriteJSON(w, http.StatusOK, response)
}
