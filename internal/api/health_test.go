package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Ensure NewHealthHandler constructs without args and CheckHealth responds
func TestHealthHandler_CheckHealth(t *testing.T) {
	h := NewHealthHandler()
	req := httptest.NewRequest(http.MethodGet, "/v0/health", nil)
	w := httptest.NewRecorder()
	h.CheckHealth(w, req)
	if code := w.Result().StatusCode; code != http.StatusOK {
		t.Fatalf("unexpected status code: %d", code)
	}
}

func TestHealthHandler_ReportsBoundState(t *testing.T) {
	defer BindServiceHealth(func() bool { return healthyFlag.Load() == 1 })
	BindServiceHealth(func() bool { return true })
	BindComponentHealth(func() map[string]bool { return map[string]bool{"store": true} })
	defer BindComponentHealth(nil)

	h := NewHealthHandler()
	req := httptest.NewRequest(http.MethodGet, "/v0/health", nil)
	w := httptest.NewRecorder()
	h.CheckHealth(w, req)

	body := w.Body.String()
	if !strings.Contains(body, `"status":"healthy"`) {
		t.Fatalf("expected healthy status, got %s", body)
	}
	if !strings.Contains(body, `"store":true`) {
		t.Fatalf("expected component breakdown, got %s", body)
	}
}
