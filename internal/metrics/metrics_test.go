package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func TestMiddleware_RecordsRequestsByRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Middleware)
	router.HandleFunc("/v0/items/{itemId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods("GET")

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v0/items/abc123")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	scrape := httptest.NewRecorder()
	Handler().ServeHTTP(scrape, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(scrape.Result().Body)

	want := `pantry_http_requests_total{code="204",method="GET",route="/v0/items/{itemId}"}`
	if !strings.Contains(string(body), want) {
		t.Fatalf("request counter not exported, want %s in:\n%s", want, body)
	}
	if !strings.Contains(string(body), "pantry_http_request_duration_seconds") {
		t.Fatalf("duration histogram not exported")
	}
}
