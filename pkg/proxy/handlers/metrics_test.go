package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"unblock-hq/corsair/pkg/auth"
	"unblock-hq/corsair/pkg/config"
	"unblock-hq/corsair/pkg/telemetry/metrics"
)

func testCollector() *metrics.Collector {
	return metrics.NewCollector(config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Subsystem: "proxy",
	})
}

func TestMetricsHandler_Aggregates(t *testing.T) {
	collector := testCollector()
	collector.RecordRequest("proxy", 200, 100*time.Millisecond, metrics.CacheHit)
	collector.RecordRequest("proxy", 502, 100*time.Millisecond, metrics.CacheMiss)

	h := NewMetricsHandler(collector, auth.NewServiceTokenChecker("secret"))

	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.Header.Set(ServiceTokenHeader, "secret")
	rec := httptest.NewRecorder()
	h.Aggregates(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var agg metrics.Aggregates
	if err := json.Unmarshal(rec.Body.Bytes(), &agg); err != nil {
		t.Fatal(err)
	}
	if agg.TotalRequests != 2 || agg.FailedRequests != 1 || agg.CachedResponses != 1 {
		t.Errorf("aggregates = %+v", agg)
	}
}

func TestMetricsHandler_TokenRequired(t *testing.T) {
	h := NewMetricsHandler(testCollector(), auth.NewServiceTokenChecker("secret"))

	tests := []struct {
		name  string
		token string
	}{
		{name: "absent", token: ""},
		{name: "wrong", token: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.token != "" {
				r.Header.Set(ServiceTokenHeader, tt.token)
			}
			rec := httptest.NewRecorder()
			h.Aggregates(rec, r)

			if rec.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", rec.Code)
			}
		})
	}
}

func TestMetricsHandler_NoTokenConfigured(t *testing.T) {
	h := NewMetricsHandler(testCollector(), auth.NewServiceTokenChecker(""))

	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.Aggregates(rec, r)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 when no token is configured", rec.Code)
	}
}

func TestMetricsHandler_Prometheus(t *testing.T) {
	collector := testCollector()
	collector.RecordRequest("proxy", 200, 100*time.Millisecond, metrics.CacheNone)

	h := NewMetricsHandler(collector, auth.NewServiceTokenChecker("secret"))

	r := httptest.NewRequest(http.MethodGet, "/metrics/prometheus", nil)
	r.Header.Set(ServiceTokenHeader, "secret")
	rec := httptest.NewRecorder()
	h.Prometheus(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_proxy_requests_total") {
		t.Errorf("scrape output missing counter:\n%s", rec.Body.String())
	}
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler()
	h.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.Timestamp != "2025-06-01T12:00:00Z" {
		t.Errorf("timestamp = %q", resp.Timestamp)
	}
	if resp.Version == "" {
		t.Error("version missing")
	}
}

func TestBareHandler(t *testing.T) {
	h := NewBareHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bare/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info struct {
		Versions []string `json:"versions"`
		Language string   `json:"language"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if len(info.Versions) == 0 || info.Language != "Go" {
		t.Errorf("bare info = %+v", info)
	}
}
