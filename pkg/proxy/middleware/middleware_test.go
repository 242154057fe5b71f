package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"unblock-hq/corsair/pkg/auth"
	"unblock-hq/corsair/pkg/config"
	"unblock-hq/corsair/pkg/telemetry/metrics"
)

func TestRequestIDMiddleware_Generates(t *testing.T) {
	var fromCtx string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if fromCtx == "" {
		t.Fatal("no request ID in context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != fromCtx {
		t.Errorf("header %q != context %q", got, fromCtx)
	}
}

func TestRequestIDMiddleware_HonorsClientID(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "client-supplied")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if got := rec.Header().Get(RequestIDHeader); got != "client-supplied" {
		t.Errorf("request ID = %q, want client-supplied", got)
	}
}

func corsTestConfig() config.CORSConfig {
	return config.CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID", "X-Cache"},
		MaxAge:         3600,
	}
}

func TestCORSMiddleware_StampsEveryResponse(t *testing.T) {
	handler := CORSMiddleware(corsTestConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "*" {
		t.Errorf("Allow-Headers = %q, want *", got)
	}
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, error responses must carry CORS headers too", rec.Code)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	handler := CORSMiddleware(corsTestConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/proxy", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if called {
		t.Error("preflight reached the handler")
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "3600" {
		t.Errorf("Max-Age = %q, want 3600", got)
	}
}

type staticResolver struct {
	identity auth.Identity
}

func (s *staticResolver) Resolve(ctx context.Context, r *http.Request) auth.Identity {
	return s.identity
}

func TestIdentityMiddleware(t *testing.T) {
	want := auth.Identity{UserID: "user-9", Authenticated: true}
	var got auth.Identity
	handler := IdentityMiddleware(&staticResolver{identity: want})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetIdentity(r.Context())
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != want {
		t.Errorf("identity = %+v, want %+v", got, want)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Error != "Internal" {
		t.Errorf("error = %q, want Internal", envelope.Error)
	}
	if envelope.Message == "boom" {
		t.Error("panic value leaked to the client")
	}
}

func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestLoggingMiddleware_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler = LoggingMiddleware(logger)(handler)
	handler = IdentityMiddleware(&staticResolver{identity: auth.Identity{UserID: "user-9", Authenticated: true}})(handler)
	handler = RequestIDMiddleware(handler)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	var line struct {
		RequestID string `json:"request_id"`
		User      string `json:"user"`
	}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decoding log line: %v", err)
	}
	if line.RequestID != "req-42" {
		t.Errorf("request_id = %q, want req-42", line.RequestID)
	}
	if line.User != "user-9" {
		t.Errorf("user = %q, want user-9", line.User)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	collector := metrics.NewCollector(config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Subsystem: "proxy",
	})

	handler := MetricsMiddleware(collector, "proxy")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cache", "HIT")
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	agg := collector.Aggregates()
	if agg.TotalRequests != 1 {
		t.Errorf("TotalRequests = %d, want 1", agg.TotalRequests)
	}
	if agg.CachedResponses != 1 {
		t.Errorf("CachedResponses = %d, want 1", agg.CachedResponses)
	}
	if agg.AverageResponseTime < 0 || agg.AverageResponseTime > time.Second.Seconds() {
		t.Errorf("AverageResponseTime = %v", agg.AverageResponseTime)
	}
}
