package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"unblock-hq/corsair/pkg/config"
)

func testConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:                true,
		Namespace:              "test",
		Subsystem:              "proxy",
		RequestDurationBuckets: []float64{0.1, 0.5, 1.0, 5.0},
	}
}

func TestCollector_RecordRequest(t *testing.T) {
	c := NewCollector(testConfig())

	c.RecordRequest("proxy", 200, 100*time.Millisecond, CacheMiss)
	c.RecordRequest("proxy", 200, 300*time.Millisecond, CacheHit)
	c.RecordRequest("proxy", 502, 50*time.Millisecond, CacheBypass)
	c.RecordRequest("service", 404, 50*time.Millisecond, CacheNone)

	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("proxy", "200")); got != 2 {
		t.Errorf("requests_total{proxy,200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("proxy", "502")); got != 1 {
		t.Errorf("requests_total{proxy,502} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.cacheEvents.WithLabelValues(CacheHit)); got != 1 {
		t.Errorf("cache_events_total{hit} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.cacheEvents.WithLabelValues(CacheMiss)); got != 1 {
		t.Errorf("cache_events_total{miss} = %v, want 1", got)
	}
}

func TestCollector_Aggregates(t *testing.T) {
	c := NewCollector(testConfig())

	c.RecordRequest("proxy", 200, 100*time.Millisecond, CacheHit)
	c.RecordRequest("proxy", 404, 200*time.Millisecond, CacheMiss)
	c.RecordRequest("proxy", 503, 300*time.Millisecond, CacheMiss)
	c.RecordRequest("proxy", 200, 400*time.Millisecond, CacheHit)

	agg := c.Aggregates()

	if agg.TotalRequests != 4 {
		t.Errorf("TotalRequests = %d, want 4", agg.TotalRequests)
	}
	// 4xx is the client's fault, not a proxy failure.
	if agg.SuccessfulRequests != 3 {
		t.Errorf("SuccessfulRequests = %d, want 3", agg.SuccessfulRequests)
	}
	if agg.FailedRequests != 1 {
		t.Errorf("FailedRequests = %d, want 1", agg.FailedRequests)
	}
	if agg.CachedResponses != 2 {
		t.Errorf("CachedResponses = %d, want 2", agg.CachedResponses)
	}
	if math.Abs(agg.AverageResponseTime-0.25) > 1e-9 {
		t.Errorf("AverageResponseTime = %v, want 0.25", agg.AverageResponseTime)
	}
	if math.Abs(agg.SuccessRate-0.75) > 1e-9 {
		t.Errorf("SuccessRate = %v, want 0.75", agg.SuccessRate)
	}
	if math.Abs(agg.CacheHitRate-0.5) > 1e-9 {
		t.Errorf("CacheHitRate = %v, want 0.5", agg.CacheHitRate)
	}
}

func TestCollector_AggregatesEmpty(t *testing.T) {
	c := NewCollector(testConfig())

	agg := c.Aggregates()
	if agg.TotalRequests != 0 || agg.SuccessRate != 0 || agg.AverageResponseTime != 0 {
		t.Errorf("empty collector aggregates = %+v, want zeros", agg)
	}
}

func TestCollector_RecordRateLimited(t *testing.T) {
	c := NewCollector(testConfig())

	c.RecordRateLimited("chat")
	c.RecordRateLimited("chat")
	c.RecordRateLimited("proxy")

	if got := testutil.ToFloat64(c.rateLimited.WithLabelValues("chat")); got != 2 {
		t.Errorf("rate_limited_total{chat} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.rateLimited.WithLabelValues("proxy")); got != 1 {
		t.Errorf("rate_limited_total{proxy} = %v, want 1", got)
	}
}

func TestCollector_RecordChatTurn(t *testing.T) {
	c := NewCollector(testConfig())

	c.RecordChatTurn("success", 120)
	c.RecordChatTurn("success", 80)
	c.RecordChatTurn("RATE_LIMITED", 0)

	if got := testutil.ToFloat64(c.chatTurns.WithLabelValues("success")); got != 2 {
		t.Errorf("chat_turns_total{success} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.chatTurns.WithLabelValues("RATE_LIMITED")); got != 1 {
		t.Errorf("chat_turns_total{RATE_LIMITED} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.chatTokens); got != 200 {
		t.Errorf("chat_tokens_total = %v, want 200", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := NewCollector(cfg)

	c.RecordRequest("proxy", 200, 100*time.Millisecond, CacheHit)
	c.RecordRateLimited("proxy")
	c.RecordChatTurn("success", 50)

	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("proxy", "200")); got != 0 {
		t.Errorf("disabled collector recorded requests_total = %v", got)
	}
	if agg := c.Aggregates(); agg.TotalRequests != 0 {
		t.Errorf("disabled collector recorded aggregates = %+v", agg)
	}
}
