package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"unblock-hq/corsair/pkg/config"
)

// Cache lookup outcomes recorded per proxied request.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
	CacheNone   = "none"
)

// Collector records request metrics twice over: into a Prometheus
// registry for scraping, and into running counters backing the JSON
// aggregate endpoint.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	// Prometheus metrics
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheEvents     *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	chatTurns       *prometheus.CounterVec
	chatTokens      prometheus.Counter

	// mu protects the aggregate counters
	mu            sync.Mutex
	total         int64
	successful    int64
	failed        int64
	cached        int64
	totalDuration time.Duration
}

// Aggregates is the JSON shape served by the operator metrics endpoint.
type Aggregates struct {
	TotalRequests       int64   `json:"total_requests"`
	SuccessfulRequests  int64   `json:"successful_requests"`
	FailedRequests      int64   `json:"failed_requests"`
	CachedResponses     int64   `json:"cached_responses"`
	AverageResponseTime float64 `json:"average_response_time"`
	SuccessRate         float64 `json:"success_rate"`
	CacheHitRate        float64 `json:"cache_hit_rate"`
}

// NewCollector creates a collector registered against its own registry.
func NewCollector(cfg config.MetricsConfig) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		config:   cfg,
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of proxied requests",
			},
			[]string{"endpoint", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of proxied requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"endpoint"},
		),

		cacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_events_total",
				Help:      "Response cache lookups by result",
			},
			[]string{"result"},
		),

		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rate_limited_total",
				Help:      "Requests refused by the rate limiter",
			},
			[]string{"scope"},
		),

		chatTurns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "chat_turns_total",
				Help:      "Chat gateway turns by outcome",
			},
			[]string{"outcome"},
		),

		chatTokens: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "chat_tokens_total",
				Help:      "Total tokens reported by the completion provider",
			},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.cacheEvents,
		c.rateLimited,
		c.chatTurns,
		c.chatTokens,
	)

	return c
}

// RecordRequest records one completed request on an endpoint.
// cacheResult is one of CacheHit, CacheMiss, CacheBypass, or CacheNone
// for endpoints the cache does not apply to.
func (c *Collector) RecordRequest(endpoint string, status int, duration time.Duration, cacheResult string) {
	if !c.config.Enabled {
		return
	}

	c.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if cacheResult != CacheNone {
		c.cacheEvents.WithLabelValues(cacheResult).Inc()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	c.totalDuration += duration
	if status < 500 {
		c.successful++
	} else {
		c.failed++
	}
	if cacheResult == CacheHit {
		c.cached++
	}
}

// RecordRateLimited records a request refused by the limiter for a scope
// ("proxy" or "chat").
func (c *Collector) RecordRateLimited(scope string) {
	if !c.config.Enabled {
		return
	}
	c.rateLimited.WithLabelValues(scope).Inc()
}

// RecordChatTurn records one chat gateway turn. outcome is "success" or
// the error type; tokens may be zero when the provider reports none.
func (c *Collector) RecordChatTurn(outcome string, tokens int) {
	if !c.config.Enabled {
		return
	}
	c.chatTurns.WithLabelValues(outcome).Inc()
	if tokens > 0 {
		c.chatTokens.Add(float64(tokens))
	}
}

// Aggregates returns the running counters as the JSON aggregate shape.
// average_response_time is in seconds; rates are in [0, 1].
func (c *Collector) Aggregates() Aggregates {
	c.mu.Lock()
	defer c.mu.Unlock()

	agg := Aggregates{
		TotalRequests:      c.total,
		SuccessfulRequests: c.successful,
		FailedRequests:     c.failed,
		CachedResponses:    c.cached,
	}
	if c.total > 0 {
		agg.AverageResponseTime = c.totalDuration.Seconds() / float64(c.total)
		agg.SuccessRate = float64(c.successful) / float64(c.total)
		agg.CacheHitRate = float64(c.cached) / float64(c.total)
	}
	return agg
}

// Registry returns the Prometheus registry for the scrape endpoint.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
