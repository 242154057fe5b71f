package config

import "time"

// Config is the root configuration structure for Corsair.
// It contains all configuration sections for the HTTP server, the request
// forwarder, rate limiting, caching, the chat-completion gateway, and
// telemetry settings.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and CORS settings.
	Server ServerConfig `yaml:"server"`

	// Forward contains configuration for the outbound request forwarder.
	Forward ForwardConfig `yaml:"forward"`

	// Limits contains rate limiting configuration for the proxy and the
	// chat gateway.
	Limits LimitsConfig `yaml:"limits"`

	// Cache contains response cache configuration.
	Cache CacheConfig `yaml:"cache"`

	// Chat contains chat-completion gateway configuration.
	Chat ChatConfig `yaml:"chat"`

	// Auth contains authentication configuration.
	Auth AuthConfig `yaml:"auth"`

	// Blocklist contains blocked-hosts configuration.
	Blocklist BlocklistConfig `yaml:"blocklist"`

	// Telemetry contains observability configuration (logging, metrics).
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Must be generous enough to cover a forwarded request plus
	// its retry budget.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
// Proxied responses always carry these headers so browser callers are not
// bound by the target's own CORS policy.
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods.
	// Default: ["GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers.
	// Default: ["*"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers exposed to clients.
	// Default: ["X-Request-ID", "X-Cache"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the maximum age (in seconds) for preflight cache.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// ForwardConfig contains configuration for the outbound request forwarder.
type ForwardConfig struct {
	// Timeout is the hard wall-clock deadline for a single outbound request.
	// Default: 15s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of additional attempts after the first for
	// transient failures (timeouts, connection refused/reset, DNS errors).
	// Default: 2
	MaxRetries int `yaml:"max_retries"`

	// MaxIdleConns controls the connection pool size.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost controls per-host pooled connections.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle connections are kept in the pool.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`

	// PassCookies, when true, relays Set-Cookie headers from targets to
	// authenticated callers instead of stripping them.
	// Default: false
	PassCookies bool `yaml:"pass_cookies"`
}

// LimitsConfig contains rate limiting configuration.
type LimitsConfig struct {
	// Proxy is the rate limit applied to proxy endpoints, keyed by user id
	// or caller IP.
	Proxy RateLimitConfig `yaml:"proxy"`

	// Chat is the rate limit applied to the chat gateway, keyed by user id.
	Chat RateLimitConfig `yaml:"chat"`

	// Storage selects the rate-limit state backend ("memory" or "sqlite").
	// Default: "memory"
	Storage string `yaml:"storage"`

	// SQLitePath is the database path when Storage is "sqlite".
	// Default: "./corsair-limits.db"
	SQLitePath string `yaml:"sqlite_path"`
}

// RateLimitConfig configures a single keyed fixed-window rate limit.
type RateLimitConfig struct {
	// Window is the window length.
	// Default: 60s
	Window time.Duration `yaml:"window"`

	// MaxPerWindow is the number of requests allowed per window per key.
	// Default: 60 (proxy), 10 (chat)
	MaxPerWindow int `yaml:"max_per_window"`

	// EscalationThreshold is the number of consecutive saturated windows
	// after which the handler switches to the harsher, less specific
	// rate-limit message.
	// Default: 3
	EscalationThreshold int `yaml:"escalation_threshold"`
}

// CacheConfig contains response cache configuration.
type CacheConfig struct {
	// Enabled controls whether GET responses are cached at all.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// TTL is how long cached responses are served before expiring.
	// Default: 60s
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries bounds the cache size; the least recently used entry is
	// evicted past this limit. Zero means unlimited.
	// Default: 1024
	MaxEntries int `yaml:"max_entries"`

	// MaxBodyBytes is the largest response body eligible for caching.
	// Larger bodies are streamed through uncached.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// ChatConfig contains chat-completion gateway configuration.
type ChatConfig struct {
	// Provider contains the completion provider settings.
	Provider ProviderConfig `yaml:"provider"`

	// HistoryLimit is the number of most recent history entries retained
	// per session.
	// Default: 20
	HistoryLimit int `yaml:"history_limit"`

	// SessionIdleTimeout is how long an untouched session survives before
	// the background sweep destroys it.
	// Default: 1h
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
}

// ProviderConfig contains configuration for the completion provider.
type ProviderConfig struct {
	// BaseURL is the provider API endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey is the provider credential. Typically supplied through the
	// CORSAIR_CHAT_PROVIDER_API_KEY environment variable.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier sent with completion requests.
	// Default: "gemini-1.5-pro"
	Model string `yaml:"model"`

	// FallbackModels are tried in order when the configured model is not
	// available from the provider.
	// Default: ["gemini-1.5-flash", "gemini-pro"]
	FallbackModels []string `yaml:"fallback_models"`

	// Timeout is the hard deadline for a provider call.
	// Default: 15s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of additional attempts for transient
	// provider failures.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`
}

// AuthConfig contains authentication configuration.
type AuthConfig struct {
	// ServiceToken is the credential required by the /metrics endpoint.
	// Distinct from per-user authentication.
	ServiceToken string `yaml:"service_token"`

	// UserStoreURL is the base URL of the external user store used to
	// resolve bearer tokens to user ids. Empty disables remote resolution;
	// all callers are then treated as anonymous.
	UserStoreURL string `yaml:"user_store_url"`

	// Timeout is the deadline for token resolution calls.
	// Default: 5s
	Timeout time.Duration `yaml:"timeout"`
}

// BlocklistConfig contains blocked-hosts configuration.
type BlocklistConfig struct {
	// Path is a newline-delimited file of hosts the proxy refuses to
	// forward to. Empty disables the blocklist. The file is watched and
	// reloaded on change.
	Path string `yaml:"path"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging settings.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics settings.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json" or "text").
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled controls whether metrics are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "corsair"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem.
	// Default: "proxy"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets customizes the request duration histogram.
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}
