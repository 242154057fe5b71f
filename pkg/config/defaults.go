package config

import "time"

// ApplyDefaults fills in default values for any unset configuration fields.
// It is called by LoadConfig before validation so that a minimal (or empty)
// configuration file still yields a runnable server.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = 1 << 20
	}

	// CORS defaults
	if len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.Server.CORS.AllowedMethods) == 0 {
		cfg.Server.CORS.AllowedMethods = []string{
			"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS",
		}
	}
	if len(cfg.Server.CORS.AllowedHeaders) == 0 {
		cfg.Server.CORS.AllowedHeaders = []string{"*"}
	}
	if len(cfg.Server.CORS.ExposedHeaders) == 0 {
		cfg.Server.CORS.ExposedHeaders = []string{"X-Request-ID", "X-Cache"}
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = 3600
	}

	// Forwarder defaults
	if cfg.Forward.Timeout == 0 {
		cfg.Forward.Timeout = 15 * time.Second
	}
	if cfg.Forward.MaxRetries == 0 {
		cfg.Forward.MaxRetries = 2
	}
	if cfg.Forward.MaxIdleConns == 0 {
		cfg.Forward.MaxIdleConns = 100
	}
	if cfg.Forward.MaxIdleConnsPerHost == 0 {
		cfg.Forward.MaxIdleConnsPerHost = 10
	}
	if cfg.Forward.IdleConnTimeout == 0 {
		cfg.Forward.IdleConnTimeout = 90 * time.Second
	}

	// Rate limit defaults
	if cfg.Limits.Proxy.Window == 0 {
		cfg.Limits.Proxy.Window = time.Minute
	}
	if cfg.Limits.Proxy.MaxPerWindow == 0 {
		cfg.Limits.Proxy.MaxPerWindow = 60
	}
	if cfg.Limits.Proxy.EscalationThreshold == 0 {
		cfg.Limits.Proxy.EscalationThreshold = 3
	}
	if cfg.Limits.Chat.Window == 0 {
		cfg.Limits.Chat.Window = time.Minute
	}
	if cfg.Limits.Chat.MaxPerWindow == 0 {
		cfg.Limits.Chat.MaxPerWindow = 10
	}
	if cfg.Limits.Chat.EscalationThreshold == 0 {
		cfg.Limits.Chat.EscalationThreshold = 3
	}
	if cfg.Limits.Storage == "" {
		cfg.Limits.Storage = "memory"
	}
	if cfg.Limits.SQLitePath == "" {
		cfg.Limits.SQLitePath = "./corsair-limits.db"
	}

	// Cache defaults
	if cfg.Cache.TTL == 0 {
		cfg.Cache.Enabled = true
		cfg.Cache.TTL = time.Minute
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 1024
	}
	if cfg.Cache.MaxBodyBytes == 0 {
		cfg.Cache.MaxBodyBytes = 1 << 20
	}

	// Chat defaults
	if cfg.Chat.HistoryLimit == 0 {
		cfg.Chat.HistoryLimit = 20
	}
	if cfg.Chat.SessionIdleTimeout == 0 {
		cfg.Chat.SessionIdleTimeout = time.Hour
	}
	if cfg.Chat.Provider.Model == "" {
		cfg.Chat.Provider.Model = "gemini-1.5-pro"
	}
	if cfg.Chat.Provider.FallbackModels == nil {
		cfg.Chat.Provider.FallbackModels = []string{"gemini-1.5-flash", "gemini-pro"}
	}
	if cfg.Chat.Provider.Timeout == 0 {
		cfg.Chat.Provider.Timeout = 15 * time.Second
	}
	if cfg.Chat.Provider.MaxRetries == 0 {
		cfg.Chat.Provider.MaxRetries = 2
	}

	// Auth defaults
	if cfg.Auth.Timeout == 0 {
		cfg.Auth.Timeout = 5 * time.Second
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Enabled = true
		cfg.Telemetry.Metrics.Namespace = "corsair"
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = "proxy"
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = []float64{
			0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 15.0, 30.0,
		}
	}
}
