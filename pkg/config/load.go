package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CORSAIR_SECTION_FIELD (e.g., CORSAIR_SERVER_LISTEN_ADDRESS) and
// always take precedence over file-based configuration.
//
// If the file does not exist, defaults plus environment overrides are used.
// All values are read once at process start; there is no hot reload.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg = &Config{}
		ApplyDefaults(cfg)
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format CORSAIR_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	setString("CORSAIR_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	setDuration("CORSAIR_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("CORSAIR_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("CORSAIR_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)

	// Forwarder overrides
	setDuration("CORSAIR_FORWARD_TIMEOUT", &cfg.Forward.Timeout)
	setInt("CORSAIR_FORWARD_MAX_RETRIES", &cfg.Forward.MaxRetries)
	setBool("CORSAIR_FORWARD_PASS_COOKIES", &cfg.Forward.PassCookies)

	// Rate limit overrides
	setDuration("CORSAIR_LIMITS_PROXY_WINDOW", &cfg.Limits.Proxy.Window)
	setInt("CORSAIR_LIMITS_PROXY_MAX_PER_WINDOW", &cfg.Limits.Proxy.MaxPerWindow)
	setDuration("CORSAIR_LIMITS_CHAT_WINDOW", &cfg.Limits.Chat.Window)
	setInt("CORSAIR_LIMITS_CHAT_MAX_PER_WINDOW", &cfg.Limits.Chat.MaxPerWindow)
	setString("CORSAIR_LIMITS_STORAGE", &cfg.Limits.Storage)
	setString("CORSAIR_LIMITS_SQLITE_PATH", &cfg.Limits.SQLitePath)

	// Cache overrides
	setBool("CORSAIR_CACHE_ENABLED", &cfg.Cache.Enabled)
	setDuration("CORSAIR_CACHE_TTL", &cfg.Cache.TTL)

	// Chat provider overrides
	setString("CORSAIR_CHAT_PROVIDER_BASE_URL", &cfg.Chat.Provider.BaseURL)
	setString("CORSAIR_CHAT_PROVIDER_API_KEY", &cfg.Chat.Provider.APIKey)
	setString("CORSAIR_CHAT_PROVIDER_MODEL", &cfg.Chat.Provider.Model)
	setDuration("CORSAIR_CHAT_PROVIDER_TIMEOUT", &cfg.Chat.Provider.Timeout)

	// Auth overrides
	setString("CORSAIR_AUTH_SERVICE_TOKEN", &cfg.Auth.ServiceToken)
	setString("CORSAIR_AUTH_USER_STORE_URL", &cfg.Auth.UserStoreURL)

	// Blocklist overrides
	setString("CORSAIR_BLOCKLIST_PATH", &cfg.Blocklist.Path)

	// Telemetry overrides
	setString("CORSAIR_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("CORSAIR_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	setBool("CORSAIR_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
}

func setString(env string, dst *string) {
	if val := os.Getenv(env); val != "" {
		*dst = val
	}
}

func setDuration(env string, dst *time.Duration) {
	if val := os.Getenv(env); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func setInt(env string, dst *int) {
	if val := os.Getenv(env); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setBool(env string, dst *bool) {
	if val := os.Getenv(env); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
