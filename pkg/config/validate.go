package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together rather than failing on the first.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateForward(&cfg.Forward)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateChat(&cfg.Chat)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "field is required"})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{"server.listen_address", fmt.Sprintf("invalid host:port: %v", err)})
	}

	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{"server.shutdown_timeout", "must not be negative"})
	}

	return errs
}

func validateForward(cfg *ForwardConfig) []FieldError {
	var errs []FieldError

	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{"forward.timeout", "must be positive"})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{"forward.max_retries", "must not be negative"})
	}

	return errs
}

func validateLimits(cfg *LimitsConfig) []FieldError {
	var errs []FieldError

	for name, rl := range map[string]*RateLimitConfig{
		"limits.proxy": &cfg.Proxy,
		"limits.chat":  &cfg.Chat,
	} {
		if rl.Window <= 0 {
			errs = append(errs, FieldError{name + ".window", "must be positive"})
		}
		if rl.MaxPerWindow <= 0 {
			errs = append(errs, FieldError{name + ".max_per_window", "must be positive"})
		}
	}

	switch cfg.Storage {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{"limits.storage", fmt.Sprintf("unknown backend %q (expected \"memory\" or \"sqlite\")", cfg.Storage)})
	}

	if cfg.Storage == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{"limits.sqlite_path", "field is required when storage is \"sqlite\""})
	}

	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.TTL <= 0 {
		errs = append(errs, FieldError{"cache.ttl", "must be positive when cache is enabled"})
	}
	if cfg.MaxEntries < 0 {
		errs = append(errs, FieldError{"cache.max_entries", "must not be negative"})
	}

	return errs
}

func validateChat(cfg *ChatConfig) []FieldError {
	var errs []FieldError

	if cfg.HistoryLimit <= 0 {
		errs = append(errs, FieldError{"chat.history_limit", "must be positive"})
	}
	if cfg.SessionIdleTimeout <= 0 {
		errs = append(errs, FieldError{"chat.session_idle_timeout", "must be positive"})
	}
	if cfg.Provider.BaseURL != "" {
		if _, err := url.ParseRequestURI(cfg.Provider.BaseURL); err != nil {
			errs = append(errs, FieldError{"chat.provider.base_url", fmt.Sprintf("invalid URL: %v", err)})
		}
	}
	if cfg.Provider.Timeout <= 0 {
		errs = append(errs, FieldError{"chat.provider.timeout", "must be positive"})
	}

	return errs
}

func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	if cfg.UserStoreURL != "" {
		if _, err := url.ParseRequestURI(cfg.UserStoreURL); err != nil {
			errs = append(errs, FieldError{"auth.user_store_url", fmt.Sprintf("invalid URL: %v", err)})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("unknown level %q", cfg.Logging.Level)})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("unknown format %q", cfg.Logging.Format)})
	}

	return errs
}
