package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != "127.0.0.1:8080" {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Forward.Timeout != 15*time.Second {
		t.Errorf("expected 15s forward timeout, got %v", cfg.Forward.Timeout)
	}
	if cfg.Forward.MaxRetries != 2 {
		t.Errorf("expected 2 retries, got %d", cfg.Forward.MaxRetries)
	}
	if cfg.Limits.Chat.MaxPerWindow != 10 {
		t.Errorf("expected chat limit of 10/window, got %d", cfg.Limits.Chat.MaxPerWindow)
	}
	if cfg.Limits.Chat.Window != time.Minute {
		t.Errorf("expected 60s chat window, got %v", cfg.Limits.Chat.Window)
	}
	if cfg.Chat.HistoryLimit != 20 {
		t.Errorf("expected history limit of 20, got %d", cfg.Chat.HistoryLimit)
	}
	if cfg.Chat.SessionIdleTimeout != time.Hour {
		t.Errorf("expected 1h session idle timeout, got %v", cfg.Chat.SessionIdleTimeout)
	}
	if !cfg.Cache.Enabled {
		t.Error("expected cache enabled by default")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.ListenAddress = "0.0.0.0:9999"
	cfg.Limits.Proxy.MaxPerWindow = 5
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Errorf("explicit listen address overwritten: %q", cfg.Server.ListenAddress)
	}
	if cfg.Limits.Proxy.MaxPerWindow != 5 {
		t.Errorf("explicit limit overwritten: %d", cfg.Limits.Proxy.MaxPerWindow)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad listen address",
			mutate:  func(c *Config) { c.Server.ListenAddress = "no-port" },
			wantErr: "server.listen_address",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Forward.MaxRetries = -1 },
			wantErr: "forward.max_retries",
		},
		{
			name:    "unknown limits backend",
			mutate:  func(c *Config) { c.Limits.Storage = "redis" },
			wantErr: "limits.storage",
		},
		{
			name:    "bad provider url",
			mutate:  func(c *Config) { c.Chat.Provider.BaseURL = "://nope" },
			wantErr: "chat.provider.base_url",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Telemetry.Logging.Level = "loud" },
			wantErr: "telemetry.logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		t.Fatalf("default configuration should validate: %v", err)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  listen_address: "0.0.0.0:6078"
limits:
  chat:
    window: 60s
    max_per_window: 10
cache:
  ttl: 90s
chat:
  provider:
    base_url: "https://generativelanguage.example.com/v1"
    model: "gemini-1.5-flash"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:6078" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL)
	}
	if cfg.Chat.Provider.Model != "gemini-1.5-flash" {
		t.Errorf("model = %q", cfg.Chat.Provider.Model)
	}
	// Defaults still fill unset fields.
	if cfg.Forward.Timeout != 15*time.Second {
		t.Errorf("forward timeout = %v", cfg.Forward.Timeout)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  listen_address: \"127.0.0.1:8080\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CORSAIR_SERVER_LISTEN_ADDRESS", "0.0.0.0:9090")
	t.Setenv("CORSAIR_AUTH_SERVICE_TOKEN", "svc-secret")
	t.Setenv("CORSAIR_FORWARD_TIMEOUT", "20s")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("env override not applied: %q", cfg.Server.ListenAddress)
	}
	if cfg.Auth.ServiceToken != "svc-secret" {
		t.Errorf("service token not applied: %q", cfg.Auth.ServiceToken)
	}
	if cfg.Forward.Timeout != 20*time.Second {
		t.Errorf("forward timeout not applied: %v", cfg.Forward.Timeout)
	}
}

func TestLoadConfigWithEnvOverrides_MissingFile(t *testing.T) {
	cfg, err := LoadConfigWithEnvOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:8080" {
		t.Errorf("expected defaults, got %q", cfg.Server.ListenAddress)
	}
}
