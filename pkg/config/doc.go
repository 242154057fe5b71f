// Package config provides configuration management for Corsair.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. All configuration is read
// once at process start; there is no hot reload.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CORSAIR_SECTION_FIELD.
// For example:
//
//   - CORSAIR_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - CORSAIR_CHAT_PROVIDER_API_KEY overrides chat.provider.api_key
//   - CORSAIR_AUTH_SERVICE_TOKEN overrides auth.service_token
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - server.listen_address: invalid host:port
//	  - limits.proxy.max_per_window: must be positive
package config
