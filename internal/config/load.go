//
//
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultConfigFile is read when GATEWAY_CONFIG is unset and the file exists.
	DefaultConfigFile = "config/gateway.yaml"

	// DotEnvFile is loaded into the environment when present. Variables
	// already set in the process environment win.
	DotEnvFile = ".env"
)

// Load merges Default() + optional YAML file + .env + environment overrides,
// then validates the result.
func Load() (*Config, error) {
	// Load .env into the process environment if it exists
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	// Start with built-in defaults
	cfg := Default()

	// Try the configured YAML file, then the default one if it exists
	path := os.Getenv("GATEWAY_CONFIG")
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate the final configuration
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile reads a YAML file on top of Default() without consulting the
// environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies the gateway's environment variables. GRPC_HOST
// and PORT keep the names the deployment already uses.
func applyEnvOverrides(cfg *Config) {
	// Backend connection
	if val := os.Getenv("GRPC_HOST"); val != "" {
		cfg.Backend.Address = val
	}
	if val := os.Getenv("GATEWAY_CALL_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Backend.CallTimeout = d
		}
	}
	if val := os.Getenv("GATEWAY_WAIT_FOR_BACKEND"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Backend.WaitForBackend = d
		}
	}

	// HTTP listener
	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.HTTP.Port = port
		}
	}
	if val := os.Getenv("GATEWAY_HTTP_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.HTTP.ReadTimeout = d
		}
	}
	if val := os.Getenv("GATEWAY_HTTP_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.HTTP.WriteTimeout = d
		}
	}
	if val := os.Getenv("GATEWAY_HTTP_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.HTTP.IdleTimeout = d
		}
	}
	if val := os.Getenv("GATEWAY_MAX_BODY_BYTES"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.HTTP.MaxBodyBytes = n
		}
	}
	if val := os.Getenv("GATEWAY_ALLOWED_ORIGINS"); val != "" {
		cfg.HTTP.AllowedOrigins = splitList(val)
	}

	// Audit log (an explicitly empty dir disables it)
	if val, ok := os.LookupEnv("GATEWAY_AUDIT_DIR"); ok {
		cfg.Audit.Dir = val
	}
	if val := os.Getenv("GATEWAY_AUDIT_MAX_SIZE_MB"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Audit.MaxSizeMB = n
		}
	}
	if val := os.Getenv("GATEWAY_AUDIT_MAX_BACKUPS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Audit.MaxBackups = n
		}
	}
	if val := os.Getenv("GATEWAY_AUDIT_MAX_AGE_DAYS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Audit.MaxAgeDays = n
		}
	}

	// Process logging
	if val := os.Getenv("GATEWAY_LOG_LEVEL"); val != "" {
		cfg.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("GATEWAY_LOG_FORMAT"); val != "" {
		cfg.Log.Format = strings.ToLower(val)
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.HTTP.Port)
}
