package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	ErrMissingBackend = errors.New("backend address is required")
	ErrInvalidPort    = errors.New("http port must be in 1-65535")
)

// Validate enforces basic sanity rules on a loaded configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateBackend(&cfg.Backend); err != nil {
		return fmt.Errorf("backend validation failed: %w", err)
	}
	if err := validateHTTP(&cfg.HTTP); err != nil {
		return fmt.Errorf("http validation failed: %w", err)
	}
	if err := validateAudit(&cfg.Audit); err != nil {
		return fmt.Errorf("audit validation failed: %w", err)
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log validation failed: format %q must be text or json", cfg.Log.Format)
	}

	return nil
}

func validateBackend(b *BackendConfig) error {
	if strings.TrimSpace(b.Address) == "" {
		return ErrMissingBackend
	}
	if b.CallTimeout < 0 {
		return fmt.Errorf("call timeout must be non-negative, got %v", b.CallTimeout)
	}
	if b.WaitForBackend < 0 {
		return fmt.Errorf("wait for backend must be non-negative, got %v", b.WaitForBackend)
	}
	return nil
}

func validateHTTP(h *HTTPConfig) error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("%w, got %d", ErrInvalidPort, h.Port)
	}
	if h.ReadTimeout < 0 || h.WriteTimeout < 0 || h.IdleTimeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	if h.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", h.MaxBodyBytes)
	}
	return nil
}

func validateAudit(a *AuditConfig) error {
	if a.Dir == "" {
		return nil
	}
	if a.MaxSizeMB <= 0 {
		return fmt.Errorf("max size must be positive, got %d", a.MaxSizeMB)
	}
	if a.MaxBackups < 0 || a.MaxAgeDays < 0 {
		return fmt.Errorf("retention values must be non-negative")
	}
	return nil
}

// ParseLevel maps a configured level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
