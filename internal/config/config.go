package config

import "time"

// Config is the complete gateway configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	HTTP    HTTPConfig    `yaml:"http"`
	Audit   AuditConfig   `yaml:"audit"`
	Log     LogConfig     `yaml:"log"`
}

// BackendConfig holds settings for the LibraryService connection.
type BackendConfig struct {
	Address string `yaml:"address"`

	// CallTimeout bounds each forwarded call. Zero means no deadline.
	CallTimeout time.Duration `yaml:"callTimeout"`

	// WaitForBackend blocks startup until the connection is ready or the
	// duration elapses. Zero connects lazily on the first call.
	WaitForBackend time.Duration `yaml:"waitForBackend"`
}

// HTTPConfig holds the REST listener settings.
type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	MaxBodyBytes   int64         `yaml:"maxBodyBytes"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

// AuditConfig holds call audit log settings. An empty Dir disables the log.
type AuditConfig struct {
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// LogConfig selects the process log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Address: "localhost:50051",
		},
		HTTP: HTTPConfig{
			Port:           4000,
			ReadTimeout:    30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxBodyBytes:   1 << 20,
			AllowedOrigins: []string{"*"},
		},
		Audit: AuditConfig{
			Dir:        "logs",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
