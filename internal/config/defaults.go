package config

import (
	"strings"
	"time"

	"github.com/smbdfs/smbd/internal/bytesize"
)

// ApplyDefaults fills zero-valued fields with sensible defaults. It
// runs after Load's Unmarshal so a partially-specified config file
// still ends up complete.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyBackendDefaults(&cfg.Backend)
	applyHandleDefaults(&cfg.Handles)
	applyMetricsDefaults(&cfg.Metrics)
	applyControlPlaneDefaults(&cfg.ControlPlane)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "smbd"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Addr == "" {
		cfg.Addr = ":445"
	}
	if cfg.Name == "" {
		cfg.Name = "SMBD"
	}
	if cfg.MaxRequestsPerConnection == 0 {
		cfg.MaxRequestsPerConnection = 128
	}
	if cfg.MaxMessageSize == 0 {
		cfg.MaxMessageSize = 64 * bytesize.MiB
	}
	if cfg.Timeouts.Read == 0 {
		cfg.Timeouts.Read = 5 * time.Minute
	}
	if cfg.Timeouts.Write == 0 {
		cfg.Timeouts.Write = 30 * time.Second
	}
	if cfg.Timeouts.Idle == 0 {
		cfg.Timeouts.Idle = 5 * time.Minute
	}
	if cfg.Timeouts.Shutdown == 0 {
		cfg.Timeouts.Shutdown = 30 * time.Second
	}
	if cfg.MetricsLogInterval == 0 {
		cfg.MetricsLogInterval = 5 * time.Minute
	}
}

func applyDatabaseDefaults(cfg *DatabaseConfig) {
	if cfg.Kind == "" {
		cfg.Kind = "memory"
	}
	if cfg.Kind == "sql" {
		if cfg.Driver == "" {
			cfg.Driver = "sqlite"
		}
		if cfg.Driver == "sqlite" && cfg.SQLitePath == "" {
			cfg.SQLitePath = "smbd-registry.db"
		}
		if cfg.Driver == "postgres" {
			if cfg.MaxOpenConns == 0 {
				cfg.MaxOpenConns = 25
			}
			if cfg.MaxIdleConns == 0 {
				cfg.MaxIdleConns = 5
			}
		}
	}
}

func applyBackendDefaults(cfg *BackendConfig) {
	if cfg.Kind == "" {
		cfg.Kind = "local"
	}
	if cfg.Kind == "local" {
		if cfg.Local.BasePath == "" {
			cfg.Local.BasePath = "/var/lib/smbd/shares"
		}
		if cfg.Local.DirMode == 0 {
			cfg.Local.DirMode = 0755
		}
		if cfg.Local.FileMode == 0 {
			cfg.Local.FileMode = 0644
		}
	}
}

func applyHandleDefaults(cfg *HandleConfig) {
	if cfg.DurableStore == "" {
		cfg.DurableStore = "memory"
	}
	if cfg.DurableStore == "badger" && cfg.BadgerPath == "" {
		cfg.BadgerPath = "/var/lib/smbd/handles"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Addr == "" {
		cfg.Addr = ":9090"
	}
}

func applyControlPlaneDefaults(cfg *ControlPlaneConfig) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.JWT.AccessTokenDuration == 0 {
		cfg.JWT.AccessTokenDuration = 15 * time.Minute
	}
	if cfg.JWT.RefreshTokenDuration == 0 {
		cfg.JWT.RefreshTokenDuration = 7 * 24 * time.Hour
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
	}
}

// GetDefaultConfig returns a fully-defaulted Config. The result uses the in-memory registry and local-disk
// backend so it runs with no external dependencies.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
