// Package config loads the server's static configuration: logging,
// telemetry, the SMB2 listener, the user/share registry backend, the
// filesystem backend, and the admin control plane. Dynamic
// configuration (shares, users) lives in the registry and is managed
// through smbdctl, not this file.
//
// Configuration sources, in precedence order:
//  1. Environment variables (SMBD_*)
//  2. A YAML (or TOML) configuration file
//  3. Defaults applied by ApplyDefaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/smbdfs/smbd/internal/bytesize"
)

// Config is the top-level server configuration.
type Config struct {
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry" yaml:"telemetry"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Database     DatabaseConfig     `mapstructure:"database" yaml:"database"`
	Backend      BackendConfig      `mapstructure:"backend" yaml:"backend"`
	Handles      HandleConfig       `mapstructure:"handles" yaml:"handles"`
	Metrics      MetricsConfig      `mapstructure:"metrics" yaml:"metrics"`
	ControlPlane ControlPlaneConfig `mapstructure:"controlplane" yaml:"controlplane"`

	// ShutdownTimeout bounds graceful shutdown across every component
	// started from cmd/smbd (SMB listener, control plane, metrics).
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// LoggingConfig controls internal/logx's slog handler.
type LoggingConfig struct {
	// Level is DEBUG, INFO, WARN, or ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	// Format is "text" or "json".
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	// Output is "stdout", "stderr", or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing and Pyroscope
// profiling, both opt-in.
type TelemetryConfig struct {
	Enabled    bool              `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string           `mapstructure:"service_name" yaml:"service_name"`
	Endpoint   string            `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool              `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64           `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig   `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls continuous profiling via pyroscope-go.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// ServerConfig configures the SMB2 listener (internal/smb2/server).
type ServerConfig struct {
	// Addr is the TCP listen address, e.g. ":445" or "0.0.0.0:12445".
	Addr string `mapstructure:"addr" validate:"required" yaml:"addr"`

	// Name is the NetBIOS/DNS server name advertised in NEGOTIATE and
	// answered by the srvsvc pipe's NetrServerGetInfo.
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	MaxConnections           int               `mapstructure:"max_connections" validate:"omitempty,min=0" yaml:"max_connections"`
	MaxRequestsPerConnection int               `mapstructure:"max_requests_per_connection" validate:"omitempty,min=0" yaml:"max_requests_per_connection"`
	MaxMessageSize           bytesize.ByteSize `mapstructure:"max_message_size" yaml:"max_message_size"`
	Timeouts                 TimeoutsConfig    `mapstructure:"timeouts" yaml:"timeouts"`
	MetricsLogInterval       time.Duration     `mapstructure:"metrics_log_interval" yaml:"metrics_log_interval"`
	OplockSweepPeriod        time.Duration     `mapstructure:"oplock_sweep_period" yaml:"oplock_sweep_period"`
}

// TimeoutsConfig groups connection-lifecycle deadlines.
type TimeoutsConfig struct {
	Read     time.Duration `mapstructure:"read" yaml:"read"`
	Write    time.Duration `mapstructure:"write" yaml:"write"`
	Idle     time.Duration `mapstructure:"idle" yaml:"idle"`
	Shutdown time.Duration `mapstructure:"shutdown" validate:"omitempty,gt=0" yaml:"shutdown"`
}

// DatabaseConfig configures the user/share registry.
type DatabaseConfig struct {
	// Kind is "memory" (ephemeral, for tests/dev) or "sql".
	Kind string `mapstructure:"kind" validate:"required,oneof=memory sql" yaml:"kind"`

	// Driver selects the SQL dialect when Kind is "sql".
	Driver string `mapstructure:"driver" validate:"omitempty,oneof=sqlite postgres" yaml:"driver"`

	SQLitePath    string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN   string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	MaxOpenConns  int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns  int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	RunMigrations bool   `mapstructure:"run_migrations" yaml:"run_migrations"`
}

// BackendConfig selects and configures the default filesystem backend
// new shares are created against.
type BackendConfig struct {
	// Kind is "local" or "s3".
	Kind  string            `mapstructure:"kind" validate:"required,oneof=local s3" yaml:"kind"`
	Local LocalBackendConfig `mapstructure:"local" yaml:"local"`
	S3    S3BackendConfig    `mapstructure:"s3" yaml:"s3"`
}

// LocalBackendConfig configures fsbackend/local.
type LocalBackendConfig struct {
	BasePath  string      `mapstructure:"base_path" yaml:"base_path"`
	CreateDir bool        `mapstructure:"create_dir" yaml:"create_dir"`
	DirMode   os.FileMode `mapstructure:"dir_mode" yaml:"dir_mode"`
	FileMode  os.FileMode `mapstructure:"file_mode" yaml:"file_mode"`
}

// S3BackendConfig configures fsbackend/s3backend.
type S3BackendConfig struct {
	Bucket         string `mapstructure:"bucket" yaml:"bucket"`
	Region         string `mapstructure:"region" yaml:"region"`
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint"`
	KeyPrefix      string `mapstructure:"key_prefix" yaml:"key_prefix"`
	ForcePathStyle bool   `mapstructure:"force_path_style" yaml:"force_path_style"`
}

// HandleConfig configures the durable handle table's persistence.
type HandleConfig struct {
	// DurableStore is "memory" or "badger".
	DurableStore string `mapstructure:"durable_store" validate:"required,oneof=memory badger" yaml:"durable_store"`
	BadgerPath   string `mapstructure:"badger_path" yaml:"badger_path"`
}

// MetricsConfig configures the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// ControlPlaneConfig configures the chi-based admin API.
type ControlPlaneConfig struct {
	Enabled bool      `mapstructure:"enabled" yaml:"enabled"`
	Addr    string    `mapstructure:"addr" yaml:"addr"`
	JWT     JWTConfig `mapstructure:"jwt" yaml:"jwt"`

	// AdminUsername and AdminPasswordHash authenticate the single admin
	// identity the control plane's /auth/login endpoint accepts.
	// AdminPasswordHash is a bcrypt hash, never a plaintext password;
	// `smbdctl controlplane bootstrap-admin` generates both.
	AdminUsername     string `mapstructure:"admin_username" yaml:"admin_username"`
	AdminPasswordHash string `mapstructure:"admin_password_hash" yaml:"admin_password_hash"`
}

// JWTConfig configures bearer-token auth for the control plane.
type JWTConfig struct {
	// Secret is the HMAC signing key. Can also be set via
	// SMBD_CONTROLPLANE_JWT_SECRET, which takes precedence.
	Secret               string        `mapstructure:"secret" yaml:"secret"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" yaml:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" yaml:"refresh_token_duration"`
}

// EnvControlPlaneSecret is the environment variable consulted for the
// control plane's JWT secret, overriding any value from the config
// file so it never needs to be committed to disk.
const EnvControlPlaneSecret = "SMBD_CONTROLPLANE_JWT_SECRET"

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal regardless of whether a config file was found. viper's
	// AutomaticEnv only overrides keys it already knows from the config
	// file, so on a file-less install no SMBD_* variable is applied here;
	// the control plane secret below is read from the environment directly.
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	ApplyDefaults(&cfg)

	if secret := os.Getenv(EnvControlPlaneSecret); secret != "" {
		cfg.ControlPlane.JWT.Secret = secret
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes cfg to path in YAML form, respecting yaml tags.
func SaveConfig(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("config: failed to create directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: failed to write file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("SMBD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: failed to read file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook lets config files write human-readable sizes
// ("64MB", "1Gi") for any bytesize.ByteSize field.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "smbd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "smbd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the
// default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
