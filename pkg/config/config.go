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

	"github.com/marmos91/sqlrealm/pkg/api"
	"github.com/marmos91/sqlrealm/pkg/datasource"
)

// Config represents the sqlrealm configuration.
//
// The realm is immutable once built: data sources and queries are read at
// startup and never reloaded.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (SQLREALM_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry" json:"telemetry"`

	// Metrics controls Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Server configures the realm HTTP API
	Server api.Config `mapstructure:"server" yaml:"server" json:"server"`

	// Password configures hash generation for the hash command.
	// Verification always uses the parameters stored with each hash.
	Password PasswordConfig `mapstructure:"password" yaml:"password" json:"password"`

	// DataSources are the named databases queries run against.
	// Names are case-insensitive and normalized to lower case.
	DataSources map[string]*datasource.Config `mapstructure:"datasources" validate:"dive" yaml:"datasources" json:"datasources"`

	// Queries are the authentication queries, scanned in order.
	Queries []QueryConfig `mapstructure:"queries" validate:"dive" yaml:"queries" json:"queries"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level" json:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format" json:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output" json:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`

	// Insecure controls whether to use a non-TLS connection
	Insecure bool `mapstructure:"insecure" yaml:"insecure" json:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate" json:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling" json:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Endpoint is the Pyroscope server URL
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types" json:"profile_types"`
}

// MetricsConfig configures Prometheus metrics. When enabled, realm metrics
// are collected and served at /metrics on the API server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// PasswordConfig holds password generation parameters.
type PasswordConfig struct {
	// BCryptCost is the bcrypt cost. Default: 10
	BCryptCost int `mapstructure:"bcrypt_cost" validate:"omitempty,min=4,max=31" yaml:"bcrypt_cost" json:"bcrypt_cost,omitempty"`

	// PBKDF2Iterations is the pbkdf2-sha256 iteration count. Default: 600000
	PBKDF2Iterations int `mapstructure:"pbkdf2_iterations" validate:"omitempty,min=1" yaml:"pbkdf2_iterations" json:"pbkdf2_iterations,omitempty"`

	// Argon2Time is the argon2id time cost. Default: 3
	Argon2Time uint32 `mapstructure:"argon2_time" yaml:"argon2_time" json:"argon2_time,omitempty"`

	// Argon2Memory is the argon2id memory cost in KiB. Default: 65536
	Argon2Memory uint32 `mapstructure:"argon2_memory" yaml:"argon2_memory" json:"argon2_memory,omitempty"`
}

// QueryConfig is one authentication query.
type QueryConfig struct {
	// DataSource names an entry of DataSources.
	DataSource string `mapstructure:"datasource" validate:"required" yaml:"datasource" json:"datasource"`

	// SQL must take exactly one positional parameter: the identity name.
	SQL string `mapstructure:"sql" validate:"required" yaml:"sql" json:"sql"`

	// Mappers turn the first result row into credentials and attributes.
	Mappers []MapperConfig `mapstructure:"mappers" validate:"required,min=1,dive" yaml:"mappers" json:"mappers"`
}

// Mapper types.
const (
	MapperPassword  = "password"
	MapperAttribute = "attribute"
)

// MapperConfig configures one column mapper. Column ordinals are 1-based.
type MapperConfig struct {
	// Type is "password" or "attribute".
	Type string `mapstructure:"type" validate:"required,oneof=password attribute" yaml:"type" json:"type"`

	// Password mapper fields.
	Algorithm            string `mapstructure:"algorithm" validate:"required_if=Type password" yaml:"algorithm,omitempty" json:"algorithm,omitempty"`
	HashColumn           int    `mapstructure:"hash_column" validate:"required_if=Type password,gte=0" yaml:"hash_column,omitempty" json:"hash_column,omitempty"`
	HashEncoding         string `mapstructure:"hash_encoding" validate:"omitempty,oneof=raw base64 hex" yaml:"hash_encoding,omitempty" json:"hash_encoding,omitempty"`
	SaltColumn           int    `mapstructure:"salt_column" validate:"gte=0" yaml:"salt_column,omitempty" json:"salt_column,omitempty"`
	SaltEncoding         string `mapstructure:"salt_encoding" validate:"omitempty,oneof=raw base64 hex" yaml:"salt_encoding,omitempty" json:"salt_encoding,omitempty"`
	IterationCountColumn int    `mapstructure:"iteration_count_column" validate:"gte=0" yaml:"iteration_count_column,omitempty" json:"iteration_count_column,omitempty"`

	// Attribute mapper fields.
	Name   string `mapstructure:"name" validate:"required_if=Type attribute" yaml:"name,omitempty" json:"name,omitempty"`
	Column int    `mapstructure:"column" validate:"required_if=Type attribute,gte=0" yaml:"column,omitempty" json:"column,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SQLREALM_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath uses the default location. A missing file yields the
// default configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration and returns instructions when the file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  sqlrealm config init\n\n"+
				"Or specify a custom config file:\n"+
				"  sqlrealm <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  sqlrealm config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Config files may contain database passwords and token secrets.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: SQLREALM_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("SQLREALM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook converts strings like "30s", "5m", "1h" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/sqlrealm, ~/.config/sqlrealm, or "."
// when no home directory can be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "sqlrealm")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "sqlrealm")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
