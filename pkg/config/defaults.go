package config

import (
	"strings"
	"time"

	"github.com/marmos91/sqlrealm/pkg/datasource"
	"github.com/marmos91/sqlrealm/pkg/password"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	cfg.Server.ApplyDefaults()
	applyPasswordDefaults(&cfg.Password)
	applyDataSourceDefaults(cfg)
	applyQueryDefaults(cfg.Queries)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyPasswordDefaults(cfg *PasswordConfig) {
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = password.DefaultBCryptCost
	}
	if cfg.PBKDF2Iterations == 0 {
		cfg.PBKDF2Iterations = password.DefaultPBKDF2Iterations
	}
	defaults := password.DefaultArgon2Params()
	if cfg.Argon2Time == 0 {
		cfg.Argon2Time = defaults.Time
	}
	if cfg.Argon2Memory == 0 {
		cfg.Argon2Memory = defaults.Memory
	}
}

// applyDataSourceDefaults normalizes data source names to lower case, as
// viper does for keys read from files, and applies per-source defaults.
func applyDataSourceDefaults(cfg *Config) {
	if len(cfg.DataSources) == 0 {
		return
	}

	normalized := make(map[string]*datasource.Config, len(cfg.DataSources))
	for name, ds := range cfg.DataSources {
		if ds == nil {
			ds = &datasource.Config{}
		}
		ds.ApplyDefaults()
		normalized[strings.ToLower(name)] = ds
	}
	cfg.DataSources = normalized
}

func applyQueryDefaults(queries []QueryConfig) {
	for i := range queries {
		queries[i].DataSource = strings.ToLower(strings.TrimSpace(queries[i].DataSource))
		for j := range queries[i].Mappers {
			m := &queries[i].Mappers[j]
			m.Type = strings.ToLower(strings.TrimSpace(m.Type))
			m.Algorithm = password.NormalizeAlgorithm(m.Algorithm)
		}
	}
}

// GetDefaultConfig returns a Config with all default values applied and
// no data sources or queries.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// GetSampleConfig returns a runnable example: one SQLite data source and a
// bcrypt query with an email attribute.
func GetSampleConfig(dbPath string) *Config {
	cfg := &Config{
		DataSources: map[string]*datasource.Config{
			"users": {
				Type:   datasource.TypeSQLite,
				SQLite: datasource.SQLiteConfig{Path: dbPath},
			},
		},
		Queries: []QueryConfig{
			{
				DataSource: "users",
				SQL:        "SELECT password_hash, email FROM users WHERE username = ?",
				Mappers: []MapperConfig{
					{Type: MapperPassword, Algorithm: password.AlgorithmBCrypt, HashColumn: 1},
					{Type: MapperAttribute, Name: "email", Column: 2},
				},
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
