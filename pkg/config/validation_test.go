package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sqlrealm/pkg/datasource"
)

func validConfig() *Config {
	return GetSampleConfig(datasource.MemoryPath)
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, Validate(GetDefaultConfig()))
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_Nil(t *testing.T) {
	assert.Error(t, Validate(nil))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"invalid log level", func(c *Config) { c.Logging.Level = "INVALID" }, "oneof"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "oneof"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "max"},
		{"sample rate out of range", func(c *Config) { c.Telemetry.SampleRate = 1.5 }, "lte"},
		{"bcrypt cost too high", func(c *Config) { c.Password.BCryptCost = 40 }, "max"},
		{"auth without secret", func(c *Config) { c.Server.Auth.Enabled = true }, "required_if"},
		{"auth with short secret", func(c *Config) {
			c.Server.Auth.Enabled = true
			c.Server.Auth.Secret = "short"
		}, "at least 32 characters"},
		{"unknown datasource type", func(c *Config) { c.DataSources["users"].Type = "oracle" }, "oneof"},
		{"missing sqlite path", func(c *Config) { c.DataSources["users"].SQLite.Path = "" }, "sqlite path is required"},
		{"nil datasource", func(c *Config) { c.DataSources["empty"] = nil }, "missing configuration"},
		{"unknown query datasource", func(c *Config) { c.Queries[0].DataSource = "nope" }, `unknown datasource "nope"`},
		{"missing sql", func(c *Config) { c.Queries[0].SQL = "" }, "required"},
		{"two parameters", func(c *Config) {
			c.Queries[0].SQL = "SELECT h FROM u WHERE name = ? AND realm = ?"
		}, "exactly one parameter, found 2"},
		{"numbered parameter other than first", func(c *Config) {
			c.Queries[0].SQL = "SELECT h FROM u WHERE name = $2"
		}, "parameter must be $1, found $2"},
		{"no parameter", func(c *Config) { c.Queries[0].SQL = "SELECT h FROM u WHERE name = '?'" }, "found 0"},
		{"no mappers", func(c *Config) { c.Queries[0].Mappers = nil }, "required"},
		{"unknown mapper type", func(c *Config) { c.Queries[0].Mappers[0].Type = "certificate" }, "oneof"},
		{"password mapper without algorithm", func(c *Config) { c.Queries[0].Mappers[0].Algorithm = "" }, "required_if"},
		{"password mapper without hash column", func(c *Config) { c.Queries[0].Mappers[0].HashColumn = 0 }, "required_if"},
		{"negative salt column", func(c *Config) { c.Queries[0].Mappers[0].SaltColumn = -1 }, "gte"},
		{"bad encoding", func(c *Config) { c.Queries[0].Mappers[0].HashEncoding = "base32" }, "oneof"},
		{"attribute without name", func(c *Config) { c.Queries[0].Mappers[1].Name = "" }, "required_if"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWarnings(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, []string{"API authentication disabled - the verify endpoint is open to any client"}, Warnings(cfg))

	cfg.Server.Auth.Enabled = true
	cfg.Queries[0].Mappers[0].Algorithm = "md5-crypt"
	cfg.DataSources["spare"] = &datasource.Config{Type: datasource.TypeSQLite, SQLite: datasource.SQLiteConfig{Path: "x.db"}}

	warnings := Warnings(cfg)
	assert.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], `unknown algorithm "md5-crypt"`)
	assert.Contains(t, warnings[1], `datasource "spare" is not used`)

	cfg.Queries[0].Mappers = cfg.Queries[0].Mappers[1:]
	assert.Contains(t, Warnings(cfg), "no password mapper configured - every verification will fail")
}

func TestApplyDefaults_Normalizes(t *testing.T) {
	cfg := &Config{
		DataSources: map[string]*datasource.Config{
			"Main": {SQLite: datasource.SQLiteConfig{Path: "x.db"}},
			"nil":  nil,
		},
		Queries: []QueryConfig{{
			DataSource: " MAIN ",
			Mappers:    []MapperConfig{{Type: "Password", Algorithm: " BCRYPT "}},
		}},
	}
	ApplyDefaults(cfg)

	require.Contains(t, cfg.DataSources, "main")
	assert.Equal(t, datasource.TypeSQLite, cfg.DataSources["main"].Type)
	require.NotNil(t, cfg.DataSources["nil"])
	assert.Equal(t, "main", cfg.Queries[0].DataSource)
	assert.Equal(t, MapperPassword, cfg.Queries[0].Mappers[0].Type)
	assert.Equal(t, "bcrypt", cfg.Queries[0].Mappers[0].Algorithm)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)
	assert.NotEmpty(t, cfg.Telemetry.Profiling.ProfileTypes)
}
