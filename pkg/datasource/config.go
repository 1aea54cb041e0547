package datasource

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Type defines the supported data source backends.
type Type string

const (
	// TypeSQLite opens a SQLite database file through database/sql.
	TypeSQLite Type = "sqlite"

	// TypePostgres opens PostgreSQL through database/sql.
	TypePostgres Type = "postgres"

	// TypePGX opens PostgreSQL through a native pgx connection pool.
	TypePGX Type = "pgx"
)

// MemoryPath is the SQLite path of a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the SQLite database file. It must already exist unless it is
	// MemoryPath.
	Path string `mapstructure:"path" yaml:"path" json:"path"`

	// BusyTimeout is how long a query waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout" json:"busy_timeout,omitempty"`
}

// PostgresConfig contains PostgreSQL-specific configuration, shared by the
// postgres and pgx types.
type PostgresConfig struct {
	Host        string `mapstructure:"host" yaml:"host" json:"host"`
	Port        int    `mapstructure:"port" yaml:"port" json:"port,omitempty"`
	Database    string `mapstructure:"database" yaml:"database" json:"database"`
	User        string `mapstructure:"user" yaml:"user" json:"user"`
	Password    string `mapstructure:"password" yaml:"password,omitempty" json:"password,omitempty"`
	SSLMode     string `mapstructure:"sslmode" yaml:"sslmode" json:"sslmode,omitempty"` // disable, require, verify-ca, verify-full
	SSLRootCert string `mapstructure:"sslrootcert" yaml:"sslrootcert,omitempty" json:"sslrootcert,omitempty"`

	// MaxOpenConns bounds the pool size. Default: 25
	MaxOpenConns int `mapstructure:"max_open_conns" yaml:"max_open_conns" json:"max_open_conns,omitempty"`

	// MaxIdleConns bounds idle connections (postgres type only). Default: 5
	MaxIdleConns int `mapstructure:"max_idle_conns" yaml:"max_idle_conns" json:"max_idle_conns,omitempty"`

	// ConnMaxLifetime recycles connections older than this. Default: 30m
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime" json:"conn_max_lifetime,omitempty"`

	// QueryTimeout is applied as the server-side statement_timeout.
	// Zero disables it.
	QueryTimeout time.Duration `mapstructure:"query_timeout" yaml:"query_timeout,omitempty" json:"query_timeout,omitempty"`
}

// DSN returns the PostgreSQL keyword/value connection string.
func (c *PostgresConfig) DSN() string {
	parts := []string{
		"host=" + quoteDSNValue(c.Host),
		fmt.Sprintf("port=%d", c.Port),
		"user=" + quoteDSNValue(c.User),
		"dbname=" + quoteDSNValue(c.Database),
	}
	if c.Password != "" {
		parts = append(parts, "password="+quoteDSNValue(c.Password))
	}
	if c.SSLMode != "" {
		parts = append(parts, "sslmode="+c.SSLMode)
	}
	if c.SSLRootCert != "" {
		parts = append(parts, "sslrootcert="+quoteDSNValue(c.SSLRootCert))
	}
	if c.QueryTimeout > 0 {
		parts = append(parts, fmt.Sprintf("statement_timeout=%d", c.QueryTimeout.Milliseconds()))
	}
	return strings.Join(parts, " ")
}

// Redacted returns a URL form of the connection target without the password,
// suitable for logs.
func (c *PostgresConfig) Redacted() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.User(c.User),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	return u.String()
}

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Config contains data source configuration.
type Config struct {
	Type     Type           `mapstructure:"type" yaml:"type" json:"type" validate:"omitempty,oneof=sqlite postgres pgx"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite,omitempty" json:"sqlite,omitempty"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres,omitempty" json:"postgres,omitempty"`
}

// IsPostgres reports whether the config targets PostgreSQL.
func (c *Config) IsPostgres() bool {
	return c.Type == TypePostgres || c.Type == TypePGX
}

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = TypeSQLite
	}

	if c.Type == TypeSQLite && c.SQLite.BusyTimeout == 0 {
		c.SQLite.BusyTimeout = 5 * time.Second
	}

	if c.IsPostgres() {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 25
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 5
		}
		if c.Postgres.ConnMaxLifetime == 0 {
			c.Postgres.ConnMaxLifetime = 30 * time.Minute
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Type {
	case TypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case TypePostgres, TypePGX:
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("postgres user is required")
		}
		if c.Postgres.MaxOpenConns < 0 || c.Postgres.MaxIdleConns < 0 {
			return fmt.Errorf("postgres pool sizes must not be negative")
		}
	default:
		return fmt.Errorf("unsupported data source type: %q", c.Type)
	}
	return nil
}
