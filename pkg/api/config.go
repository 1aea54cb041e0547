package api

import (
	"fmt"
	"time"
)

// Config configures the REST API HTTP server.
type Config struct {
	// Port is the HTTP port for the API endpoints.
	// Default: 8080
	Port int `mapstructure:"port" yaml:"port" json:"port,omitempty" validate:"omitempty,min=1,max=65535"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout,omitempty"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout,omitempty"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" json:"idle_timeout,omitempty"`

	// RequestTimeout bounds each request, realm queries included.
	// Default: 30s
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" json:"request_timeout,omitempty"`

	// Auth protects /api/v1 with HMAC-signed bearer tokens.
	Auth AuthConfig `mapstructure:"auth" yaml:"auth" json:"auth,omitempty"`
}

// AuthConfig configures bearer token authentication.
type AuthConfig struct {
	// Enabled requires a valid bearer token on every /api/v1 request.
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled,omitempty"`

	// Secret is the HMAC signing key. Must be at least 32 characters.
	Secret string `mapstructure:"secret" yaml:"secret,omitempty" json:"secret,omitempty" validate:"required_if=Enabled true"`

	// Issuer is checked against the iss claim. Default: "sqlrealm"
	Issuer string `mapstructure:"issuer" yaml:"issuer,omitempty" json:"issuer,omitempty"`
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "sqlrealm"
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
