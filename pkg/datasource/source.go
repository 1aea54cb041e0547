package datasource

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/marmos91/sqlrealm/internal/logger"
	"github.com/marmos91/sqlrealm/pkg/realm"
)

type backend interface {
	realm.DataSource
	Ping(ctx context.Context) error
	Close() error
}

// Source is a named, opened data source. It implements realm.DataSource.
type Source struct {
	name    string
	kind    Type
	backend backend
}

// Open applies defaults to cfg, validates it and connects.
func Open(ctx context.Context, name string, cfg *Config) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("data source %q: %w", name, err)
	}

	var (
		b   backend
		err error
	)
	switch cfg.Type {
	case TypePGX:
		b, err = openPGX(ctx, &cfg.Postgres)
	default:
		b, err = openSQL(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("data source %q: %w", name, err)
	}

	logger.Info("Data source opened",
		logger.DataSource(name),
		logger.KeyDriver, string(cfg.Type),
		logger.KeyAddress, target(cfg))

	return &Source{name: name, kind: cfg.Type, backend: b}, nil
}

func target(cfg *Config) string {
	if cfg.IsPostgres() {
		return cfg.Postgres.Redacted()
	}
	return cfg.SQLite.Path
}

// Conn checks a connection out of the source.
func (s *Source) Conn(ctx context.Context) (realm.Conn, error) {
	return s.backend.Conn(ctx)
}

// Name returns the configured name.
func (s *Source) Name() string {
	return s.name
}

// Type returns the backend type.
func (s *Source) Type() Type {
	return s.kind
}

// Ping checks the database is reachable.
func (s *Source) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// GORM returns the GORM handle for database/sql backed sources, or nil
// for pgx sources.
func (s *Source) GORM() *gorm.DB {
	if b, ok := s.backend.(*sqlBackend); ok {
		return b.gdb
	}
	return nil
}

// Close closes the underlying pool.
func (s *Source) Close() error {
	return s.backend.Close()
}

// Set is a collection of named sources.
type Set map[string]*Source

// OpenAll opens every configured source. On failure the sources already
// opened are closed.
func OpenAll(ctx context.Context, configs map[string]*Config) (Set, error) {
	set := make(Set, len(configs))
	for name, cfg := range configs {
		src, err := Open(ctx, name, cfg)
		if err != nil {
			_ = set.Close()
			return nil, err
		}
		set[name] = src
	}
	return set, nil
}

// Ping pings every source and returns the failures by name.
func (s Set) Ping(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for name, src := range s {
		if err := src.Ping(ctx); err != nil {
			failures[name] = err
		}
	}
	return failures
}

// Close closes every source and returns the first error.
func (s Set) Close() error {
	var first error
	for name, src := range s {
		if err := src.Close(); err != nil {
			logger.Warn("Failed to close data source", logger.DataSource(name), logger.Err(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
