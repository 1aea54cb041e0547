package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/sqlrealm/pkg/api/auth"
	"github.com/marmos91/sqlrealm/pkg/realm"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and the cross references between
// queries and data sources.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Server.Auth.Enabled && len(cfg.Server.Auth.Secret) < auth.MinSecretLength {
		return fmt.Errorf("server.auth.secret: %w", auth.ErrInvalidSecretLength)
	}

	for name, ds := range cfg.DataSources {
		if ds == nil {
			return fmt.Errorf("datasources.%s: missing configuration", name)
		}
		if err := ds.Validate(); err != nil {
			return fmt.Errorf("datasources.%s: %w", name, err)
		}
	}

	for i := range cfg.Queries {
		if err := validateQuery(cfg, &cfg.Queries[i]); err != nil {
			return fmt.Errorf("queries[%d]: %w", i, err)
		}
	}

	return nil
}

func validateQuery(cfg *Config, q *QueryConfig) error {
	if _, ok := cfg.DataSources[q.DataSource]; !ok {
		return fmt.Errorf("unknown datasource %q", q.DataSource)
	}

	if err := realm.CheckParameters(q.SQL); err != nil {
		return fmt.Errorf("sql %w", err)
	}

	for j := range q.Mappers {
		if _, err := BuildMapper(&q.Mappers[j]); err != nil {
			return fmt.Errorf("mappers[%d]: %w", j, err)
		}
	}
	return nil
}

// Warnings reports configuration that is valid but probably not intended.
func Warnings(cfg *Config) []string {
	var warnings []string

	referenced := make(map[string]bool)
	passwordMappers := 0
	registry := cfg.Password.Registry()

	for i, q := range cfg.Queries {
		referenced[q.DataSource] = true
		for j, m := range q.Mappers {
			if m.Type != MapperPassword {
				continue
			}
			passwordMappers++
			if _, err := registry.ForAlgorithm(m.Algorithm); err != nil {
				warnings = append(warnings, fmt.Sprintf("queries[%d].mappers[%d]: unknown algorithm %q, verification will fail", i, j, m.Algorithm))
			}
		}
	}

	if passwordMappers == 0 {
		warnings = append(warnings, "no password mapper configured - every verification will fail")
	}
	if passwordMappers > 1 {
		warnings = append(warnings, "more than one password mapper configured - only the first is used for verification")
	}

	var unused []string
	for name := range cfg.DataSources {
		if !referenced[name] {
			unused = append(unused, name)
		}
	}
	sort.Strings(unused)
	for _, name := range unused {
		warnings = append(warnings, fmt.Sprintf("datasource %q is not used by any query", name))
	}

	if !cfg.Server.Auth.Enabled {
		warnings = append(warnings, "API authentication disabled - the verify endpoint is open to any client")
	}

	return warnings
}
