package config

import (
	"context"
	"fmt"

	"github.com/marmos91/sqlrealm/internal/logger"
	"github.com/marmos91/sqlrealm/pkg/datasource"
	"github.com/marmos91/sqlrealm/pkg/password"
	"github.com/marmos91/sqlrealm/pkg/realm"
)

// Registry returns the password registry with the configured generation
// parameters.
func (c *PasswordConfig) Registry() *password.Registry {
	params := password.DefaultArgon2Params()
	if c.Argon2Time > 0 {
		params.Time = c.Argon2Time
	}
	if c.Argon2Memory > 0 {
		params.Memory = c.Argon2Memory
	}

	return password.NewRegistry(
		password.ClearFactory{},
		password.NewBCryptFactory(c.BCryptCost),
		password.NewArgon2Factory(params),
		password.NewSHA256Factory(),
		password.NewSHA512Factory(),
		password.NewPBKDF2Factory(c.PBKDF2Iterations),
	)
}

// BuildMapper creates the column mapper described by mc.
func BuildMapper(mc *MapperConfig) (realm.ColumnMapper, error) {
	switch mc.Type {
	case MapperPassword:
		hashEnc, err := realm.ParseEncoding(mc.HashEncoding)
		if err != nil {
			return nil, err
		}
		saltEnc, err := realm.ParseEncoding(mc.SaltEncoding)
		if err != nil {
			return nil, err
		}

		opts := []realm.PasswordMapperOption{realm.WithHashEncoding(hashEnc)}
		if mc.SaltColumn > 0 {
			opts = append(opts, realm.WithSaltColumn(mc.SaltColumn, saltEnc))
		}
		if mc.IterationCountColumn > 0 {
			opts = append(opts, realm.WithIterationCountColumn(mc.IterationCountColumn))
		}
		return realm.NewPasswordKeyMapper(mc.Algorithm, mc.HashColumn, opts...)

	case MapperAttribute:
		return realm.NewAttributeMapper(mc.Name, mc.Column)

	default:
		return nil, fmt.Errorf("unknown mapper type %q", mc.Type)
	}
}

// BuildRealm opens every data source referenced by a query, once, and
// builds the realm over the configured queries in order. The caller owns
// the returned sources and must close them. On error nothing is left open.
func BuildRealm(ctx context.Context, cfg *Config, opts ...realm.Option) (*realm.Realm, datasource.Set, error) {
	sources := make(datasource.Set)
	fail := func(err error) (*realm.Realm, datasource.Set, error) {
		_ = sources.Close()
		return nil, nil, err
	}

	queries := make([]*realm.QueryConfiguration, 0, len(cfg.Queries))
	for i := range cfg.Queries {
		qc := &cfg.Queries[i]

		src, ok := sources[qc.DataSource]
		if !ok {
			dsCfg, found := cfg.DataSources[qc.DataSource]
			if !found {
				return fail(fmt.Errorf("queries[%d]: unknown datasource %q", i, qc.DataSource))
			}
			var err error
			if src, err = datasource.Open(ctx, qc.DataSource, dsCfg); err != nil {
				return fail(err)
			}
			sources[qc.DataSource] = src
		}

		mappers := make([]realm.ColumnMapper, 0, len(qc.Mappers))
		for j := range qc.Mappers {
			m, err := BuildMapper(&qc.Mappers[j])
			if err != nil {
				return fail(fmt.Errorf("queries[%d].mappers[%d]: %w", i, j, err))
			}
			mappers = append(mappers, m)
		}

		q, err := realm.NewQueryConfiguration(src, qc.SQL, mappers...)
		if err != nil {
			return fail(fmt.Errorf("queries[%d]: %w", i, err))
		}
		queries = append(queries, q)
	}

	for name := range cfg.DataSources {
		if _, ok := sources[name]; !ok {
			logger.Warn("Data source not used by any query", logger.DataSource(name))
		}
	}

	allOpts := append([]realm.Option{realm.WithPasswordFactories(cfg.Password.Registry())}, opts...)
	r, err := realm.New(queries, allOpts...)
	if err != nil {
		return fail(err)
	}

	logger.Info("Realm built", "queries", len(queries), "datasources", len(sources))
	return r, sources, nil
}
