package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marmos91/sqlrealm/pkg/realm"
)

// deallocateTimeout bounds the DEALLOCATE issued when a statement is closed.
const deallocateTimeout = 5 * time.Second

// pgxBackend serves realm queries from a native pgx pool. Each prepared
// statement gets a unique name and is deallocated when closed, so nothing
// outlives one query on the pooled connection.
type pgxBackend struct {
	pool *pgxpool.Pool
}

func openPGX(ctx context.Context, cfg *PostgresConfig) (*pgxBackend, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &pgxBackend{pool: pool}, nil
}

func (b *pgxBackend) Conn(ctx context.Context) (realm.Conn, error) {
	c, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: c}, nil
}

func (b *pgxBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func (b *pgxBackend) Close() error {
	b.pool.Close()
	return nil
}

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c *pgxConn) Prepare(ctx context.Context, sql string) (realm.Stmt, error) {
	name := "sqlrealm_" + uuid.NewString()
	if _, err := c.conn.Conn().Prepare(ctx, name, sql); err != nil {
		return nil, err
	}
	return &pgxStmt{conn: c.conn, name: name}, nil
}

// Close returns the connection to the pool.
func (c *pgxConn) Close() error {
	c.conn.Release()
	return nil
}

type pgxStmt struct {
	conn *pgxpool.Conn
	name string
}

func (s *pgxStmt) Query(ctx context.Context, args ...any) (realm.ResultSet, error) {
	rows, err := s.conn.Query(ctx, s.name, args...)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

func (s *pgxStmt) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), deallocateTimeout)
	defer cancel()
	return s.conn.Conn().Deallocate(ctx, s.name)
}

// pgxRows adapts pgx.Rows to realm.ResultSet.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool {
	return r.rows.Next()
}

func (r *pgxRows) Columns() ([]string, error) {
	fields := r.rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names, nil
}

// Scan supports *any destinations only, which is all realm.NextRow uses.
func (r *pgxRows) Scan(dest ...any) error {
	values, err := r.rows.Values()
	if err != nil {
		return err
	}
	if len(dest) != len(values) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(values), len(dest))
	}
	for i, v := range values {
		p, ok := dest[i].(*any)
		if !ok {
			return fmt.Errorf("unsupported Scan destination %T", dest[i])
		}
		*p = v
	}
	return nil
}

func (r *pgxRows) Err() error {
	return r.rows.Err()
}

func (r *pgxRows) Close() error {
	r.rows.Close()
	return nil
}
