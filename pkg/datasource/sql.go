package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/sqlrealm/pkg/realm"
)

// sqlBackend serves realm queries from a database/sql pool opened through
// a GORM dialector.
type sqlBackend struct {
	gdb *gorm.DB
	db  *sql.DB
}

func openSQL(ctx context.Context, cfg *Config) (*sqlBackend, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case TypeSQLite:
		dsn, err := sqliteDSN(&cfg.SQLite)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	case TypePostgres:
		dialector = postgres.Open(cfg.Postgres.DSN())
	default:
		return nil, fmt.Errorf("unsupported database/sql type: %q", cfg.Type)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}

	switch {
	case cfg.Type == TypePostgres:
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
	case cfg.SQLite.Path == MemoryPath:
		// Every new connection would see a different empty database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &sqlBackend{gdb: gdb, db: db}, nil
}

func sqliteDSN(cfg *SQLiteConfig) (string, error) {
	timeout := fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.BusyTimeout.Milliseconds())
	if cfg.Path == MemoryPath {
		return MemoryPath + "?" + timeout, nil
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return "", fmt.Errorf("sqlite database %q: %w", cfg.Path, err)
	}
	return cfg.Path + "?_pragma=journal_mode(WAL)&" + timeout, nil
}

func (b *sqlBackend) Conn(ctx context.Context) (realm.Conn, error) {
	c, err := b.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: c}, nil
}

func (b *sqlBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *sqlBackend) Close() error {
	return b.db.Close()
}

type sqlConn struct {
	conn *sql.Conn
}

func (c *sqlConn) Prepare(ctx context.Context, query string) (realm.Stmt, error) {
	stmt, err := c.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &sqlStmt{stmt: stmt}, nil
}

func (c *sqlConn) Close() error {
	return c.conn.Close()
}

type sqlStmt struct {
	stmt *sql.Stmt
}

// Query returns the *sql.Rows directly; its method set is realm.ResultSet.
func (s *sqlStmt) Query(ctx context.Context, args ...any) (realm.ResultSet, error) {
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *sqlStmt) Close() error {
	return s.stmt.Close()
}
