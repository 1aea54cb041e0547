package realm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DataSource hands out database connections. Pooling, if any, is the
// DataSource's business.
type DataSource interface {
	Conn(ctx context.Context) (Conn, error)
}

// Conn is a single database connection checked out of a DataSource.
// Close returns it to the DataSource.
type Conn interface {
	Prepare(ctx context.Context, sql string) (Stmt, error)
	Close() error
}

// Stmt is a prepared statement bound to one Conn.
type Stmt interface {
	Query(ctx context.Context, args ...any) (ResultSet, error)
	Close() error
}

// ResultSet iterates over query results. The method set matches *sql.Rows.
type ResultSet interface {
	Next() bool
	Columns() ([]string, error)
	Scan(dest ...any) error
	Err() error
	Close() error
}

// namedDataSource is implemented by data sources that have a configured name.
type namedDataSource interface {
	Name() string
}

// QueryConfiguration binds one authentication query to a data source and
// an ordered list of column mappers.
//
// The SQL must contain exactly one positional parameter, which is bound
// to the identity name. A QueryConfiguration is immutable once created
// and may be shared between goroutines.
type QueryConfiguration struct {
	dataSource DataSource
	sql        string
	mappers    []ColumnMapper
}

// NewQueryConfiguration validates and creates a QueryConfiguration.
func NewQueryConfiguration(ds DataSource, sql string, mappers ...ColumnMapper) (*QueryConfiguration, error) {
	if ds == nil {
		return nil, errors.New("query configuration requires a data source")
	}
	if len(mappers) == 0 {
		return nil, errors.New("query configuration requires at least one column mapper")
	}
	for i, m := range mappers {
		if m == nil {
			return nil, fmt.Errorf("column mapper %d is nil", i)
		}
	}
	if err := CheckParameters(sql); err != nil {
		return nil, fmt.Errorf("authentication query %w: %s", err, sql)
	}

	return &QueryConfiguration{
		dataSource: ds,
		sql:        sql,
		mappers:    append([]ColumnMapper(nil), mappers...),
	}, nil
}

// DataSource returns the configuration's data source.
func (q *QueryConfiguration) DataSource() DataSource {
	return q.dataSource
}

// SQL returns the authentication query text.
func (q *QueryConfiguration) SQL() string {
	return q.sql
}

// Mappers returns a copy of the ordered mapper list.
func (q *QueryConfiguration) Mappers() []ColumnMapper {
	return append([]ColumnMapper(nil), q.mappers...)
}

// dataSourceName returns the data source's name for logging.
func (q *QueryConfiguration) dataSourceName() string {
	if n, ok := q.dataSource.(namedDataSource); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", q.dataSource)
}

// CountParameters counts positional parameters in sql: each "?" counts
// once and each distinct "$N" counts once. Quoted strings, quoted
// identifiers, and comments are skipped.
func CountParameters(sql string) int {
	positional, numbered := scanParameters(sql)
	return positional + len(numbered)
}

// CheckParameters reports an error unless sql binds exactly one
// parameter, written either as "?" or as "$1".
func CheckParameters(sql string) error {
	positional, numbered := scanParameters(sql)
	if n := positional + len(numbered); n != 1 {
		return fmt.Errorf("must have exactly one parameter, found %d", n)
	}
	for n := range numbered {
		if n != 1 {
			return fmt.Errorf("parameter must be $1, found $%d", n)
		}
	}
	return nil
}

// scanParameters returns the number of "?" placeholders and the set of
// distinct "$N" ordinals in sql.
func scanParameters(sql string) (int, map[int]struct{}) {
	count := 0
	numbered := make(map[int]struct{})

	for i := 0; i < len(sql); i++ {
		switch c := sql[i]; c {
		case '\'', '"', '`':
			i = skipQuoted(sql, i, c)
		case '-':
			if i+1 < len(sql) && sql[i+1] == '-' {
				for i < len(sql) && sql[i] != '\n' {
					i++
				}
			}
		case '/':
			if i+1 < len(sql) && sql[i+1] == '*' {
				end := strings.Index(sql[i+2:], "*/")
				if end < 0 {
					return count, numbered
				}
				i += end + 3
			}
		case '?':
			count++
		case '$':
			j := i + 1
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				j++
			}
			if j > i+1 {
				n, _ := strconv.Atoi(sql[i+1 : j])
				numbered[n] = struct{}{}
				i = j - 1
			}
		}
	}

	return count, numbered
}

// skipQuoted returns the index of the closing quote matching sql[start].
// A doubled quote inside the literal is an escaped quote.
func skipQuoted(sql string, start int, quote byte) int {
	for i := start + 1; i < len(sql); i++ {
		if sql[i] != quote {
			continue
		}
		if i+1 < len(sql) && sql[i+1] == quote {
			i++
			continue
		}
		return i
	}
	return len(sql)
}
