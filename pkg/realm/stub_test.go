package realm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// stubDataSource records every call made against it and returns canned
// rows. Failures can be injected at each step.
type stubDataSource struct {
	name    string
	columns []string
	rows    [][]any

	connErr      error
	prepareErr   error
	queryErr     error
	scanErr      error
	connCloseErr error
	stmtCloseErr error
	rsCloseErr   error

	mu           sync.Mutex
	acquisitions int
	prepared     []string
	queries      [][]any
	connCloses   int
	stmtCloses   int
	rsCloses     int
	closeOrder   []string
}

func newStub(name string, columns []string, rows ...[]any) *stubDataSource {
	return &stubDataSource{name: name, columns: columns, rows: rows}
}

func (s *stubDataSource) Name() string { return s.name }

func (s *stubDataSource) Conn(context.Context) (Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquisitions++
	if s.connErr != nil {
		return nil, s.connErr
	}
	return &stubConn{ds: s}, nil
}

func (s *stubDataSource) calls() (acquisitions, queries int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquisitions, len(s.queries)
}

func (s *stubDataSource) recordClose(kind string) {
	s.closeOrder = append(s.closeOrder, kind)
}

type stubConn struct{ ds *stubDataSource }

func (c *stubConn) Prepare(_ context.Context, sql string) (Stmt, error) {
	c.ds.mu.Lock()
	defer c.ds.mu.Unlock()
	c.ds.prepared = append(c.ds.prepared, sql)
	if c.ds.prepareErr != nil {
		return nil, c.ds.prepareErr
	}
	return &stubStmt{ds: c.ds}, nil
}

func (c *stubConn) Close() error {
	c.ds.mu.Lock()
	defer c.ds.mu.Unlock()
	c.ds.connCloses++
	c.ds.recordClose(resourceConnection)
	return c.ds.connCloseErr
}

type stubStmt struct{ ds *stubDataSource }

func (s *stubStmt) Query(_ context.Context, args ...any) (ResultSet, error) {
	s.ds.mu.Lock()
	defer s.ds.mu.Unlock()
	s.ds.queries = append(s.ds.queries, args)
	if s.ds.queryErr != nil {
		return nil, s.ds.queryErr
	}
	return &stubResultSet{ds: s.ds, columns: s.ds.columns, rows: s.ds.rows, pos: -1, scanErr: s.ds.scanErr}, nil
}

func (s *stubStmt) Close() error {
	s.ds.mu.Lock()
	defer s.ds.mu.Unlock()
	s.ds.stmtCloses++
	s.ds.recordClose(resourceStatement)
	return s.ds.stmtCloseErr
}

// stubResultSet iterates over in-memory rows. ds may be nil when the
// result set is used directly by mapper tests.
type stubResultSet struct {
	ds      *stubDataSource
	columns []string
	rows    [][]any
	pos     int
	scanErr error
}

func newResultSet(columns []string, rows ...[]any) *stubResultSet {
	return &stubResultSet{columns: columns, rows: rows, pos: -1}
}

func (r *stubResultSet) Next() bool {
	if r.pos+1 >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *stubResultSet) Columns() ([]string, error) { return r.columns, nil }

func (r *stubResultSet) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	if r.pos < 0 || r.pos >= len(r.rows) {
		return errors.New("scan called without current row")
	}
	row := r.rows[r.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destinations, got %d", len(row), len(dest))
	}
	for i, v := range row {
		p, ok := dest[i].(*any)
		if !ok {
			return fmt.Errorf("unsupported destination %T", dest[i])
		}
		*p = v
	}
	return nil
}

func (r *stubResultSet) Err() error { return nil }

func (r *stubResultSet) Close() error {
	if r.ds == nil {
		return nil
	}
	r.ds.mu.Lock()
	defer r.ds.mu.Unlock()
	r.ds.rsCloses++
	r.ds.recordClose(resourceResultSet)
	return r.ds.rsCloseErr
}

// failingMapper is a KeyMapper whose Map and CredentialSupport fail.
type failingMapper struct {
	err   error
	panic bool
}

func (m failingMapper) Map(ResultSet) (any, error) {
	if m.panic {
		panic("mapper exploded")
	}
	return nil, m.err
}

func (m failingMapper) KeyType() CredentialType { return TypePassword }

func (m failingMapper) Matches(t CredentialType) bool { return TypePassword.Accepts(t) }

func (m failingMapper) CredentialSupport(rs ResultSet) (CredentialSupport, error) {
	_, err := m.Map(rs)
	return Unknown, err
}
