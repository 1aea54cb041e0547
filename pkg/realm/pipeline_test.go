package realm

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sqlrealm/internal/logger"
)

const userQuery = "SELECT hash, salt, iterations, email FROM users WHERE name = ?"

func newTestQuery(t *testing.T, ds DataSource, mappers ...ColumnMapper) *QueryConfiguration {
	t.Helper()
	if len(mappers) == 0 {
		m, err := NewPasswordKeyMapper("bcrypt", 1)
		require.NoError(t, err)
		mappers = []ColumnMapper{m}
	}
	q, err := NewQueryConfiguration(ds, userQuery, mappers...)
	require.NoError(t, err)
	return q
}

func TestExecuteQueryReleasesInReverseOrder(t *testing.T) {
	t.Parallel()

	ds := newStub("main", userColumns, []any{"h", nil, nil, nil})
	q := newTestQuery(t, ds)

	got, err := executeQuery(context.Background(), q, "alice", nil, func(rs ResultSet) (int, error) {
		row, err := NextRow(rs)
		if err != nil || row == nil {
			return 0, err
		}
		return row.Len(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, got)

	assert.Equal(t, []string{userQuery}, ds.prepared)
	assert.Equal(t, [][]any{{"alice"}}, ds.queries)
	assert.Equal(t, []string{resourceResultSet, resourceStatement, resourceConnection}, ds.closeOrder)
}

func TestExecuteQueryHandlerErrorClosesEverythingOnce(t *testing.T) {
	t.Parallel()

	ds := newStub("main", userColumns, []any{"h", nil, nil, nil})
	q := newTestQuery(t, ds)
	cause := errors.New("row data unusable")

	_, err := executeQuery(context.Background(), q, "alice", nil, func(ResultSet) (any, error) {
		return nil, cause
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueryProcessing)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, ds.rsCloses)
	assert.Equal(t, 1, ds.stmtCloses)
	assert.Equal(t, 1, ds.connCloses)
}

func TestExecuteQueryHandlerPanicIsProcessingFault(t *testing.T) {
	t.Parallel()

	ds := newStub("main", userColumns, []any{"h", nil, nil, nil})
	q := newTestQuery(t, ds)
	metrics := NewMetrics(prometheus.NewRegistry())

	var (
		result any
		err    error
	)
	require.NotPanics(t, func() {
		result, err = executeQuery(context.Background(), q, "alice", metrics, failingMapper{panic: true}.Map)
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrQueryProcessing)
	assert.Contains(t, err.Error(), "mapper exploded")

	assert.Equal(t, 1, ds.rsCloses)
	assert.Equal(t, 1, ds.stmtCloses)
	assert.Equal(t, 1, ds.connCloses)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("main", "processing_fault")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("main", "ok")))
}

func TestExecuteQueryAcquisitionFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tests := []struct {
		name       string
		setup      func(*stubDataSource)
		connCloses int
		stmtCloses int
	}{
		{"Conn", func(ds *stubDataSource) { ds.connErr = boom }, 0, 0},
		{"Prepare", func(ds *stubDataSource) { ds.prepareErr = boom }, 1, 0},
		{"Query", func(ds *stubDataSource) { ds.queryErr = boom }, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := newStub("main", userColumns)
			tt.setup(ds)
			q := newTestQuery(t, ds)

			_, err := executeQuery(context.Background(), q, "alice", nil, func(ResultSet) (any, error) {
				t.Fatal("handler must not run")
				return nil, nil
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConnectionUnavailable)
			assert.ErrorIs(t, err, boom)

			var realmErr *Error
			require.ErrorAs(t, err, &realmErr)
			assert.Equal(t, userQuery, realmErr.SQL)

			assert.Equal(t, tt.connCloses, ds.connCloses)
			assert.Equal(t, tt.stmtCloses, ds.stmtCloses)
			assert.Zero(t, ds.rsCloses)
		})
	}
}

func TestExecuteQueryCloseFailureDoesNotMaskResult(t *testing.T) {
	buf := new(bytes.Buffer)
	logger.InitWithWriter(buf, "WARN", "text", false)
	t.Cleanup(func() { logger.InitWithWriter(new(bytes.Buffer), "INFO", "text", false) })

	ds := newStub("main", userColumns, []any{"h", nil, nil, nil})
	ds.stmtCloseErr = errors.New("statement already closed")
	ds.connCloseErr = errors.New("broken pipe")
	q := newTestQuery(t, ds)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	t.Run("SuccessStaysSuccess", func(t *testing.T) {
		v, err := executeQuery(context.Background(), q, "alice", metrics, func(ResultSet) (string, error) {
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
	})

	t.Run("PrimaryErrorIsKept", func(t *testing.T) {
		cause := errors.New("primary")
		_, err := executeQuery(context.Background(), q, "alice", metrics, func(ResultSet) (string, error) {
			return "", cause
		})
		assert.ErrorIs(t, err, cause)
		assert.NotContains(t, err.Error(), "broken pipe")
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ReleaseFailuresTotal.WithLabelValues(resourceStatement)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ReleaseFailuresTotal.WithLabelValues(resourceConnection)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ReleaseFailuresTotal.WithLabelValues(resourceResultSet)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("main", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("main", "processing_fault")))

	out := buf.String()
	assert.Contains(t, out, "failed to release database resource")
	assert.Contains(t, out, "resource=statement")
	assert.Contains(t, out, "broken pipe")
}
