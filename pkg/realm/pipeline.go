package realm

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/marmos91/sqlrealm/internal/logger"
	"github.com/marmos91/sqlrealm/internal/telemetry"
)

// Released resource kinds, used as log field values and metric labels.
const (
	resourceConnection = "connection"
	resourceStatement  = "statement"
	resourceResultSet  = "result_set"
)

// executeQuery runs q for identity name and passes the result set to handle.
//
// The connection, statement and result set are closed in reverse order of
// acquisition before executeQuery returns, whether handle succeeds, fails or
// panics. Acquire, prepare and execute failures are reported as
// ErrConnectionUnavailable; handle failures and panics as ErrQueryProcessing. Close
// failures are logged and counted but never change the returned error.
func executeQuery[T any](ctx context.Context, q *QueryConfiguration, name string, m *Metrics, handle func(ResultSet) (T, error)) (result T, err error) {
	dsName := q.dataSourceName()
	start := time.Now()

	ctx, span := telemetry.StartQuerySpan(ctx, dsName, q.sql)
	defer func() {
		m.ObserveQuery(dsName, time.Since(start), err)
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	conn, err := q.dataSource.Conn(ctx)
	if err != nil {
		return result, newConnectionUnavailableError(q.sql, err)
	}
	defer release(ctx, dsName, m, resourceConnection, conn)

	stmt, err := conn.Prepare(ctx, q.sql)
	if err != nil {
		return result, newConnectionUnavailableError(q.sql, err)
	}
	defer release(ctx, dsName, m, resourceStatement, stmt)

	rs, err := stmt.Query(ctx, name)
	if err != nil {
		return result, newConnectionUnavailableError(q.sql, err)
	}
	defer release(ctx, dsName, m, resourceResultSet, rs)

	result, err = runHandler(handle, rs)
	if err != nil {
		var zero T
		return zero, newQueryProcessingError(q.sql, err)
	}

	logger.DebugCtx(ctx, "authentication query executed",
		logger.KeyDataSource, dsName,
		logger.KeyDurationMs, logger.Duration(start))
	return result, nil
}

// runHandler calls handle, turning a panic into an error.
func runHandler[T any](handle func(ResultSet) (T, error), rs ResultSet) (result T, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero T
			result, err = zero, fmt.Errorf("result handler panicked: %v", p)
		}
	}()
	return handle(rs)
}

func release(ctx context.Context, dataSource string, m *Metrics, resource string, c io.Closer) {
	if err := c.Close(); err != nil {
		m.ObserveReleaseFailure(resource)
		logger.WarnCtx(ctx, "failed to release database resource",
			logger.KeyResource, resource,
			logger.KeyDataSource, dataSource,
			logger.KeyError, err)
	}
}
