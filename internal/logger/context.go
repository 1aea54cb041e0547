package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped logging context
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	RequestID string    // HTTP request ID
	ClientIP  string    // Client IP address (without port)
	Identity  string    // Identity name being resolved
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context carrying lc
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext for a request from clientIP
func NewLogContext(requestID, clientIP string) *LogContext {
	return &LogContext{
		RequestID: requestID,
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithIdentity returns a copy with the identity set
func (lc *LogContext) WithIdentity(name string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Identity = name
	}
	return clone
}

// WithTrace returns a copy with the trace ID set
func (lc *LogContext) WithTrace(traceID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
