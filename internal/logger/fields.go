package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements.
const (
	// ========================================================================
	// Request correlation
	// ========================================================================
	KeyTraceID   = "trace_id"   // OpenTelemetry trace ID
	KeyRequestID = "request_id" // HTTP request ID
	KeyClientIP  = "client_ip"  // Client IP address
	KeyMethod    = "method"     // HTTP method
	KeyPath      = "path"       // HTTP path
	KeyStatus    = "status"     // HTTP status code

	// ========================================================================
	// Realm
	// ========================================================================
	KeyIdentity       = "identity"        // Identity name being resolved
	KeyCredentialType = "credential_type" // Requested credential type
	KeyAlgorithm      = "algorithm"       // Password algorithm
	KeySupport        = "support"         // Credential support outcome
	KeyVerified       = "verified"        // Verification outcome

	// ========================================================================
	// Database
	// ========================================================================
	KeySQL        = "sql"        // Authentication query text
	KeyDataSource = "datasource" // Data source name
	KeyDriver     = "driver"     // Data source type: sqlite, postgres, pgx
	KeyResource   = "resource"   // Released resource: connection, statement, result_set

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Realm error code
	KeyAddress    = "address"     // Listen address
	KeyConfig     = "config"      // Configuration file path
)

// Identity returns an identity name attribute
func Identity(name string) slog.Attr {
	return slog.String(KeyIdentity, name)
}

// CredentialType returns a credential type attribute
func CredentialType(t string) slog.Attr {
	return slog.String(KeyCredentialType, t)
}

// Algorithm returns a password algorithm attribute
func Algorithm(name string) slog.Attr {
	return slog.String(KeyAlgorithm, name)
}

// SQL returns a query text attribute
func SQL(query string) slog.Attr {
	return slog.String(KeySQL, query)
}

// DataSource returns a data source name attribute
func DataSource(name string) slog.Attr {
	return slog.String(KeyDataSource, name)
}

// Resource returns a released resource attribute
func Resource(kind string) slog.Attr {
	return slog.String(KeyResource, kind)
}

// DurationMs returns a duration attribute in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns an error attribute. A nil error yields an empty attribute.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns an error code attribute
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}
