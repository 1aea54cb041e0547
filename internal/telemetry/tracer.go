package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for realm operations.
const (
	AttrIdentity       = "realm.identity"
	AttrCredentialType = "realm.credential_type"
	AttrAlgorithm      = "realm.algorithm"
	AttrSupport        = "realm.support"
	AttrVerified       = "realm.verified"
	AttrDataSource     = "db.datasource"
	AttrStatement      = "db.statement"
	AttrDBSystem       = "db.system"
)

// Span names.
const (
	SpanCredentialSupport = "realm.CredentialSupport"
	SpanCredential        = "realm.Credential"
	SpanVerifyCredential  = "realm.VerifyCredential"
	SpanAttributes        = "realm.Attributes"
	SpanQuery             = "realm.query"
)

// Identity returns the identity name attribute.
func Identity(name string) attribute.KeyValue {
	return attribute.String(AttrIdentity, name)
}

// CredentialType returns the credential type attribute.
func CredentialType(t string) attribute.KeyValue {
	return attribute.String(AttrCredentialType, t)
}

// Algorithm returns the password algorithm attribute.
func Algorithm(name string) attribute.KeyValue {
	return attribute.String(AttrAlgorithm, name)
}

// Support returns the credential support outcome attribute.
func Support(s string) attribute.KeyValue {
	return attribute.String(AttrSupport, s)
}

// Verified returns the verification outcome attribute.
func Verified(ok bool) attribute.KeyValue {
	return attribute.Bool(AttrVerified, ok)
}

// DataSource returns the data source name attribute.
func DataSource(name string) attribute.KeyValue {
	return attribute.String(AttrDataSource, name)
}

// Statement returns the SQL statement attribute.
func Statement(sql string) attribute.KeyValue {
	return attribute.String(AttrStatement, sql)
}

// DBSystem returns the database system attribute (sqlite, postgresql).
func DBSystem(system string) attribute.KeyValue {
	return attribute.String(AttrDBSystem, system)
}

// StartRealmSpan starts an internal span for a realm identity operation.
func StartRealmSpan(ctx context.Context, name, identity string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Identity(identity)}, attrs...)
	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(all...),
	)
}

// StartQuerySpan starts a client span around one authentication query.
func StartQuerySpan(ctx context.Context, dataSource, sql string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanQuery,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(DataSource(dataSource), Statement(sql)),
	)
}

// StartHTTPSpan starts a server span for an API request.
func StartHTTPSpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return StartSpan(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
}
