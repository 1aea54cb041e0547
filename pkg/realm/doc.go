// Package realm implements an identity realm backed by SQL queries.
//
// A Realm holds an ordered list of QueryConfigurations. Each configuration
// binds one authentication query, taking the identity name as its only
// parameter, to a DataSource and a list of ColumnMappers that turn the
// result set into credentials.
//
// Operations on a RealmIdentity scan the configurations in order, then the
// mappers within each configuration, and use the first mapper that matches.
// Only that mapper's query is executed:
//
//	r, _ := realm.New([]*realm.QueryConfiguration{q})
//	ok, err := r.CreateRealmIdentity("alice").VerifyCredential(ctx, "s3cret")
//
// Infrastructure failures are returned as *Error values whose Code can be
// tested with errors.Is; a negative answer (Unsupported, nil credential,
// false) always means the realm could answer and the answer was no.
package realm
