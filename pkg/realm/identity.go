package realm

import (
	"context"

	"github.com/marmos91/sqlrealm/internal/logger"
	"github.com/marmos91/sqlrealm/internal/telemetry"
	"github.com/marmos91/sqlrealm/pkg/password"
)

// RealmIdentity is a short-lived handle for one identity name. It holds no
// state besides the name and its realm, and never caches query results.
type RealmIdentity struct {
	name  string
	realm *Realm
}

// AuthorizationIdentity is the minimal record produced for a realm identity.
type AuthorizationIdentity struct {
	Name string `json:"name"`
}

// Name returns the identity name.
func (i *RealmIdentity) Name() string {
	return i.name
}

// CredentialSupport reports whether this identity has a credential of type t.
//
// The first KeyMapper matching t decides by inspecting the query result.
// When no mapper matches, Unsupported is returned without querying.
func (i *RealmIdentity) CredentialSupport(ctx context.Context, t CredentialType) (CredentialSupport, error) {
	q, km := i.realm.keyMapperFor(t)
	if km == nil {
		return Unsupported, nil
	}

	ctx, span := telemetry.StartRealmSpan(ctx, telemetry.SpanCredentialSupport, i.name, telemetry.CredentialType(t.String()))
	defer span.End()

	support, err := executeQuery(ctx, q, i.name, i.realm.metrics, km.CredentialSupport)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return Unsupported, err
	}

	telemetry.SetAttributes(ctx, telemetry.Support(support.String()))
	return support, nil
}

// Credential returns the credential of type t, or nil if no mapper
// produces t or the identity has none.
func (i *RealmIdentity) Credential(ctx context.Context, t CredentialType) (any, error) {
	q, km := i.realm.keyMapperFor(t)
	if km == nil {
		return nil, nil
	}

	ctx, span := telemetry.StartRealmSpan(ctx, telemetry.SpanCredential, i.name, telemetry.CredentialType(t.String()))
	defer span.End()

	cred, err := executeQuery(ctx, q, i.name, i.realm.metrics, km.Map)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	return cred, nil
}

// VerifyCredential checks candidate against the stored password.
//
// candidate may be a string, []byte, []rune, password.ClearPassword or
// *password.ClearPassword. A nil candidate, or a realm without a password
// mapper, yields false without querying. Wrong passwords yield false;
// infrastructure and configuration problems are returned as errors.
func (i *RealmIdentity) VerifyCredential(ctx context.Context, candidate any) (verified bool, err error) {
	if isNilCandidate(candidate) {
		return false, nil
	}

	q, pm := i.realm.passwordMapper()
	if pm == nil {
		return false, nil
	}

	ctx, span := telemetry.StartRealmSpan(ctx, telemetry.SpanVerifyCredential, i.name, telemetry.Algorithm(pm.Algorithm()))
	defer func() {
		i.realm.metrics.ObserveVerification(verified, err)
		if err != nil {
			telemetry.RecordError(ctx, err)
		} else {
			telemetry.SetAttributes(ctx, telemetry.Verified(verified))
		}
		span.End()
	}()

	stored, err := executeQuery(ctx, q, i.name, i.realm.metrics, pm.Map)
	if err != nil {
		return false, err
	}

	plaintext, err := normalizeCandidate(candidate)
	if err != nil {
		return false, err
	}

	factory, err := i.realm.factories.ForAlgorithm(pm.Algorithm())
	if err != nil {
		return false, newUnknownAlgorithmError(pm.Algorithm(), err)
	}

	storedPassword, ok := stored.(*password.Password)
	if !ok || storedPassword == nil {
		logger.DebugCtx(ctx, "no stored password for identity",
			logger.KeyIdentity, i.name,
			logger.KeyAlgorithm, pm.Algorithm())
		return false, nil
	}

	verified, err = factory.Verify(storedPassword, plaintext)
	if err != nil {
		return false, newInvalidKeyError(pm.Algorithm(), err)
	}

	logger.DebugCtx(ctx, "credential verified",
		logger.KeyIdentity, i.name,
		logger.KeyAlgorithm, pm.Algorithm(),
		logger.KeyVerified, verified)
	return verified, nil
}

// Attributes returns the values produced by every AttributeMapper. Each
// configuration holding attribute mappers is queried once and its first
// row feeds all of them. An identity without a row contributes nothing.
func (i *RealmIdentity) Attributes(ctx context.Context) (map[string]any, error) {
	attrs := make(map[string]any)
	for _, q := range i.realm.configs {
		mappers := attributeMappers(q)
		if len(mappers) == 0 {
			continue
		}

		values, err := i.queryAttributes(ctx, q, mappers)
		if err != nil {
			return nil, err
		}
		for name, v := range values {
			if _, seen := attrs[name]; !seen {
				attrs[name] = v
			}
		}
	}
	return attrs, nil
}

func (i *RealmIdentity) queryAttributes(ctx context.Context, q *QueryConfiguration, mappers []*AttributeMapper) (map[string]any, error) {
	ctx, span := telemetry.StartRealmSpan(ctx, telemetry.SpanAttributes, i.name)
	defer span.End()

	return executeQuery(ctx, q, i.name, i.realm.metrics, func(rs ResultSet) (map[string]any, error) {
		row, err := NextRow(rs)
		if err != nil || row == nil {
			return nil, err
		}
		values := make(map[string]any, len(mappers))
		for _, m := range mappers {
			v, err := m.fromRow(row)
			if err != nil {
				return nil, err
			}
			if v != nil {
				values[m.Name()] = v
			}
		}
		return values, nil
	})
}

func attributeMappers(q *QueryConfiguration) []*AttributeMapper {
	var out []*AttributeMapper
	for _, m := range q.mappers {
		if am, ok := m.(*AttributeMapper); ok {
			out = append(out, am)
		}
	}
	return out
}

// Exists reports whether the identity exists. It always returns true;
// a missing identity surfaces as an absent credential instead.
func (i *RealmIdentity) Exists(context.Context) (bool, error) {
	return true, nil
}

// AuthorizationIdentity returns the authorization record for this identity.
func (i *RealmIdentity) AuthorizationIdentity() AuthorizationIdentity {
	return AuthorizationIdentity{Name: i.name}
}

func isNilCandidate(candidate any) bool {
	if candidate == nil {
		return true
	}
	cp, ok := candidate.(*password.ClearPassword)
	return ok && cp == nil
}

// normalizeCandidate converts an accepted candidate shape to plaintext bytes.
func normalizeCandidate(candidate any) ([]byte, error) {
	switch c := candidate.(type) {
	case string:
		return []byte(c), nil
	case []byte:
		return c, nil
	case []rune:
		return []byte(string(c)), nil
	case *password.ClearPassword:
		return c.Bytes(), nil
	case password.ClearPassword:
		return c.Bytes(), nil
	default:
		return nil, newUnsupportedShapeError(candidate)
	}
}
