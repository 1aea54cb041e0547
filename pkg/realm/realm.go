package realm

import (
	"fmt"

	"github.com/marmos91/sqlrealm/pkg/password"
)

// PasswordFactories resolves password factories by algorithm name.
// *password.Registry implements it.
type PasswordFactories interface {
	ForAlgorithm(name string) (password.Factory, error)
}

// Realm is an identity realm backed by SQL authentication queries.
//
// The configuration list is fixed at construction and only read afterwards,
// so a Realm and the identities it creates are safe for concurrent use.
// Nothing is cached: every identity operation that needs data runs its
// query again.
type Realm struct {
	configs   []*QueryConfiguration
	factories PasswordFactories
	metrics   *Metrics
}

// Option configures a Realm.
type Option func(*Realm)

// WithPasswordFactories sets the password factory lookup used for
// verification. The default is the built-in password registry.
func WithPasswordFactories(f PasswordFactories) Option {
	return func(r *Realm) {
		if f != nil {
			r.factories = f
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Realm) { r.metrics = m }
}

// New creates a Realm over the ordered configuration list. An empty list is
// valid and yields a realm that supports nothing.
func New(configs []*QueryConfiguration, opts ...Option) (*Realm, error) {
	for i, c := range configs {
		if c == nil {
			return nil, fmt.Errorf("query configuration %d is nil", i)
		}
	}

	r := &Realm{
		configs:   append([]*QueryConfiguration(nil), configs...),
		factories: password.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// CreateRealmIdentity returns a handle for name. It never touches the database.
func (r *Realm) CreateRealmIdentity(name string) *RealmIdentity {
	return &RealmIdentity{name: name, realm: r}
}

// CredentialSupport reports, without consulting any identity, whether t
// might be obtainable: Unknown if some KeyMapper produces exactly t,
// Unsupported otherwise. It never runs a query.
func (r *Realm) CredentialSupport(t CredentialType) CredentialSupport {
	for _, q := range r.configs {
		for _, m := range q.mappers {
			if km, ok := m.(KeyMapper); ok && km.KeyType() == t {
				return Unknown
			}
		}
	}
	return Unsupported
}

// Configurations returns the realm's query configurations in scan order.
func (r *Realm) Configurations() []*QueryConfiguration {
	return append([]*QueryConfiguration(nil), r.configs...)
}

// keyMapperFor returns the first configuration and KeyMapper matching t.
func (r *Realm) keyMapperFor(t CredentialType) (*QueryConfiguration, KeyMapper) {
	for _, q := range r.configs {
		for _, m := range q.mappers {
			if km, ok := m.(KeyMapper); ok && km.Matches(t) {
				return q, km
			}
		}
	}
	return nil, nil
}

// passwordMapper returns the first configuration and password mapper.
func (r *Realm) passwordMapper() (*QueryConfiguration, PasswordMapper) {
	for _, q := range r.configs {
		for _, m := range q.mappers {
			if pm, ok := m.(PasswordMapper); ok && pm.KeyType().IsPassword() {
				return q, pm
			}
		}
	}
	return nil, nil
}
