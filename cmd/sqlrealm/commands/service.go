package commands

import (
	"context"

	"github.com/marmos91/sqlrealm/pkg/apiclient"
	"github.com/marmos91/sqlrealm/pkg/datasource"
	"github.com/marmos91/sqlrealm/pkg/password"
	"github.com/marmos91/sqlrealm/pkg/realm"
)

// realmService is the subset of realm operations the CLI runs either
// in-process or against a server given by --server.
type realmService interface {
	RealmSupport(ctx context.Context, t realm.CredentialType) (realm.CredentialSupport, error)
	IdentitySupport(ctx context.Context, name string, t realm.CredentialType) (realm.CredentialSupport, error)
	Verify(ctx context.Context, name, secret string) (bool, error)
	Attributes(ctx context.Context, name string) (map[string]any, error)
	Close()
}

// openService returns a remote service when --server is set and builds
// the realm from the configuration otherwise.
func openService(ctx context.Context) (realmService, error) {
	if serverURL != "" {
		client := apiclient.New(serverURL)
		if apiToken != "" {
			client = client.WithToken(apiToken)
		}
		return remoteService{client}, nil
	}

	_, r, sources, err := openRealm(ctx)
	if err != nil {
		return nil, err
	}
	return &localService{realm: r, sources: sources}, nil
}

type localService struct {
	realm   *realm.Realm
	sources datasource.Set
}

func (s *localService) RealmSupport(_ context.Context, t realm.CredentialType) (realm.CredentialSupport, error) {
	return s.realm.CredentialSupport(t), nil
}

func (s *localService) IdentitySupport(ctx context.Context, name string, t realm.CredentialType) (realm.CredentialSupport, error) {
	return s.realm.CreateRealmIdentity(name).CredentialSupport(ctx, t)
}

func (s *localService) Verify(ctx context.Context, name, secret string) (bool, error) {
	candidate := password.NewClearPassword(secret)
	defer candidate.Destroy()
	return s.realm.CreateRealmIdentity(name).VerifyCredential(ctx, candidate)
}

func (s *localService) Attributes(ctx context.Context, name string) (map[string]any, error) {
	return s.realm.CreateRealmIdentity(name).Attributes(ctx)
}

func (s *localService) Close() {
	closeSources(s.sources)
}

type remoteService struct {
	*apiclient.Client
}

func (remoteService) Close() {}
