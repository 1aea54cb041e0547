package apiclient

import (
	"context"
	"net/url"

	"github.com/marmos91/sqlrealm/pkg/realm"
)

// SupportResponse mirrors the server's credential support answer.
type SupportResponse struct {
	Identity       string                  `json:"identity,omitempty"`
	CredentialType string                  `json:"credential_type"`
	Support        realm.CredentialSupport `json:"support"`
}

type verifyRequest struct {
	Password string `json:"password"`
}

// VerifyResponse mirrors the server's verification answer.
type VerifyResponse struct {
	Identity string `json:"identity"`
	Verified bool   `json:"verified"`
}

// AttributesResponse mirrors the server's attributes answer.
type AttributesResponse struct {
	Identity   string         `json:"identity"`
	Attributes map[string]any `json:"attributes"`
}

// RealmSupport asks whether the realm could produce credentials of type t.
func (c *Client) RealmSupport(ctx context.Context, t realm.CredentialType) (realm.CredentialSupport, error) {
	var resp SupportResponse
	if err := c.get(ctx, "/api/v1/credentials/support?"+typeQuery(t), &resp); err != nil {
		return realm.Unsupported, err
	}
	return resp.Support, nil
}

// IdentitySupport asks whether identity name holds a credential of type t.
func (c *Client) IdentitySupport(ctx context.Context, name string, t realm.CredentialType) (realm.CredentialSupport, error) {
	var resp SupportResponse
	if err := c.get(ctx, identityPath(name)+"/credentials/support?"+typeQuery(t), &resp); err != nil {
		return realm.Unsupported, err
	}
	return resp.Support, nil
}

// Verify checks password against identity name's stored credential.
func (c *Client) Verify(ctx context.Context, name, password string) (bool, error) {
	var resp VerifyResponse
	if err := c.post(ctx, identityPath(name)+"/verify", verifyRequest{Password: password}, &resp); err != nil {
		return false, err
	}
	return resp.Verified, nil
}

// Attributes returns identity name's mapped attributes.
func (c *Client) Attributes(ctx context.Context, name string) (map[string]any, error) {
	var resp AttributesResponse
	if err := c.get(ctx, identityPath(name)+"/attributes", &resp); err != nil {
		return nil, err
	}
	if resp.Attributes == nil {
		resp.Attributes = map[string]any{}
	}
	return resp.Attributes, nil
}

func identityPath(name string) string {
	return "/api/v1/identities/" + url.PathEscape(name)
}

func typeQuery(t realm.CredentialType) string {
	return url.Values{"type": {t.String()}}.Encode()
}
