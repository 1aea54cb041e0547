package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/sqlrealm/internal/logger"
	"github.com/marmos91/sqlrealm/pkg/realm"
)

// RealmHandler exposes realm operations. Stored credentials are never
// written to a response.
type RealmHandler struct {
	realm *realm.Realm
}

// NewRealmHandler creates a new realm handler.
func NewRealmHandler(r *realm.Realm) *RealmHandler {
	return &RealmHandler{realm: r}
}

// SupportResponse reports a credential support level.
type SupportResponse struct {
	Identity       string                  `json:"identity,omitempty"`
	CredentialType string                  `json:"credential_type"`
	Support        realm.CredentialSupport `json:"support"`
}

// VerifyRequest is the body of a verification request.
type VerifyRequest struct {
	Password *string `json:"password"`
}

// VerifyResponse reports a verification outcome.
type VerifyResponse struct {
	Identity string `json:"identity"`
	Verified bool   `json:"verified"`
}

// AttributesResponse carries the mapped attributes of an identity.
type AttributesResponse struct {
	Identity   string         `json:"identity"`
	Attributes map[string]any `json:"attributes"`
}

// RealmSupport handles GET /api/v1/credentials/support?type=...
func (h *RealmHandler) RealmSupport(w http.ResponseWriter, r *http.Request) {
	t, ok := credentialTypeParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SupportResponse{
		CredentialType: t.String(),
		Support:        h.realm.CredentialSupport(t),
	})
}

// IdentitySupport handles GET /api/v1/identities/{name}/credentials/support?type=...
func (h *RealmHandler) IdentitySupport(w http.ResponseWriter, r *http.Request) {
	t, ok := credentialTypeParam(w, r)
	if !ok {
		return
	}
	name, ok := identityName(w, r)
	if !ok {
		return
	}

	support, err := h.realm.CreateRealmIdentity(name).CredentialSupport(r.Context(), t)
	if err != nil {
		writeRealmError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SupportResponse{
		Identity:       name,
		CredentialType: t.String(),
		Support:        support,
	})
}

// Verify handles POST /api/v1/identities/{name}/verify.
func (h *RealmHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Password == nil {
		BadRequest(w, "password is required")
		return
	}
	name, ok := identityName(w, r)
	if !ok {
		return
	}

	verified, err := h.realm.CreateRealmIdentity(name).VerifyCredential(r.Context(), *req.Password)
	if err != nil {
		writeRealmError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyResponse{Identity: name, Verified: verified})
}

// Attributes handles GET /api/v1/identities/{name}/attributes.
func (h *RealmHandler) Attributes(w http.ResponseWriter, r *http.Request) {
	name, ok := identityName(w, r)
	if !ok {
		return
	}

	attrs, err := h.realm.CreateRealmIdentity(name).Attributes(r.Context())
	if err != nil {
		writeRealmError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AttributesResponse{Identity: name, Attributes: attrs})
}

// identityName returns the decoded {name} path parameter. chi matches on
// the escaped path when the request has one, leaving the parameter escaped.
func identityName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, true
	}
	decoded, err := url.PathUnescape(name)
	if err != nil {
		BadRequest(w, "invalid identity name escape")
		return "", false
	}
	return decoded, true
}

func credentialTypeParam(w http.ResponseWriter, r *http.Request) (realm.CredentialType, bool) {
	t := r.URL.Query().Get("type")
	if t == "" {
		BadRequest(w, "type query parameter is required")
		return "", false
	}
	return realm.CredentialType(t), true
}

// writeRealmError maps realm faults to problem responses.
func writeRealmError(w http.ResponseWriter, r *http.Request, err error) {
	code := realm.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case realm.ErrConnectionUnavailable:
		status = http.StatusServiceUnavailable
	case realm.ErrUnsupportedCredentialShape:
		status = http.StatusBadRequest
	}

	logger.ErrorCtx(r.Context(), "Realm operation failed",
		logger.KeyPath, r.URL.Path,
		logger.KeyStatus, status,
		logger.Err(err))

	p := &Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: "realm operation failed",
	}
	var realmErr *realm.Error
	if errors.As(err, &realmErr) {
		p.Code = realmErr.Code.String()
		p.Detail = realmErr.Message
	}
	writeProblem(w, p)
}
