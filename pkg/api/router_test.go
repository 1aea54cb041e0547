package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/marmos91/sqlrealm/pkg/api/auth"
	"github.com/marmos91/sqlrealm/pkg/api/handlers"
	"github.com/marmos91/sqlrealm/pkg/datasource"
	"github.com/marmos91/sqlrealm/pkg/password"
	"github.com/marmos91/sqlrealm/pkg/realm"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

type account struct {
	Name  string `gorm:"primaryKey"`
	Hash  *string
	Email string
}

// setupRealm builds a realm over an in-memory SQLite database where alice
// has the bcrypt password "s3cret" and bob has no password.
func setupRealm(t *testing.T) (*realm.Realm, datasource.Set, *realm.Metrics, *prometheus.Registry) {
	t.Helper()
	ctx := context.Background()

	src, err := datasource.Open(ctx, "accounts", &datasource.Config{
		SQLite: datasource.SQLiteConfig{Path: datasource.MemoryPath},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)

	db := src.GORM()
	require.NoError(t, db.AutoMigrate(&account{}))
	require.NoError(t, db.Create([]account{
		{Name: "alice", Hash: &hashStr, Email: "alice@example.com"},
		{Name: "bob", Email: "bob@example.com"},
	}).Error)

	pm, err := realm.NewPasswordKeyMapper(password.AlgorithmBCrypt, 1)
	require.NoError(t, err)
	email, err := realm.NewAttributeMapper("email", 2)
	require.NoError(t, err)
	q, err := realm.NewQueryConfiguration(src, "SELECT hash, email FROM accounts WHERE name = ?", pm, email)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics := realm.NewMetrics(reg)
	r, err := realm.New([]*realm.QueryConfiguration{q}, realm.WithMetrics(metrics))
	require.NoError(t, err)

	return r, datasource.Set{"accounts": src}, metrics, reg
}

func newTestRouter(t *testing.T) (http.Handler, datasource.Set) {
	t.Helper()
	r, set, _, reg := setupRealm(t)
	return NewRouter(Dependencies{Realm: r, DataSources: set, Gatherer: reg}, 0), set
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[handlers.Response](t, w).Status)

	w = do(t, h, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/health/datasources", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Data []handlers.DataSourceHealth `json:"data"`
	}](t, w)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "accounts", resp.Data[0].Name)
	assert.Equal(t, "sqlite", resp.Data[0].Type)
	assert.Equal(t, "healthy", resp.Data[0].Status)
}

func TestReadinessWithoutRealm(t *testing.T) {
	h := NewRouter(Dependencies{}, 0)

	w := do(t, h, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "realm not initialized", decode[handlers.Response](t, w).Error)

	w = do(t, h, http.MethodPost, "/api/v1/identities/alice/verify", `{"password":"s3cret"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRealmSupport(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		target string
		want   realm.CredentialSupport
	}{
		{"/api/v1/credentials/support?type=password", realm.Unknown},
		{"/api/v1/credentials/support?type=password/bcrypt", realm.Unsupported},
		{"/api/v1/identities/alice/credentials/support?type=password/bcrypt", realm.Supported},
		{"/api/v1/identities/bob/credentials/support?type=password", realm.Unsupported},
		{"/api/v1/identities/alice/credentials/support?type=x509-certificate", realm.Unsupported},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := do(t, h, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, w.Code)
			resp := decode[map[string]string](t, w)
			assert.Equal(t, tt.want.String(), resp["support"])
		})
	}

	w := do(t, h, http.MethodGet, "/api/v1/credentials/support", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.ContentTypeProblemJSON, w.Header().Get("Content-Type"))
}

func TestVerify(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name       string
		identity   string
		body       string
		wantStatus int
		verified   bool
	}{
		{"correct password", "alice", `{"password":"s3cret"}`, http.StatusOK, true},
		{"wrong password", "alice", `{"password":"nope"}`, http.StatusOK, false},
		{"no stored password", "bob", `{"password":"s3cret"}`, http.StatusOK, false},
		{"unknown identity", "carol", `{"password":"s3cret"}`, http.StatusOK, false},
		{"missing password", "alice", `{}`, http.StatusBadRequest, false},
		{"malformed body", "alice", `{"password":`, http.StatusBadRequest, false},
		{"unknown field", "alice", `{"password":"s3cret","hash":"x"}`, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/v1/identities/"+tt.identity+"/verify", tt.body)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				resp := decode[handlers.VerifyResponse](t, w)
				assert.Equal(t, tt.identity, resp.Identity)
				assert.Equal(t, tt.verified, resp.Verified)
			}
		})
	}
}

func TestVerifyDataSourceDown(t *testing.T) {
	h, set := newTestRouter(t)
	require.NoError(t, set.Close())

	w := do(t, h, http.MethodPost, "/api/v1/identities/alice/verify", `{"password":"s3cret"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	problem := decode[handlers.Problem](t, w)
	assert.Equal(t, realm.ErrConnectionUnavailable.String(), problem.Code)
	assert.NotContains(t, problem.Detail, "SELECT", "queries are not exposed")

	w = do(t, h, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAttributes(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/api/v1/identities/bob/attributes", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[handlers.AttributesResponse](t, w)
	assert.Equal(t, map[string]any{"email": "bob@example.com"}, resp.Attributes)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	do(t, h, http.MethodPost, "/api/v1/identities/alice/verify", `{"password":"s3cret"}`)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sqlrealm_verifications_total")
}

func TestBearerAuth(t *testing.T) {
	r, set, _, _ := setupRealm(t)

	srv, err := NewServer(Config{Auth: AuthConfig{Enabled: true, Secret: testSecret}}, Dependencies{Realm: r, DataSources: set})
	require.NoError(t, err)
	h := srv.Handler()

	tokens, err := auth.NewTokenService(testSecret, "sqlrealm")
	require.NoError(t, err)
	token, _, err := tokens.Issue("gateway", time.Minute)
	require.NoError(t, err)

	const target = "/api/v1/identities/alice/verify"
	body := `{"password":"s3cret"}`

	w := do(t, h, http.MethodPost, target, body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	w = do(t, h, http.MethodPost, target, body, "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, target, body, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[handlers.VerifyResponse](t, w).Verified)

	w = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code, "health stays public")
}

func TestNewServer_ShortSecret(t *testing.T) {
	_, err := NewServer(Config{Auth: AuthConfig{Enabled: true, Secret: "short"}}, Dependencies{})
	assert.ErrorIs(t, err, auth.ErrInvalidSecretLength)
}

func TestServerStartStop(t *testing.T) {
	srv, err := NewServer(Config{Port: 18089}, Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, 18089, srv.Port())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestEscapedIdentityName(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/api/v1/identities/%61lice/attributes", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[handlers.AttributesResponse](t, w)
	assert.Equal(t, "alice", resp.Identity)
	assert.Equal(t, map[string]any{"email": "alice@example.com"}, resp.Attributes)

	w = do(t, h, http.MethodPost, "/api/v1/identities/%61lice/verify", `{"password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[handlers.VerifyResponse](t, w).Verified)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/identities/bad/attributes", nil)
	req.URL.RawPath = "/api/v1/identities/bad%zz/attributes"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
