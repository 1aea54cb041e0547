package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/marmos91/sqlrealm/pkg/api"
	"github.com/marmos91/sqlrealm/pkg/api/auth"
	"github.com/marmos91/sqlrealm/pkg/config"
	"github.com/marmos91/sqlrealm/pkg/password"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type user struct {
	Username     string `gorm:"primaryKey"`
	PasswordHash *string
	Email        string
}

func (user) TableName() string { return "users" }

// setupConfig seeds a SQLite users table matching the sample config and
// writes a config file pointing at it.
func setupConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "users.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	require.NoError(t, err)

	stored, err := password.NewBCryptFactory(4).Generate([]byte("s3cret"))
	require.NoError(t, err)
	hash := string(stored.Hash)

	require.NoError(t, db.AutoMigrate(&user{}))
	require.NoError(t, db.Create(&user{Username: "alice", PasswordHash: &hash, Email: "alice@example.com"}).Error)
	require.NoError(t, db.Create(&user{Username: "bob", Email: "bob@example.com"}).Error)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	cfg := config.GetSampleConfig(dbPath)
	cfg.Logging.Level = "ERROR"
	cfg.Password.BCryptCost = 4
	cfg.Server.Auth.Secret = testSecret

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.SaveConfig(cfg, path))
	return path
}

// run executes the root command with args and stdin, resetting the flag
// variables a previous run may have set.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cfgFile = ""
	outputFormat = "table"
	noColor = true
	serverURL = ""
	apiToken = ""
	versionShort = false
	verifyPasswordStdin = false
	supportIdentity = ""
	credentialType = "password"
	hashAlgorithm = ""
	hashEncoding = "auto"
	hashPasswordStdin = false
	tokenSubject = ""

	var out bytes.Buffer
	root := GetRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestVerify(t *testing.T) {
	cfgPath := setupConfig(t)

	out, err := run(t, "s3cret\n", "verify", "alice", "--password-stdin", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, VerifyResult{Identity: "alice", Verified: true}, decode[VerifyResult](t, out))

	out, err = run(t, "wrong\n", "verify", "alice", "--password-stdin", "--config", cfgPath, "-o", "json")
	assert.ErrorIs(t, err, ErrRejected)
	assert.False(t, decode[VerifyResult](t, out).Verified)

	_, err = run(t, "s3cret\n", "verify", "nobody", "--password-stdin", "--config", cfgPath)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestVerify_EmptyStdin(t *testing.T) {
	cfgPath := setupConfig(t)

	_, err := run(t, "", "verify", "alice", "--password-stdin", "--config", cfgPath)
	assert.Error(t, err)
}

func TestSupport(t *testing.T) {
	cfgPath := setupConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"realm wide", []string{"password"}, "UNKNOWN"},
		{"realm wide unmapped", []string{"x509-certificate"}, "UNSUPPORTED"},
		{"identity with hash", []string{"password/bcrypt", "--identity", "alice"}, "SUPPORTED"},
		{"identity without hash", []string{"password", "--identity", "bob"}, "UNSUPPORTED"},
		{"missing identity", []string{"password", "--identity", "nobody"}, "UNSUPPORTED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"support"}, tt.args...)
			args = append(args, "--config", cfgPath, "-o", "json")

			out, err := run(t, "", args...)
			require.NoError(t, err)

			got := decode[map[string]any](t, out)
			assert.Equal(t, tt.want, got["support"])
		})
	}
}

func TestCredential(t *testing.T) {
	cfgPath := setupConfig(t)

	out, err := run(t, "", "credential", "alice", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)
	got := decode[CredentialResult](t, out)
	assert.True(t, got.Present)
	assert.Equal(t, password.AlgorithmBCrypt, got.Algorithm)
	assert.NotContains(t, out, "$2a$")

	out, err = run(t, "", "credential", "bob", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)
	assert.False(t, decode[CredentialResult](t, out).Present)
}

func TestAttributes(t *testing.T) {
	cfgPath := setupConfig(t)

	out, err := run(t, "", "attributes", "alice", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)
	got := decode[AttributesResult](t, out)
	assert.Equal(t, "alice@example.com", got.Attributes["email"])

	out, err = run(t, "", "attributes", "nobody", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No attributes for nobody")
}

func TestHash(t *testing.T) {
	cfgPath := setupConfig(t)

	out, err := run(t, "s3cret\n", "hash", "--algorithm", "bcrypt", "--password-stdin", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)

	got := decode[HashResult](t, out)
	assert.Equal(t, password.AlgorithmBCrypt, got.Algorithm)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.Hash), []byte("s3cret")))

	_, err = run(t, "s3cret\n", "hash", "--algorithm", "md4", "--password-stdin", "--config", cfgPath)
	assert.Error(t, err)
}

func TestEncodeBytes(t *testing.T) {
	tests := []struct {
		in       []byte
		encoding string
		want     string
	}{
		{[]byte("$2a$04$abc"), "auto", "$2a$04$abc"},
		{[]byte{0xff, 0x00}, "auto", "/wA="},
		{[]byte{0xff, 0x00}, "hex", "ff00"},
		{[]byte("abc"), "base64", "YWJj"},
		{[]byte("abc"), "raw", "abc"},
	}
	for _, tt := range tests {
		got, err := encodeBytes(tt.in, tt.encoding)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := encodeBytes([]byte("abc"), "rot13")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	cfgPath := setupConfig(t)

	out, err := run(t, "", "token", "--subject", "gateway", "--ttl", "5m", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)
	got := decode[TokenResult](t, out)

	tokens, err := auth.NewTokenService(testSecret, "sqlrealm")
	require.NoError(t, err)
	claims, err := tokens.Validate(got.Token)
	require.NoError(t, err)
	assert.Equal(t, "gateway", claims.Subject)
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	out, err := run(t, "", "config", "init", "--database", filepath.Join(dir, "users.db"), "--auth", "--force", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, cfgPath)
	_, err = os.Stat(cfgPath)
	require.NoError(t, err)

	out, err = run(t, "", "config", "validate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "users")

	out, err = run(t, "", "config", "show", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)
	shown := decode[map[string]any](t, out)
	assert.Contains(t, shown, "queries")
	server := shown["server"].(map[string]any)
	assert.Equal(t, true, server["auth"].(map[string]any)["enabled"])

	out, err = run(t, "", "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "datasources")
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, "", "attributes", "alice", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestRemote(t *testing.T) {
	cfg, err := config.Load(setupConfig(t))
	require.NoError(t, err)

	r, sources, err := config.BuildRealm(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sources.Close() })

	tokens, err := auth.NewTokenService(testSecret, "sqlrealm")
	require.NoError(t, err)
	server := httptest.NewServer(api.NewRouter(api.Dependencies{Realm: r, DataSources: sources, Tokens: tokens}, 0))
	t.Cleanup(server.Close)

	token, _, err := tokens.Issue("cli", time.Minute)
	require.NoError(t, err)

	out, err := run(t, "s3cret\n", "verify", "alice", "--password-stdin", "--server", server.URL, "--token", token, "-o", "json")
	require.NoError(t, err)
	assert.True(t, decode[VerifyResult](t, out).Verified)

	out, err = run(t, "", "support", "password", "--identity", "bob", "--server", server.URL, "--token", token, "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "UNSUPPORTED", decode[map[string]any](t, out)["support"])

	out, err = run(t, "", "attributes", "alice", "--server", server.URL, "--token", token, "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", decode[AttributesResult](t, out).Attributes["email"])

	_, err = run(t, "", "attributes", "alice", "--server", server.URL)
	assert.Error(t, err)
}
