package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short", "sqlrealm")
	assert.ErrorIs(t, err, ErrInvalidSecretLength)
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	s, err := NewTokenService(testSecret, "sqlrealm")
	require.NoError(t, err)

	token, expiresAt, err := s.Issue("gateway", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "gateway", claims.Subject)
	assert.Equal(t, "sqlrealm", claims.Issuer)
}

func TestTokenService_Rejects(t *testing.T) {
	s, err := NewTokenService(testSecret, "sqlrealm")
	require.NoError(t, err)

	expired, _, err := s.Issue("gateway", -time.Minute)
	require.NoError(t, err)
	_, err = s.Validate(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other, err := NewTokenService(testSecret, "someone-else")
	require.NoError(t, err)
	foreign, _, err := other.Issue("gateway", time.Hour)
	require.NoError(t, err)
	_, err = s.Validate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongKey, err := NewTokenService("another-secret-key-that-is-at-least-32-chars", "sqlrealm")
	require.NoError(t, err)
	forged, _, err := wrongKey.Issue("gateway", time.Hour)
	require.NoError(t, err)
	_, err = s.Validate(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "sqlrealm"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = s.Validate(noExpiry)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
