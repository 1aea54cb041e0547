// Package auth validates the bearer tokens that protect the realm API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Common errors for token operations.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrTokenSigningFailed  = errors.New("failed to sign token")
	ErrInvalidSecretLength = errors.New("token secret must be at least 32 characters")
)

// MinSecretLength is the shortest accepted HMAC secret.
const MinSecretLength = 32

// Claims are the claims carried by an API token.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 API tokens.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a TokenService. Tokens are issued with, and
// required to carry, issuer.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrInvalidSecretLength
	}
	return &TokenService{secret: []byte(secret), issuer: issuer}, nil
}

// Issue signs a token for subject valid for ttl.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, ErrTokenSigningFailed
	}
	return signed, expiresAt, nil
}

// Validate parses tokenString and returns its claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
