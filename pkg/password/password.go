// Package password provides algorithm-keyed password factories used to verify
// plaintext candidates against stored password representations.
//
// A stored representation is reconstructed from database columns into a
// Password value (hash, optional salt, optional iteration count). A Factory
// knows how to compare a plaintext against that representation for exactly
// one algorithm; a Registry resolves factories by algorithm name.
//
// Built-in algorithms:
//   - clear: plaintext stored as-is
//   - bcrypt: modular crypt string ($2a$, $2b$, $2y$)
//   - argon2id: PHC string ($argon2id$v=19$m=...,t=...,p=...$salt$hash)
//   - simple-digest-sha-256, simple-digest-sha-512: unsalted digest bytes
//   - pbkdf2-sha256: derived key bytes with salt and iteration count
package password

import (
	"errors"
	"fmt"
	"strings"
)

// Algorithm names understood by the default registry.
const (
	AlgorithmClear        = "clear"
	AlgorithmBCrypt       = "bcrypt"
	AlgorithmArgon2id     = "argon2id"
	AlgorithmSHA256       = "simple-digest-sha-256"
	AlgorithmSHA512       = "simple-digest-sha-512"
	AlgorithmPBKDF2SHA256 = "pbkdf2-sha256"
)

var (
	// ErrUnknownAlgorithm is returned when no factory is registered for an algorithm.
	ErrUnknownAlgorithm = errors.New("unknown password algorithm")

	// ErrInvalidKey is returned when a stored password cannot be used with
	// the factory's algorithm (malformed hash, missing salt, wrong algorithm).
	ErrInvalidKey = errors.New("invalid password key for algorithm")
)

// Password is a stored password representation.
type Password struct {
	// Algorithm is the algorithm the representation was produced with.
	// Empty means "whatever the verifying factory expects".
	Algorithm string `json:"algorithm"`

	// Hash holds the algorithm-specific encoded hash or digest bytes.
	Hash []byte `json:"-"`

	// Salt is used by salted algorithms (pbkdf2-sha256).
	Salt []byte `json:"-"`

	// IterationCount is used by iterated algorithms (pbkdf2-sha256).
	IterationCount int `json:"iteration_count,omitempty"`
}

// ClearPassword is a decoded plaintext password.
type ClearPassword struct {
	value []byte
}

// NewClearPassword creates a ClearPassword from a string.
func NewClearPassword(p string) *ClearPassword {
	return &ClearPassword{value: []byte(p)}
}

// Bytes returns the plaintext bytes.
func (c *ClearPassword) Bytes() []byte {
	if c == nil {
		return nil
	}
	return c.value
}

// Destroy zeroes the plaintext.
func (c *ClearPassword) Destroy() {
	if c == nil {
		return
	}
	for i := range c.value {
		c.value[i] = 0
	}
	c.value = nil
}

// Factory verifies and generates passwords for one algorithm.
//
// Implementations must be safe for concurrent use.
type Factory interface {
	// Algorithm returns the canonical algorithm name.
	Algorithm() string

	// Verify compares plaintext against stored. A wrong password is
	// (false, nil); an unusable stored representation returns an error
	// wrapping ErrInvalidKey.
	Verify(stored *Password, plaintext []byte) (bool, error)

	// Generate produces a stored representation for plaintext.
	Generate(plaintext []byte) (*Password, error)
}

// NormalizeAlgorithm returns the canonical (lower-case, trimmed) form of name.
func NormalizeAlgorithm(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// invalidKey wraps cause as an ErrInvalidKey for algorithm.
func invalidKey(algorithm string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w %q", ErrInvalidKey, algorithm)
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidKey, algorithm, cause)
}

// checkStored rejects nil representations and ones produced for another algorithm.
func checkStored(algorithm string, stored *Password) error {
	if stored == nil {
		return invalidKey(algorithm, errors.New("no stored password"))
	}
	if stored.Algorithm != "" && NormalizeAlgorithm(stored.Algorithm) != algorithm {
		return invalidKey(algorithm, fmt.Errorf("stored password uses %q", stored.Algorithm))
	}
	return nil
}
