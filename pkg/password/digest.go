package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

// DefaultPBKDF2Iterations is the OWASP recommended iteration count for
// PBKDF2-HMAC-SHA256.
const DefaultPBKDF2Iterations = 600_000

// ClearFactory compares plaintext against a password stored in the clear.
type ClearFactory struct{}

// Algorithm returns "clear".
func (ClearFactory) Algorithm() string {
	return AlgorithmClear
}

// Verify compares plaintext with the stored bytes in constant time.
func (ClearFactory) Verify(stored *Password, plaintext []byte) (bool, error) {
	if err := checkStored(AlgorithmClear, stored); err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(stored.Hash, plaintext) == 1, nil
}

// Generate stores a copy of plaintext.
func (ClearFactory) Generate(plaintext []byte) (*Password, error) {
	return &Password{Algorithm: AlgorithmClear, Hash: append([]byte(nil), plaintext...)}, nil
}

// DigestFactory verifies unsalted message digests.
type DigestFactory struct {
	algorithm string
	newHash   func() hash.Hash
}

// NewSHA256Factory creates a factory for "simple-digest-sha-256".
func NewSHA256Factory() DigestFactory {
	return DigestFactory{algorithm: AlgorithmSHA256, newHash: sha256.New}
}

// NewSHA512Factory creates a factory for "simple-digest-sha-512".
func NewSHA512Factory() DigestFactory {
	return DigestFactory{algorithm: AlgorithmSHA512, newHash: sha512.New}
}

// Algorithm returns the digest algorithm name.
func (f DigestFactory) Algorithm() string {
	return f.algorithm
}

// Verify digests plaintext and compares it with the stored digest.
func (f DigestFactory) Verify(stored *Password, plaintext []byte) (bool, error) {
	if err := checkStored(f.algorithm, stored); err != nil {
		return false, err
	}
	h := f.newHash()
	if len(stored.Hash) != h.Size() {
		return false, invalidKey(f.algorithm, fmt.Errorf("digest length %d, want %d", len(stored.Hash), h.Size()))
	}
	h.Write(plaintext)
	return subtle.ConstantTimeCompare(stored.Hash, h.Sum(nil)) == 1, nil
}

// Generate digests plaintext.
func (f DigestFactory) Generate(plaintext []byte) (*Password, error) {
	h := f.newHash()
	h.Write(plaintext)
	return &Password{Algorithm: f.algorithm, Hash: h.Sum(nil)}, nil
}

// PBKDF2Factory verifies PBKDF2-HMAC-SHA256 derived keys.
type PBKDF2Factory struct {
	iterations int
}

// NewPBKDF2Factory creates a PBKDF2Factory generating keys with iterations.
func NewPBKDF2Factory(iterations int) PBKDF2Factory {
	if iterations <= 0 {
		iterations = DefaultPBKDF2Iterations
	}
	return PBKDF2Factory{iterations: iterations}
}

// Algorithm returns "pbkdf2-sha256".
func (PBKDF2Factory) Algorithm() string {
	return AlgorithmPBKDF2SHA256
}

// Verify derives a key from plaintext with the stored salt and iteration
// count and compares it with the stored key.
func (PBKDF2Factory) Verify(stored *Password, plaintext []byte) (bool, error) {
	if err := checkStored(AlgorithmPBKDF2SHA256, stored); err != nil {
		return false, err
	}
	switch {
	case len(stored.Salt) == 0:
		return false, invalidKey(AlgorithmPBKDF2SHA256, errors.New("missing salt"))
	case stored.IterationCount <= 0:
		return false, invalidKey(AlgorithmPBKDF2SHA256, errors.New("missing iteration count"))
	case len(stored.Hash) == 0:
		return false, invalidKey(AlgorithmPBKDF2SHA256, errors.New("empty derived key"))
	}

	candidate := pbkdf2.Key(plaintext, stored.Salt, stored.IterationCount, len(stored.Hash), sha256.New)
	return subtle.ConstantTimeCompare(stored.Hash, candidate) == 1, nil
}

// Generate derives a 32-byte key from plaintext with a random 16-byte salt.
func (f PBKDF2Factory) Generate(plaintext []byte) (*Password, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	iterations := f.iterations
	if iterations <= 0 {
		iterations = DefaultPBKDF2Iterations
	}
	return &Password{
		Algorithm:      AlgorithmPBKDF2SHA256,
		Hash:           pbkdf2.Key(plaintext, salt, iterations, sha256.Size, sha256.New),
		Salt:           salt,
		IterationCount: iterations,
	}, nil
}
