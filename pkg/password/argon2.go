package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params holds the argon2id cost parameters used for generation.
// Verification always uses the parameters encoded in the stored PHC string.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultArgon2Params returns the OWASP recommended argon2id parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    3,
		Memory:  64 * 1024, // 64 MiB
		Threads: 1,
		KeyLen:  32,
		SaltLen: 16,
	}
}

// Argon2Factory verifies argon2id PHC strings.
type Argon2Factory struct {
	params Argon2Params
}

// NewArgon2Factory creates an Argon2Factory generating hashes with params.
func NewArgon2Factory(params Argon2Params) Argon2Factory {
	return Argon2Factory{params: params}
}

// Algorithm returns "argon2id".
func (Argon2Factory) Algorithm() string {
	return AlgorithmArgon2id
}

// Verify checks plaintext against an argon2id PHC string.
func (f Argon2Factory) Verify(stored *Password, plaintext []byte) (bool, error) {
	if err := checkStored(AlgorithmArgon2id, stored); err != nil {
		return false, err
	}

	salt, hash, params, err := decodePHC(string(stored.Hash))
	if err != nil {
		return false, invalidKey(AlgorithmArgon2id, err)
	}

	candidate := argon2.IDKey(plaintext, salt, params.Time, params.Memory, params.Threads, uint32(len(hash))) //nolint:gosec // G115: hash length always fits uint32

	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}

// Generate hashes plaintext with argon2id and returns it in PHC string format:
// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
func (f Argon2Factory) Generate(plaintext []byte) (*Password, error) {
	salt := make([]byte, f.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey(plaintext, salt, f.params.Time, f.params.Memory, f.params.Threads, f.params.KeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		f.params.Memory, f.params.Time, f.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return &Password{Algorithm: AlgorithmArgon2id, Hash: []byte(encoded)}, nil
}

// decodePHC parses an argon2id PHC string into its components.
func decodePHC(encoded string) (salt, hash []byte, params Argon2Params, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 { //nolint:mnd // PHC format has exactly 6 $-delimited parts
		return nil, nil, params, errors.New("invalid PHC hash format")
	}

	if parts[1] != "argon2id" {
		return nil, nil, params, fmt.Errorf("unsupported PHC algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil { //nolint:govet // shadow
		return nil, nil, params, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, params, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Threads); err != nil { //nolint:govet // shadow
		return nil, nil, params, fmt.Errorf("parsing parameters: %w", err)
	}
	if params.Time == 0 || params.Threads == 0 {
		return nil, nil, params, errors.New("argon2 time and parallelism must be positive")
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding salt: %w", err)
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding hash: %w", err)
	}
	if len(hash) == 0 {
		return nil, nil, params, errors.New("empty hash")
	}

	return salt, hash, params, nil
}
