package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBCryptCost is the default cost parameter for bcrypt hashing.
// Cost 10 provides a good balance between security and performance.
const DefaultBCryptCost = 10

// BCryptFactory verifies bcrypt modular crypt strings.
type BCryptFactory struct {
	cost int
}

// NewBCryptFactory creates a BCryptFactory that generates hashes with cost.
// Values outside bcrypt's range fall back to DefaultBCryptCost.
func NewBCryptFactory(cost int) BCryptFactory {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBCryptCost
	}
	return BCryptFactory{cost: cost}
}

// Algorithm returns "bcrypt".
func (BCryptFactory) Algorithm() string {
	return AlgorithmBCrypt
}

// Verify checks plaintext against a bcrypt hash.
func (f BCryptFactory) Verify(stored *Password, plaintext []byte) (bool, error) {
	if err := checkStored(AlgorithmBCrypt, stored); err != nil {
		return false, err
	}

	err := bcrypt.CompareHashAndPassword(stored.Hash, plaintext)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, invalidKey(AlgorithmBCrypt, err)
	}
}

// Generate creates a bcrypt hash of plaintext.
func (f BCryptFactory) Generate(plaintext []byte) (*Password, error) {
	cost := f.cost
	if cost == 0 {
		cost = DefaultBCryptCost
	}
	hash, err := bcrypt.GenerateFromPassword(plaintext, cost)
	if err != nil {
		return nil, err
	}
	return &Password{Algorithm: AlgorithmBCrypt, Hash: hash}, nil
}

// NeedsRehash reports whether a bcrypt hash was produced with a lower cost
// than the factory's.
func (f BCryptFactory) NeedsRehash(stored *Password) bool {
	if stored == nil {
		return true
	}
	cost, err := bcrypt.Cost(stored.Hash)
	if err != nil {
		return true
	}
	return cost < f.cost
}
