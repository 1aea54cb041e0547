package password

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testArgon2Params keeps argon2id cheap in tests.
var testArgon2Params = Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestRegistry_ForAlgorithm(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()

	for _, name := range []string{"clear", "BCRYPT", " argon2id ", "simple-digest-sha-256", "simple-digest-sha-512", "pbkdf2-sha256"} {
		f, err := reg.ForAlgorithm(name)
		require.NoError(t, err, name)
		assert.Equal(t, NormalizeAlgorithm(name), f.Algorithm())
	}

	_, err := reg.ForAlgorithm("md5-crypt")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestRegistry_Algorithms(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(ClearFactory{}, NewBCryptFactory(bcrypt.MinCost))
	assert.Equal(t, []string{"bcrypt", "clear"}, reg.Algorithms())

	var nilReg *Registry
	assert.Nil(t, nilReg.Algorithms())
	_, err := nilReg.ForAlgorithm("clear")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestFactories_RoundTrip(t *testing.T) {
	t.Parallel()

	factories := []Factory{
		ClearFactory{},
		NewBCryptFactory(bcrypt.MinCost),
		NewArgon2Factory(testArgon2Params),
		NewSHA256Factory(),
		NewSHA512Factory(),
		NewPBKDF2Factory(1000),
	}

	for _, f := range factories {
		f := f
		t.Run(f.Algorithm(), func(t *testing.T) {
			t.Parallel()

			stored, err := f.Generate([]byte("s3cret"))
			require.NoError(t, err)
			assert.Equal(t, f.Algorithm(), stored.Algorithm)

			ok, err := f.Verify(stored, []byte("s3cret"))
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = f.Verify(stored, []byte("wrong"))
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestFactories_NilStored(t *testing.T) {
	t.Parallel()

	for _, f := range DefaultRegistry().factories {
		_, err := f.Verify(nil, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, f.Algorithm())
	}
}

func TestBCrypt_MalformedHash(t *testing.T) {
	t.Parallel()

	f := NewBCryptFactory(bcrypt.MinCost)
	_, err := f.Verify(&Password{Hash: []byte("not-a-bcrypt-hash")}, []byte("s3cret"))
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestBCrypt_AlgorithmMismatch(t *testing.T) {
	t.Parallel()

	stored, err := NewSHA256Factory().Generate([]byte("s3cret"))
	require.NoError(t, err)

	_, err = NewBCryptFactory(bcrypt.MinCost).Verify(stored, []byte("s3cret"))
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestBCrypt_NeedsRehash(t *testing.T) {
	t.Parallel()

	low, err := NewBCryptFactory(bcrypt.MinCost).Generate([]byte("s3cret"))
	require.NoError(t, err)

	f := NewBCryptFactory(bcrypt.MinCost + 1)
	assert.True(t, f.NeedsRehash(low))
	assert.True(t, f.NeedsRehash(nil))
	assert.False(t, NewBCryptFactory(bcrypt.MinCost).NeedsRehash(low))
}

func TestArgon2_InvalidPHC(t *testing.T) {
	t.Parallel()

	f := NewArgon2Factory(testArgon2Params)
	cases := map[string]string{
		"too few parts":   "$argon2id$v=19$m=1024",
		"wrong algorithm": "$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"bad version":     "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"zero threads":    "$argon2id$v=19$m=1024,t=1,p=0$c2FsdA$aGFzaA",
		"bad salt":        "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
	}
	for name, phc := range cases {
		_, err := f.Verify(&Password{Hash: []byte(phc)}, []byte("s3cret"))
		assert.ErrorIs(t, err, ErrInvalidKey, name)
	}
}

func TestDigest_KnownVector(t *testing.T) {
	t.Parallel()

	sum := sha256.Sum256([]byte("s3cret"))
	stored := &Password{Hash: sum[:]}

	ok, err := NewSHA256Factory().Verify(stored, []byte("s3cret"))
	require.NoError(t, err)
	assert.True(t, ok)

	short, _ := hex.DecodeString("abcd")
	_, err = NewSHA256Factory().Verify(&Password{Hash: short}, []byte("s3cret"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestPBKDF2_MissingParameters(t *testing.T) {
	t.Parallel()

	f := NewPBKDF2Factory(1000)
	stored, err := f.Generate([]byte("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, 1000, stored.IterationCount)

	noSalt := *stored
	noSalt.Salt = nil
	_, err = f.Verify(&noSalt, []byte("s3cret"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	noIter := *stored
	noIter.IterationCount = 0
	_, err = f.Verify(&noIter, []byte("s3cret"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestClearPassword(t *testing.T) {
	t.Parallel()

	cp := NewClearPassword("s3cret")
	assert.Equal(t, []byte("s3cret"), cp.Bytes())

	cp.Destroy()
	assert.Nil(t, cp.Bytes())

	var nilCP *ClearPassword
	assert.Nil(t, nilCP.Bytes())
	nilCP.Destroy()
}

func TestGenerate_UnknownAlgorithm(t *testing.T) {
	t.Parallel()

	_, err := Generate("rot13", []byte("x"))
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	stored, err := Generate("clear", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), stored.Hash)
}
