package realm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesCode(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("lookup: %w", newConnectionUnavailableError("SELECT 1 WHERE ?", cause))

	assert.ErrorIs(t, err, ErrConnectionUnavailable)
	assert.NotErrorIs(t, err, ErrQueryProcessing)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrConnectionUnavailable, CodeOf(err))
	assert.Contains(t, err.Error(), "sql: SELECT 1 WHERE ?")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestErrorCodeOfPlainError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ErrorCode(0), CodeOf(errors.New("plain")))
	assert.Equal(t, ErrorCode(0), CodeOf(nil))
}

func TestErrorCodeString(t *testing.T) {
	t.Parallel()

	tests := map[ErrorCode]string{
		ErrConnectionUnavailable:      "ConnectionUnavailable",
		ErrQueryProcessing:            "QueryProcessingFault",
		ErrUnsupportedCredentialShape: "UnsupportedCredentialShape",
		ErrUnknownAlgorithm:           "UnknownAlgorithm",
		ErrInvalidKeyForAlgorithm:     "InvalidKeyForAlgorithm",
		ErrorCode(42):                 "Unknown(42)",
	}
	for code, want := range tests {
		assert.Equal(t, want, code.String())
		assert.Equal(t, want, code.Error())
	}
}

func TestInvalidKeyErrorKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("hash too short")
	err := newInvalidKeyError("bcrypt", cause)

	assert.ErrorIs(t, err, ErrInvalidKeyForAlgorithm)
	assert.Same(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "algorithm: bcrypt")
}
