package realm

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of fault a realm operation hit.
//
// ErrorCode implements error so the constants can be used directly as
// errors.Is targets:
//
//	if errors.Is(err, realm.ErrConnectionUnavailable) { ... }
type ErrorCode int

const (
	// ErrConnectionUnavailable indicates a connection could not be acquired
	// or the query could not be prepared or executed.
	ErrConnectionUnavailable ErrorCode = iota + 1

	// ErrQueryProcessing indicates the query ran but its result could not
	// be turned into a credential.
	ErrQueryProcessing

	// ErrUnsupportedCredentialShape indicates a verification candidate is
	// not a string, byte slice, rune slice, or clear password.
	ErrUnsupportedCredentialShape

	// ErrUnknownAlgorithm indicates no password factory exists for the
	// configured algorithm.
	ErrUnknownAlgorithm

	// ErrInvalidKeyForAlgorithm indicates the stored credential cannot be
	// used with the configured algorithm.
	ErrInvalidKeyForAlgorithm
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrConnectionUnavailable:
		return "ConnectionUnavailable"
	case ErrQueryProcessing:
		return "QueryProcessingFault"
	case ErrUnsupportedCredentialShape:
		return "UnsupportedCredentialShape"
	case ErrUnknownAlgorithm:
		return "UnknownAlgorithm"
	case ErrInvalidKeyForAlgorithm:
		return "InvalidKeyForAlgorithm"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error implements the error interface.
func (c ErrorCode) Error() string {
	return c.String()
}

// Error is a realm fault. It always carries a Code and, where one exists,
// the underlying cause.
type Error struct {
	Code      ErrorCode
	Message   string
	SQL       string
	Algorithm string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Algorithm != "" {
		msg += fmt.Sprintf(" (algorithm: %s)", e.Algorithm)
	}
	if e.SQL != "" {
		msg += fmt.Sprintf(" (sql: %s)", e.SQL)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches an ErrorCode target against the error's code.
func (e *Error) Is(target error) bool {
	code, ok := target.(ErrorCode)
	return ok && code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or 0.
func CodeOf(err error) ErrorCode {
	var realmErr *Error
	if errors.As(err, &realmErr) {
		return realmErr.Code
	}
	return 0
}

func newConnectionUnavailableError(sql string, cause error) *Error {
	return &Error{
		Code:    ErrConnectionUnavailable,
		Message: "could not execute authentication query",
		SQL:     sql,
		Err:     cause,
	}
}

func newQueryProcessingError(sql string, cause error) *Error {
	return &Error{
		Code:    ErrQueryProcessing,
		Message: "could not process authentication query result",
		SQL:     sql,
		Err:     cause,
	}
}

func newUnsupportedShapeError(candidate any) *Error {
	return &Error{
		Code:    ErrUnsupportedCredentialShape,
		Message: fmt.Sprintf("password candidates must be string, []byte, []rune or ClearPassword, got %T", candidate),
	}
}

func newUnknownAlgorithmError(algorithm string, cause error) *Error {
	return &Error{
		Code:      ErrUnknownAlgorithm,
		Message:   "could not obtain password factory",
		Algorithm: algorithm,
		Err:       cause,
	}
}

func newInvalidKeyError(algorithm string, cause error) *Error {
	return &Error{
		Code:      ErrInvalidKeyForAlgorithm,
		Message:   "stored password is not valid for algorithm",
		Algorithm: algorithm,
		Err:       cause,
	}
}
