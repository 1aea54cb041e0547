package realm

import (
	"fmt"
	"strings"

	"github.com/marmos91/sqlrealm/pkg/password"
)

// CredentialType tags a kind of credential.
//
// Types form a hierarchy separated by "/": "password/bcrypt" is a
// descendant of "password". A mapper whose key type is "password" can
// therefore serve a request for any password algorithm.
type CredentialType string

const (
	// TypePassword is the root of every password credential type.
	TypePassword CredentialType = "password"

	// TypeClearPassword is a password stored in the clear.
	TypeClearPassword CredentialType = TypePassword + "/" + password.AlgorithmClear

	// TypeBCryptPassword is a bcrypt password.
	TypeBCryptPassword CredentialType = TypePassword + "/" + password.AlgorithmBCrypt

	// TypeArgon2Password is an argon2id password.
	TypeArgon2Password CredentialType = TypePassword + "/" + password.AlgorithmArgon2id

	// TypeX509Certificate is an X.509 certificate credential. No built-in
	// mapper produces it.
	TypeX509Certificate CredentialType = "x509-certificate"
)

// PasswordType returns the password credential type for algorithm.
func PasswordType(algorithm string) CredentialType {
	return TypePassword + "/" + CredentialType(password.NormalizeAlgorithm(algorithm))
}

// Accepts reports whether a mapper keyed on k can serve a request for t,
// i.e. t equals k or t is a descendant of k.
func (k CredentialType) Accepts(t CredentialType) bool {
	if k == "" || t == "" {
		return false
	}
	return t == k || strings.HasPrefix(string(t), string(k)+"/")
}

// IsPassword reports whether t is a password credential type.
func (t CredentialType) IsPassword() bool {
	return TypePassword.Accepts(t)
}

// String returns the type tag.
func (t CredentialType) String() string {
	return string(t)
}

// CredentialSupport is the tri-state answer to "can this credential be obtained".
type CredentialSupport int

const (
	// Unsupported means the credential cannot be obtained.
	Unsupported CredentialSupport = iota

	// Unknown means the credential may be obtainable but the realm cannot
	// tell without inspecting a specific identity.
	Unknown

	// Supported means the credential is known to be obtainable.
	Supported
)

// String returns the upper-case name of the support level.
func (s CredentialSupport) String() string {
	switch s {
	case Unsupported:
		return "UNSUPPORTED"
	case Unknown:
		return "UNKNOWN"
	case Supported:
		return "SUPPORTED"
	default:
		return fmt.Sprintf("CredentialSupport(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s CredentialSupport) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CredentialSupport) UnmarshalText(text []byte) error {
	v, err := ParseCredentialSupport(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseCredentialSupport parses a support level name, case-insensitively.
func ParseCredentialSupport(name string) (CredentialSupport, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "UNSUPPORTED":
		return Unsupported, nil
	case "UNKNOWN":
		return Unknown, nil
	case "SUPPORTED":
		return Supported, nil
	default:
		return Unsupported, fmt.Errorf("invalid credential support: %q", name)
	}
}

// MayBeObtainable reports whether the credential is supported or possibly supported.
func (s CredentialSupport) MayBeObtainable() bool {
	return s == Supported || s == Unknown
}
