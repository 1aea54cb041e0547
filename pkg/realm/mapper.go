package realm

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/marmos91/sqlrealm/pkg/password"
)

// ColumnMapper extracts a value from the result set of an authentication query.
type ColumnMapper interface {
	// Map reads the result set and returns the mapped value, or nil if
	// the result set holds nothing to map.
	Map(rs ResultSet) (any, error)
}

// KeyMapper is a ColumnMapper that produces one kind of credential.
type KeyMapper interface {
	ColumnMapper

	// KeyType returns the credential type this mapper produces.
	KeyType() CredentialType

	// Matches reports whether this mapper can serve a request for t.
	Matches(t CredentialType) bool

	// CredentialSupport inspects the result set and reports whether the
	// identity actually has the credential.
	CredentialSupport(rs ResultSet) (CredentialSupport, error)
}

// PasswordMapper is a KeyMapper producing passwords of one algorithm.
type PasswordMapper interface {
	KeyMapper

	// Algorithm returns the password algorithm of the stored credential.
	Algorithm() string
}

// Encoding describes how binary values are stored in a text column.
type Encoding int

const (
	// EncodingRaw uses the column bytes as-is.
	EncodingRaw Encoding = iota
	// EncodingBase64 decodes standard (padded or unpadded) base64.
	EncodingBase64
	// EncodingHex decodes hexadecimal.
	EncodingHex
)

// ParseEncoding parses "raw", "base64" or "hex" (case-insensitive, empty means raw).
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw":
		return EncodingRaw, nil
	case "base64":
		return EncodingBase64, nil
	case "hex":
		return EncodingHex, nil
	default:
		return EncodingRaw, fmt.Errorf("invalid encoding: %q (valid: raw, base64, hex)", s)
	}
}

// String returns the encoding name.
func (e Encoding) String() string {
	switch e {
	case EncodingBase64:
		return "base64"
	case EncodingHex:
		return "hex"
	default:
		return "raw"
	}
}

func (e Encoding) decode(b []byte) ([]byte, error) {
	switch e {
	case EncodingBase64:
		s := strings.TrimSpace(string(b))
		if strings.HasSuffix(s, "=") {
			return base64.StdEncoding.DecodeString(s)
		}
		return base64.RawStdEncoding.DecodeString(s)
	case EncodingHex:
		return hex.DecodeString(strings.TrimSpace(string(b)))
	default:
		return b, nil
	}
}

// PasswordKeyMapper maps columns of the first result row to a stored
// password. Column ordinals are 1-based positions in the select list;
// 0 means the column is not used.
type PasswordKeyMapper struct {
	algorithm       string
	hashColumn      int
	saltColumn      int
	iterationColumn int
	hashEncoding    Encoding
	saltEncoding    Encoding
}

// PasswordMapperOption configures a PasswordKeyMapper.
type PasswordMapperOption func(*PasswordKeyMapper)

// WithHashEncoding sets how the hash column is encoded.
func WithHashEncoding(enc Encoding) PasswordMapperOption {
	return func(m *PasswordKeyMapper) { m.hashEncoding = enc }
}

// WithSaltColumn reads the salt from column, decoded with enc.
func WithSaltColumn(column int, enc Encoding) PasswordMapperOption {
	return func(m *PasswordKeyMapper) {
		m.saltColumn = column
		m.saltEncoding = enc
	}
}

// WithIterationCountColumn reads the iteration count from column.
func WithIterationCountColumn(column int) PasswordMapperOption {
	return func(m *PasswordKeyMapper) { m.iterationColumn = column }
}

// NewPasswordKeyMapper creates a mapper for algorithm reading the hash from hashColumn.
func NewPasswordKeyMapper(algorithm string, hashColumn int, opts ...PasswordMapperOption) (*PasswordKeyMapper, error) {
	algorithm = password.NormalizeAlgorithm(algorithm)
	if algorithm == "" {
		return nil, errors.New("password mapper requires an algorithm")
	}
	if hashColumn < 1 {
		return nil, fmt.Errorf("password mapper hash column must be >= 1, got %d", hashColumn)
	}

	m := &PasswordKeyMapper{algorithm: algorithm, hashColumn: hashColumn}
	for _, opt := range opts {
		opt(m)
	}

	if m.saltColumn < 0 || m.iterationColumn < 0 {
		return nil, errors.New("password mapper column ordinals must not be negative")
	}
	return m, nil
}

// Algorithm returns the normalized algorithm name.
func (m *PasswordKeyMapper) Algorithm() string {
	return m.algorithm
}

// KeyType returns TypePassword.
func (m *PasswordKeyMapper) KeyType() CredentialType {
	return TypePassword
}

// Matches reports whether t is a password type.
func (m *PasswordKeyMapper) Matches(t CredentialType) bool {
	return m.KeyType().Accepts(t)
}

// Map returns a *password.Password built from the first row, or nil when
// there is no row or the hash column is NULL.
func (m *PasswordKeyMapper) Map(rs ResultSet) (any, error) {
	p, err := m.mapPassword(rs)
	if err != nil || p == nil {
		return nil, err
	}
	return p, nil
}

// CredentialSupport returns Supported when the first row carries a hash.
func (m *PasswordKeyMapper) CredentialSupport(rs ResultSet) (CredentialSupport, error) {
	p, err := m.mapPassword(rs)
	if err != nil {
		return Unknown, err
	}
	if p == nil {
		return Unsupported, nil
	}
	return Supported, nil
}

func (m *PasswordKeyMapper) mapPassword(rs ResultSet) (*password.Password, error) {
	row, err := NextRow(rs)
	if err != nil || row == nil {
		return nil, err
	}

	hashValue, err := row.Value(m.hashColumn)
	if err != nil {
		return nil, err
	}
	if hashValue == nil {
		return nil, nil
	}
	hash, err := m.hashEncoding.decode(toBytes(hashValue))
	if err != nil {
		return nil, fmt.Errorf("decoding hash column %d: %w", m.hashColumn, err)
	}

	p := &password.Password{Algorithm: m.algorithm, Hash: hash}

	if m.saltColumn > 0 {
		saltValue, err := row.Value(m.saltColumn)
		if err != nil {
			return nil, err
		}
		if saltValue != nil {
			if p.Salt, err = m.saltEncoding.decode(toBytes(saltValue)); err != nil {
				return nil, fmt.Errorf("decoding salt column %d: %w", m.saltColumn, err)
			}
		}
	}

	if m.iterationColumn > 0 {
		iterValue, err := row.Value(m.iterationColumn)
		if err != nil {
			return nil, err
		}
		if iterValue != nil {
			if p.IterationCount, err = toInt(iterValue); err != nil {
				return nil, fmt.Errorf("reading iteration count column %d: %w", m.iterationColumn, err)
			}
		}
	}

	return p, nil
}

// AttributeMapper maps one column of the first row to a named attribute.
// It is not a KeyMapper and is never selected for credential operations.
type AttributeMapper struct {
	name   string
	column int
}

// NewAttributeMapper creates an AttributeMapper reading column into name.
func NewAttributeMapper(name string, column int) (*AttributeMapper, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("attribute mapper requires a name")
	}
	if column < 1 {
		return nil, fmt.Errorf("attribute mapper column must be >= 1, got %d", column)
	}
	return &AttributeMapper{name: name, column: column}, nil
}

// Name returns the attribute name.
func (m *AttributeMapper) Name() string {
	return m.name
}

// Map returns the column value of the first row. Byte values are
// returned as strings.
func (m *AttributeMapper) Map(rs ResultSet) (any, error) {
	row, err := NextRow(rs)
	if err != nil || row == nil {
		return nil, err
	}
	return m.fromRow(row)
}

func (m *AttributeMapper) fromRow(row *Row) (any, error) {
	v, err := row.Value(m.column)
	if err != nil {
		return nil, err
	}
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return v, nil
}

func toBytes(v any) []byte {
	switch t := v.(type) {
	case []byte:
		return t
	case string:
		return []byte(t)
	default:
		return []byte(fmt.Sprint(t))
	}
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int64:
		return int(t), nil
	case int32:
		return int(t), nil
	case int:
		return t, nil
	case float64:
		return int(t), nil
	case []byte:
		return strconv.Atoi(strings.TrimSpace(string(t)))
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("unsupported integer value of type %T", v)
	}
}
