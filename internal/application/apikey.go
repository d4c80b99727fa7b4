package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidAPIKeyHash is returned when a configured hash cannot be decoded.
	ErrInvalidAPIKeyHash = errors.New("application: invalid api key hash")
	// ErrIncompatibleHashVersion is returned for hashes from another argon2 version.
	ErrIncompatibleHashVersion = errors.New("application: incompatible argon2 version")
)

// Argon2idParams tunes API key hashing.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams are used by the hash-key command.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// HashAPIKey returns the PHC encoded argon2id hash of key.
func HashAPIKey(key string, params Argon2idParams) (string, error) {
	if key == "" {
		return "", fmt.Errorf("application: api key is empty")
	}
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	sum := argon2.IDKey([]byte(key), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	// $argon2id$v=19$m=...,t=...,p=...$salt$hash
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// APIKeyVerifier checks presented keys against one configured hash.
type APIKeyVerifier struct {
	params Argon2idParams
	salt   []byte
	sum    []byte
}

// NewAPIKeyVerifier decodes encoded once so that each request only pays for
// the key derivation.
func NewAPIKeyVerifier(encoded string) (*APIKeyVerifier, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, ErrInvalidAPIKeyHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPIKeyHash, err)
	}
	if version != argon2.Version {
		return nil, ErrIncompatibleHashVersion
	}

	v := &APIKeyVerifier{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &v.params.Memory, &v.params.Iterations, &v.params.Parallelism); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPIKeyHash, err)
	}

	var err error
	if v.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrInvalidAPIKeyHash, err)
	}
	if v.sum, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("%w: hash: %v", ErrInvalidAPIKeyHash, err)
	}
	v.params.SaltLength = uint32(len(v.salt))
	v.params.KeyLength = uint32(len(v.sum))
	return v, nil
}

// Verify returns ErrUnauthorized unless key matches the configured hash.
func (v *APIKeyVerifier) Verify(key string) error {
	if v == nil || key == "" {
		return ErrUnauthorized
	}
	candidate := argon2.IDKey([]byte(key), v.salt, v.params.Iterations, v.params.Memory, v.params.Parallelism, v.params.KeyLength)
	if subtle.ConstantTimeCompare(v.sum, candidate) != 1 {
		return ErrUnauthorized
	}
	return nil
}
