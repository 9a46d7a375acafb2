package crypto

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password schemes accepted by NewPasswords.
const (
	SchemePlaintext = "plaintext"
	SchemeBcrypt    = "bcrypt"
)

// ErrPasswordMismatch is returned when a stored credential does not match.
var ErrPasswordMismatch = errors.New("crypto: password mismatch")

// HashPassword hashes plaintext using bcrypt.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// ComparePassword compares plaintext to hashed secret.
func ComparePassword(hash []byte, plain string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain))
}

// Passwords encodes credentials for storage and checks them at login.
// The plaintext scheme stores the password as typed and compares by equality.
type Passwords struct {
	scheme string
}

// NewPasswords returns a Passwords for the named scheme.
func NewPasswords(scheme string) (Passwords, error) {
	switch s := strings.ToLower(strings.TrimSpace(scheme)); s {
	case "", SchemePlaintext:
		return Passwords{scheme: SchemePlaintext}, nil
	case SchemeBcrypt:
		return Passwords{scheme: SchemeBcrypt}, nil
	default:
		return Passwords{}, fmt.Errorf("unsupported password scheme %q", scheme)
	}
}

// Scheme reports the configured scheme name.
func (p Passwords) Scheme() string {
	if p.scheme == "" {
		return SchemePlaintext
	}
	return p.scheme
}

// Encode turns a plaintext password into its stored form.
func (p Passwords) Encode(plain string) (string, error) {
	if p.Scheme() == SchemeBcrypt {
		hash, err := HashPassword(plain)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		return string(hash), nil
	}
	return plain, nil
}

// Verify checks plain against the stored credential.
func (p Passwords) Verify(stored, plain string) error {
	if p.Scheme() == SchemeBcrypt {
		if err := ComparePassword([]byte(stored), plain); err != nil {
			return ErrPasswordMismatch
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
