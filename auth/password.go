// Package auth contains the authentication primitives shared by the HTTP
// layer: bcrypt password hashing, HS256 identity tokens and the Gate
// middleware that turns a bearer token into request-scoped claims.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for stored passwords.
const DefaultCost = bcrypt.DefaultCost

// maxPasswordBytes is the longest input bcrypt hashes without truncation.
const maxPasswordBytes = 72

// ErrHashing reports a password that cannot be hashed or a stored hash that
// is not a bcrypt hash. Login treats it as a failed verification.
var ErrHashing = errors.New("password hashing failed")

// Hasher hashes and verifies passwords with bcrypt. The zero value is not
// usable; construct it with NewHasher.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Costs outside
// bcrypt's accepted range fall back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" || len(plaintext) > maxPasswordBytes {
		return "", ErrHashing
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", errors.Join(ErrHashing, err)
	}
	return string(hashed), nil
}

// Verify compares plaintext with a stored hash in constant time. A mismatch is
// (false, nil); a malformed hash is (false, ErrHashing). Input longer than
// Hash accepts never matches, since bcrypt would only compare its first 72
// bytes.
func (h *Hasher) Verify(plaintext, hash string) (bool, error) {
	if len(plaintext) > maxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, errors.Join(ErrHashing, err)
	}
}
