package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLen is the longest plaintext bcrypt reads in full.
const MaxPasswordLen = 72

// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
var ErrPasswordTooLong = errors.New("password longer than 72 bytes")

// Hasher turns plaintext passwords into opaque digests and checks them.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Compare(hash, plaintext string) bool
}

// BcryptHasher is the production Hasher.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher falls back to bcrypt.DefaultCost for out-of-range costs.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordLen {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Compare never matches a plaintext longer than MaxPasswordLen, since no
// stored hash can have been produced from it.
func (h *BcryptHasher) Compare(hash, plaintext string) bool {
	if len(plaintext) > MaxPasswordLen {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
