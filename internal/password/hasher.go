package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches bcrypt's default work factor of 10.
const DefaultCost = bcrypt.DefaultCost

// MaxBytes is the longest input bcrypt accepts. Longer passwords are
// truncated to this many bytes on both hash and compare.
const MaxBytes = 72

var ErrMismatch = errors.New("password does not match")

// BcryptHasher hashes with a fresh random salt per call and compares in
// constant time.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(truncate(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(b), nil
}

// Compare returns ErrMismatch for a wrong password and a wrapped error for
// a malformed hash.
func (h *BcryptHasher) Compare(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), truncate(plain))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return fmt.Errorf("bcrypt compare: %w", err)
}

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > MaxBytes {
		b = b[:MaxBytes]
	}
	return b
}
