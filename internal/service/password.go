package service

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used for stored hashes.
const DefaultPasswordCost = 12

// PasswordHasher hashes and verifies passwords. DummyHash returns a hash of
// the same cost that matches no password, so that a lookup miss can still pay
// for one comparison.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
	DummyHash() string
}

// BcryptHasher implements PasswordHasher with golang.org/x/crypto/bcrypt.
type BcryptHasher struct {
	cost  int
	dummy string
}

// NewBcryptHasher builds a hasher for cost, falling back to
// DefaultPasswordCost when cost is outside bcrypt's accepted range.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate dummy password: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword(secret, cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &BcryptHasher{cost: cost, dummy: string(dummy)}, nil
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash returns the bcrypt hash of plain.
func (h *BcryptHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare returns nil when plain matches hash.
func (h *BcryptHasher) Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// DummyHash returns the per-process decoy hash.
func (h *BcryptHasher) DummyHash() string {
	return h.dummy
}

// HashCost reports the work factor of an existing bcrypt hash.
func HashCost(hash string) (int, error) {
	return bcrypt.Cost([]byte(hash))
}
