// Package password hashes and compares user passwords.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is the one-way hash/compare capability used by registration and login.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) (bool, error)
}

// Bcrypt implements Hasher with golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	Cost int
}

// NewBcrypt returns a Bcrypt hasher using the library default cost.
func NewBcrypt() Bcrypt {
	return Bcrypt{Cost: bcrypt.DefaultCost}
}

// Hash returns the bcrypt hash of plain.
func (b Bcrypt) Hash(plain string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(out), nil
}

// Compare reports whether plain matches hash. A mismatch is not an error.
func (b Bcrypt) Compare(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("password: compare: %w", err)
	}
}
