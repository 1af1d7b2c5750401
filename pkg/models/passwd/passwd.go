package passwd

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Constants for cost and max password length (bcrypt truncates after 72 bytes)
const (
	DefaultCost    = 12
	MaxPasswordLen = 72
)

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes and will be truncated by bcrypt")

// Hasher hashes and verifies passwords at a fixed bcrypt cost.
type Hasher struct {
	cost      int
	dummyHash []byte // compared against when no account exists, so misses cost the same as hits
}

// NewHasher returns a Hasher using cost, falling back to DefaultCost when
// cost is outside bcrypt's accepted range.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("commonground-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("generating dummy hash: %w", err)
	}
	return &Hasher{cost: cost, dummyHash: dummy}, nil
}

// Cost returns the bcrypt cost in use.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash hashes a password, rejecting input bcrypt would silently truncate.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordLen {
		return "", ErrPasswordTooLong
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// Authenticate verifies password against storedHash. A nil storedHash still
// runs a comparison against the dummy hash before returning false.
func (h *Hasher) Authenticate(password string, storedHash *string) bool {
	if storedHash == nil {
		_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
		return false
	}
	return CheckPasswordHash(password, *storedHash)
}

// HashPassword hashes a password using bcrypt with the DefaultCost
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordLen {
		return "", ErrPasswordTooLong
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plaintext password with a bcrypt hashed password.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
