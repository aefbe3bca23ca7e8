// Package security implements password hashing.
package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/elevate-hub/elevate/internal/domain/account"
)

// legacySHA256 matches unsalted hex SHA-256 digests written by older versions.
var legacySHA256 = regexp.MustCompile(`^[0-9a-f]{64}$`)

// BcryptHasher hashes with bcrypt and still verifies legacy SHA-256 digests,
// flagging them for an upgrade.
type BcryptHasher struct {
	cost int
}

var _ account.PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher creates a hasher. A cost outside bcrypt's range falls back
// to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns a bcrypt hash of password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("security: hash password: %w", err)
	}
	return string(b), nil
}

// Verify checks password against hash. Legacy digests that match report
// needsRehash; so do bcrypt hashes made with a lower cost.
func (h *BcryptHasher) Verify(hash, password string) (bool, bool, error) {
	if legacySHA256.MatchString(hash) {
		sum := sha256.Sum256([]byte(password))
		ok := subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(hash)) == 1
		return ok, ok, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		cost, cerr := bcrypt.Cost([]byte(hash))
		return true, cerr == nil && cost < h.cost, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, false, nil
	default:
		return false, false, fmt.Errorf("security: verify password: %w", err)
	}
}

// LegacyHash returns the unsalted SHA-256 digest older versions stored.
// Only used to build fixtures for the upgrade path.
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
