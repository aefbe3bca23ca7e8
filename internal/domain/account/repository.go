package account

import (
	"context"

	"github.com/elevate-hub/elevate/internal/domain/shared"
)

// Repository stores accounts.
type Repository interface {
	// Create stores a new account.
	// Returns shared.ErrAccountAlreadyExists when the username is taken.
	Create(ctx context.Context, account *Account) error

	// GetByUsername returns shared.ErrAccountNotFound when absent.
	GetByUsername(ctx context.Context, username shared.Username) (*Account, error)

	// UpdatePasswordHash replaces the stored hash.
	UpdatePasswordHash(ctx context.Context, username shared.Username, hash string) error

	// Delete removes the account. Returns shared.ErrAccountNotFound when absent.
	Delete(ctx context.Context, username shared.Username) error

	// ListUsernames returns every username sorted ascending.
	ListUsernames(ctx context.Context) ([]shared.Username, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. needsRehash is true when
	// the hash uses an outdated scheme and should be replaced after a
	// successful match.
	Verify(hash, password string) (ok bool, needsRehash bool, err error)
}
