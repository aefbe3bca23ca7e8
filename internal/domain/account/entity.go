// Package account holds user credentials and the signup rules.
package account

import (
	"time"

	"github.com/elevate-hub/elevate/internal/domain/shared"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// Account is a registered user.
type Account struct {
	Username     shared.Username
	PasswordHash string
	CreatedAt    time.Time
}

// SignupParams is the raw signup form.
type SignupParams struct {
	Username        string
	Password        string
	ConfirmPassword string
}

// Validate checks the form and returns the normalised username.
// Checks run in form order so the first problem is reported.
func (p SignupParams) Validate() (shared.Username, error) {
	username, err := shared.NewUsername(p.Username)
	if err != nil {
		return "", err
	}
	if len(p.Password) < MinPasswordLength {
		return "", shared.ErrPasswordTooShort
	}
	if p.Password != p.ConfirmPassword {
		return "", shared.ErrPasswordMismatch
	}
	return username, nil
}

// NewAccount creates an account with an already hashed password.
func NewAccount(username shared.Username, passwordHash string, createdAt time.Time) (*Account, error) {
	if !username.IsValid() {
		return nil, shared.ErrInvalidUsername
	}
	if passwordHash == "" {
		return nil, shared.NewDomainError("account", "NewAccount", shared.ErrEmptyValue, "password hash is required")
	}
	return &Account{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt.UTC(),
	}, nil
}
