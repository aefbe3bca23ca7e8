// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elevate-hub/elevate/internal/domain/account"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/pkg/logger"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SIGNUP COMMAND
// Registers a new account. Every form check runs before anything is stored.
// ══════════════════════════════════════════════════════════════════════════════

// SignupCommand is the raw signup form.
type SignupCommand struct {
	Username        string
	Password        string
	ConfirmPassword string
}

// SignupResult describes the created account.
type SignupResult struct {
	Username  shared.Username
	CreatedAt time.Time
}

// SignupHandler handles SignupCommand.
type SignupHandler struct {
	accounts account.Repository
	hasher   account.PasswordHasher
	clock    timeutil.Clock
}

// NewSignupHandler creates a SignupHandler.
func NewSignupHandler(accounts account.Repository, hasher account.PasswordHasher, clock timeutil.Clock) *SignupHandler {
	return &SignupHandler{accounts: accounts, hasher: hasher, clock: clock}
}

// Handle validates the form, hashes the password and stores the account.
func (h *SignupHandler) Handle(ctx context.Context, cmd SignupCommand) (*SignupResult, error) {
	username, err := account.SignupParams{
		Username:        cmd.Username,
		Password:        cmd.Password,
		ConfirmPassword: cmd.ConfirmPassword,
	}.Validate()
	if err != nil {
		return nil, fmt.Errorf("signup: validation failed: %w", err)
	}

	// Report duplicates before paying for a bcrypt hash.
	if _, err := h.accounts.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("signup: %w", shared.ErrAccountAlreadyExists)
	} else if !errors.Is(err, shared.ErrAccountNotFound) {
		return nil, fmt.Errorf("signup: check username: %w", err)
	}

	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	acc, err := account.NewAccount(username, hash, h.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	if err := h.accounts.Create(ctx, acc); err != nil {
		return nil, fmt.Errorf("signup: create account: %w", err)
	}

	logger.FromContext(ctx).Info("account created", logger.Username(username.String()))
	return &SignupResult{Username: acc.Username, CreatedAt: acc.CreatedAt}, nil
}
