package command

import (
	"context"
	"fmt"

	"github.com/elevate-hub/elevate/internal/domain/account"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN COMMAND
// Checks credentials. A legacy or weak hash that matches is replaced on the
// spot; failing to replace it does not fail the login.
// ══════════════════════════════════════════════════════════════════════════════

// LoginCommand carries the login form.
type LoginCommand struct {
	Username string
	Password string
}

// LoginResult is returned on success.
type LoginResult struct {
	Username shared.Username

	// Rehashed is true when the stored hash was upgraded.
	Rehashed bool
}

// LoginHandler handles LoginCommand.
type LoginHandler struct {
	accounts account.Repository
	hasher   account.PasswordHasher
}

// NewLoginHandler creates a LoginHandler.
func NewLoginHandler(accounts account.Repository, hasher account.PasswordHasher) *LoginHandler {
	return &LoginHandler{accounts: accounts, hasher: hasher}
}

// Handle authenticates the user.
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	username, err := shared.NewUsername(cmd.Username)
	if err != nil {
		return nil, fmt.Errorf("login: validation failed: %w", err)
	}
	if cmd.Password == "" {
		return nil, fmt.Errorf("login: validation failed: %w",
			shared.NewDomainError("account", "Authenticate", shared.ErrEmptyValue, "password is required"))
	}

	acc, err := h.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	ok, needsRehash, err := h.hasher.Verify(acc.PasswordHash, cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("login: %w", shared.ErrWrongPassword)
	}

	log := logger.FromContext(ctx).With(logger.Username(username.String()))
	result := &LoginResult{Username: username}
	if needsRehash {
		result.Rehashed = h.rehash(ctx, log, username, cmd.Password)
	}

	log.Info("user logged in", logger.Bool("rehashed", result.Rehashed))
	return result, nil
}

func (h *LoginHandler) rehash(ctx context.Context, log *logger.Logger, username shared.Username, password string) bool {
	hash, err := h.hasher.Hash(password)
	if err != nil {
		log.Warn("password rehash failed", logger.Err(err))
		return false
	}
	if err := h.accounts.UpdatePasswordHash(ctx, username, hash); err != nil {
		log.Warn("storing upgraded password hash failed", logger.Err(err))
		return false
	}
	return true
}
