package command

import (
	"context"
	"fmt"

	"github.com/elevate-hub/elevate/internal/domain/account"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE ACCOUNT COMMAND
// Removes the account and every session of the user. The password is
// checked again before anything is removed.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteAccountCommand identifies the account to remove.
type DeleteAccountCommand struct {
	Username string
	Password string
}

// DeleteAccountHandler handles DeleteAccountCommand.
type DeleteAccountHandler struct {
	accounts account.Repository
	sessions study.Repository
	hasher   account.PasswordHasher
	cache    DashboardInvalidator
}

// NewDeleteAccountHandler creates a DeleteAccountHandler. cache may be nil.
func NewDeleteAccountHandler(
	accounts account.Repository,
	sessions study.Repository,
	hasher account.PasswordHasher,
	cache DashboardInvalidator,
) *DeleteAccountHandler {
	return &DeleteAccountHandler{accounts: accounts, sessions: sessions, hasher: hasher, cache: cache}
}

// Handle verifies the password, then deletes sessions and the account.
func (h *DeleteAccountHandler) Handle(ctx context.Context, cmd DeleteAccountCommand) error {
	username, err := shared.NewUsername(cmd.Username)
	if err != nil {
		return fmt.Errorf("delete_account: validation failed: %w", err)
	}

	acc, err := h.accounts.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("delete_account: %w", err)
	}
	ok, _, err := h.hasher.Verify(acc.PasswordHash, cmd.Password)
	if err != nil {
		return fmt.Errorf("delete_account: %w", err)
	}
	if !ok {
		return fmt.Errorf("delete_account: %w", shared.ErrWrongPassword)
	}

	// Sessions first: a failure here leaves the account usable and the
	// delete can be retried.
	if err := h.sessions.DeleteByUser(ctx, username); err != nil {
		return fmt.Errorf("delete_account: delete sessions: %w", err)
	}
	if err := h.accounts.Delete(ctx, username); err != nil {
		return fmt.Errorf("delete_account: delete account: %w", err)
	}
	if h.cache != nil {
		h.cache.Invalidate(ctx, username.String())
	}

	logger.FromContext(ctx).Info("account deleted", logger.Username(username.String()))
	return nil
}
