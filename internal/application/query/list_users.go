package query

import (
	"context"
	"fmt"

	"github.com/elevate-hub/elevate/internal/domain/account"
)

// ListUsersHandler lists registered usernames in ascending order.
type ListUsersHandler struct {
	accounts account.Repository
}

// NewListUsersHandler creates a ListUsersHandler.
func NewListUsersHandler(accounts account.Repository) *ListUsersHandler {
	return &ListUsersHandler{accounts: accounts}
}

// Handle returns every username.
func (h *ListUsersHandler) Handle(ctx context.Context) ([]string, error) {
	names, err := h.accounts.ListUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_users: %w", err)
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out, nil
}
