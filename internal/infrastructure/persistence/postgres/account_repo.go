package postgres

import (
	"context"
	"fmt"

	"github.com/elevate-hub/elevate/internal/domain/account"
	"github.com/elevate-hub/elevate/internal/domain/shared"
)

// AccountRepository implements account.Repository for PostgreSQL.
type AccountRepository struct {
	conn *Connection
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(conn *Connection) *AccountRepository {
	return &AccountRepository{conn: conn}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	_, err := r.conn.Exec(ctx,
		`INSERT INTO accounts (username, password_hash, created_at) VALUES ($1, $2, $3)`,
		a.Username.String(), a.PasswordHash, a.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByUsername returns an account by name.
func (r *AccountRepository) GetByUsername(ctx context.Context, username shared.Username) (*account.Account, error) {
	var (
		a    account.Account
		name string
	)
	err := r.conn.QueryRow(ctx,
		`SELECT username, password_hash, created_at FROM accounts WHERE username = $1`,
		username.String(),
	).Scan(&name, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	a.Username = shared.Username(name)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

// UpdatePasswordHash replaces the stored hash.
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, username shared.Username, hash string) error {
	tag, err := r.conn.Exec(ctx,
		`UPDATE accounts SET password_hash = $1 WHERE username = $2`,
		hash, username.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

// Delete removes the account. Sessions go with it through ON DELETE CASCADE.
func (r *AccountRepository) Delete(ctx context.Context, username shared.Username) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM accounts WHERE username = $1`, username.String())
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

// ListUsernames returns all usernames sorted ascending.
func (r *AccountRepository) ListUsernames(ctx context.Context) ([]shared.Username, error) {
	rows, err := r.conn.Query(ctx, `SELECT username FROM accounts ORDER BY username COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	names := make([]shared.Username, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		names = append(names, shared.Username(name))
	}
	return names, rows.Err()
}
