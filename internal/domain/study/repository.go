package study

import (
	"context"

	"github.com/elevate-hub/elevate/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository persists study sessions keyed by user.
type Repository interface {
	// Append stores a validated session for the user. The store assigns the
	// timestamp (see NextTimestamp) and returns the stored copy.
	// Returns an error wrapping shared.ErrCorrupted when existing data cannot
	// be read; such data is never overwritten.
	Append(ctx context.Context, username shared.Username, session *Session) (*Session, error)

	// ListByUser returns the user's sessions in insertion order.
	// A user without data yields an empty slice and no error.
	ListByUser(ctx context.Context, username shared.Username) ([]Session, error)

	// DeleteByUser removes every session of the user. Missing data is not an error.
	DeleteByUser(ctx context.Context, username shared.Username) error
}

// Locker serialises writes to one user's data across processes.
type Locker interface {
	// Lock blocks until the user's lock is held or ctx is done.
	// Returns shared.ErrUserLocked when the lock could not be acquired.
	Lock(ctx context.Context, username shared.Username) (Unlock, error)
}

// Unlock releases a lock obtained from Locker.
type Unlock func(ctx context.Context) error

// NopLocker is a Locker that always succeeds. Used when no distributed lock
// is configured; the stores still serialise writers inside one process.
type NopLocker struct{}

// Lock implements Locker.
func (NopLocker) Lock(context.Context, shared.Username) (Unlock, error) {
	return func(context.Context) error { return nil }, nil
}
