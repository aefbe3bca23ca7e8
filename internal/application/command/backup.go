package command

import (
	"context"
	"fmt"
	"time"

	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/pkg/logger"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// BACKUP COMMAND
// Writes a timestamped CSV copy of a user's sessions to a backup sink.
// ══════════════════════════════════════════════════════════════════════════════

// BackupSink stores a named backup object and returns where it went.
type BackupSink interface {
	Store(ctx context.Context, name string, body []byte) (string, error)
}

// SessionEncoder serialises sessions into the backup format.
type SessionEncoder func(sessions []study.Session) ([]byte, error)

// BackupNamer names a backup of a user taken at an instant.
type BackupNamer func(username string, at time.Time) string

// BackupCommand names the user to back up.
type BackupCommand struct {
	Username string
}

// BackupResult describes a stored backup.
type BackupResult struct {
	Location     string
	SessionCount int
	Size         int
}

// BackupHandler handles BackupCommand.
type BackupHandler struct {
	sessions study.Repository
	sink     BackupSink
	encode   SessionEncoder
	name     BackupNamer
	clock    timeutil.Clock
}

// NewBackupHandler creates a BackupHandler.
func NewBackupHandler(
	sessions study.Repository,
	sink BackupSink,
	encode SessionEncoder,
	name BackupNamer,
	clock timeutil.Clock,
) *BackupHandler {
	return &BackupHandler{sessions: sessions, sink: sink, encode: encode, name: name, clock: clock}
}

// Handle reads the user's sessions and stores a copy.
// Returns shared.ErrNoSessions when there is nothing to back up.
func (h *BackupHandler) Handle(ctx context.Context, cmd BackupCommand) (*BackupResult, error) {
	username, err := shared.NewUsername(cmd.Username)
	if err != nil {
		return nil, fmt.Errorf("backup: validation failed: %w", err)
	}

	sessions, err := h.sessions.ListByUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("backup: read sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("backup: %w", shared.ErrNoSessions)
	}

	body, err := h.encode(sessions)
	if err != nil {
		return nil, fmt.Errorf("backup: encode: %w", err)
	}

	location, err := h.sink.Store(ctx, h.name(username.String(), h.clock.Now()), body)
	if err != nil {
		return nil, fmt.Errorf("backup: store: %w", err)
	}

	logger.FromContext(ctx).Info("backup stored",
		logger.Username(username.String()),
		logger.SessionCount(len(sessions)),
		logger.Path(location),
	)
	return &BackupResult{Location: location, SessionCount: len(sessions), Size: len(body)}, nil
}
