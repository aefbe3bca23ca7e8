package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SessionRepository implements study.Repository for PostgreSQL.
type SessionRepository struct {
	conn *Connection
	now  func() time.Time
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(conn *Connection, now func() time.Time) *SessionRepository {
	if now == nil {
		now = time.Now
	}
	return &SessionRepository{conn: conn, now: now}
}

// Append inserts the session under a per-user advisory lock so the
// timestamp is computed against the latest committed row.
func (r *SessionRepository) Append(ctx context.Context, username shared.Username, s *study.Session) (*study.Session, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	stored := *s
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, username.String()); err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}

		var last *time.Time
		if err := tx.QueryRow(ctx,
			`SELECT max(recorded_at) FROM study_sessions WHERE username = $1`,
			username.String(),
		).Scan(&last); err != nil {
			return fmt.Errorf("failed to read last timestamp: %w", err)
		}

		prev := time.Time{}
		if last != nil {
			prev = *last
		}
		stored.ID = uuid.NewString()
		stored.Timestamp = study.NextTimestamp(r.now(), prev)

		_, err := tx.Exec(ctx, `
			INSERT INTO study_sessions (
				id, username, study_date, subject, chapter,
				duration_minutes, confidence_rating, notes, recorded_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			stored.ID,
			username.String(),
			stored.Date,
			stored.Subject,
			stored.Chapter,
			stored.DurationMinutes.Int(),
			stored.Confidence.Int(),
			stored.Notes,
			stored.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListByUser returns the user's sessions ordered by insertion.
func (r *SessionRepository) ListByUser(ctx context.Context, username shared.Username) ([]study.Session, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, study_date, subject, chapter, duration_minutes, confidence_rating, notes, recorded_at
		FROM study_sessions
		WHERE username = $1
		ORDER BY recorded_at
	`, username.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]study.Session, 0)
	for rows.Next() {
		var (
			s          study.Session
			date       time.Time
			duration   int
			confidence int
		)
		if err := rows.Scan(&s.ID, &date, &s.Subject, &s.Chapter, &duration, &confidence, &s.Notes, &s.Timestamp); err != nil {
			return nil, shared.WrapError("study", "ListByUser", shared.ErrCorrupted, "failed to scan session", err)
		}
		s.Date = timeutil.DateOf(date)
		s.DurationMinutes = shared.Minutes(duration)
		s.Confidence = shared.Confidence(confidence)
		s.Timestamp = s.Timestamp.UTC()
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// DeleteByUser removes all of the user's sessions.
func (r *SessionRepository) DeleteByUser(ctx context.Context, username shared.Username) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM study_sessions WHERE username = $1`, username.String()); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}
