package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/internal/infrastructure/export/sessioncsv"
)

// SessionStore implements study.Repository over per-user CSV files.
type SessionStore struct {
	layout Layout
	locks  *keyedMutex
	locker study.Locker
	now    func() time.Time
}

var _ study.Repository = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore. locker serialises writers across
// processes and may be nil; now defaults to time.Now.
func NewSessionStore(layout Layout, locker study.Locker, now func() time.Time) *SessionStore {
	if locker == nil {
		locker = study.NopLocker{}
	}
	if now == nil {
		now = time.Now
	}
	return &SessionStore{layout: layout, locks: newKeyedMutex(), locker: locker, now: now}
}

// Append adds a session to the end of the user's file.
func (s *SessionStore) Append(ctx context.Context, username shared.Username, session *study.Session) (*study.Session, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	release, err := s.lockUser(ctx, username)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.read(username)
	if err != nil {
		return nil, err
	}

	stored := session.Stamped(study.NextTimestamp(s.now(), study.LastTimestamp(existing)))
	all := append(existing, stored)

	var buf bytes.Buffer
	if err := sessioncsv.Encode(&buf, all); err != nil {
		return nil, err
	}
	if err := s.layout.Ensure(); err != nil {
		return nil, err
	}
	if err := writeAtomic(s.layout.SessionPath(username), buf.Bytes()); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListByUser reads the user's file. A missing file is an empty history.
func (s *SessionStore) ListByUser(_ context.Context, username shared.Username) ([]study.Session, error) {
	return s.read(username)
}

// DeleteByUser removes the user's file.
func (s *SessionStore) DeleteByUser(ctx context.Context, username shared.Username) error {
	release, err := s.lockUser(ctx, username)
	if err != nil {
		return err
	}
	defer release()

	err = os.Remove(s.layout.SessionPath(username))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("file: delete sessions: %w", err)
	}
	return nil
}

// Path returns the file backing a user's sessions.
func (s *SessionStore) Path(username shared.Username) string {
	return s.layout.SessionPath(username)
}

// lockUser takes the in-process and the cross-process lock of a user.
func (s *SessionStore) lockUser(ctx context.Context, username shared.Username) (func(), error) {
	release := s.locks.Lock(username.String())
	unlock, err := s.locker.Lock(ctx, username)
	if err != nil {
		release()
		return nil, err
	}
	return func() {
		_ = unlock(context.WithoutCancel(ctx))
		release()
	}, nil
}

func (s *SessionStore) read(username shared.Username) ([]study.Session, error) {
	f, err := os.Open(s.layout.SessionPath(username))
	if errors.Is(err, os.ErrNotExist) {
		return []study.Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file: open sessions: %w", err)
	}
	defer f.Close()

	return sessioncsv.Decode(f)
}
