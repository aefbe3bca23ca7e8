package command

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/elevate-hub/elevate/internal/domain/account"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
)

var now = time.Date(2024, 5, 20, 18, 30, 0, 0, time.UTC)

// ─────────────────────────────────────────────────────────────────────────────
// Accounts
// ─────────────────────────────────────────────────────────────────────────────

type memAccounts struct {
	mu        sync.Mutex
	byName    map[shared.Username]account.Account
	getErr    error
	updateErr error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byName: make(map[shared.Username]account.Account)}
}

func (m *memAccounts) Create(_ context.Context, a *account.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[a.Username]; ok {
		return shared.ErrAccountAlreadyExists
	}
	m.byName[a.Username] = *a
	return nil
}

func (m *memAccounts) GetByUsername(_ context.Context, u shared.Username) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.byName[u]
	if !ok {
		return nil, shared.ErrAccountNotFound
	}
	return &a, nil
}

func (m *memAccounts) UpdatePasswordHash(_ context.Context, u shared.Username, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	a, ok := m.byName[u]
	if !ok {
		return shared.ErrAccountNotFound
	}
	a.PasswordHash = hash
	m.byName[u] = a
	return nil
}

func (m *memAccounts) Delete(_ context.Context, u shared.Username) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[u]; !ok {
		return shared.ErrAccountNotFound
	}
	delete(m.byName, u)
	return nil
}

func (m *memAccounts) ListUsernames(context.Context) ([]shared.Username, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]shared.Username, 0, len(m.byName))
	for u := range m.byName {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// plainHasher stores "hash:<pw>" and treats "legacy:<pw>" as an outdated scheme.
type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "hash:" + pw, nil }

func (plainHasher) Verify(hash, pw string) (bool, bool, error) {
	if legacy, ok := strings.CutPrefix(hash, "legacy:"); ok {
		return legacy == pw, legacy == pw, nil
	}
	return hash == "hash:"+pw, false, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Sessions
// ─────────────────────────────────────────────────────────────────────────────

type memSessions struct {
	mu        sync.Mutex
	byUser    map[shared.Username][]study.Session
	clock     func() time.Time
	listErr   error
	appendErr error
}

func newMemSessions() *memSessions {
	return &memSessions{byUser: make(map[shared.Username][]study.Session), clock: func() time.Time { return now }}
}

func (m *memSessions) Append(_ context.Context, u shared.Username, s *study.Session) (*study.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	stored := s.Stamped(study.NextTimestamp(m.clock(), study.LastTimestamp(m.byUser[u])))
	m.byUser[u] = append(m.byUser[u], stored)
	return &stored, nil
}

func (m *memSessions) ListByUser(_ context.Context, u shared.Username) ([]study.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]study.Session(nil), m.byUser[u]...), nil
}

func (m *memSessions) DeleteByUser(_ context.Context, u shared.Username) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUser, u)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Cache and backup sink
// ─────────────────────────────────────────────────────────────────────────────

type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Invalidate(_ context.Context, username string) {
	c.invalidated = append(c.invalidated, username)
}

type memSink struct {
	name string
	body []byte
	err  error
}

func (s *memSink) Store(_ context.Context, name string, body []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.name, s.body = name, body
	return "mem://" + name, nil
}
