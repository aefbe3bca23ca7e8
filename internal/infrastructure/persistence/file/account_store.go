package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/elevate-hub/elevate/internal/domain/account"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
)

// legacyCreatedLayout is the naive ISO timestamp older files carry.
const legacyCreatedLayout = "2006-01-02T15:04:05.999999"

// AccountsLockName is the lock every credential write takes. Usernames
// cannot contain '@', so it never collides with a user's own lock.
const AccountsLockName shared.Username = "@accounts"

// authRecord is one entry of user_auth.json.
type authRecord struct {
	PasswordHash string `json:"password_hash"`
	CreatedDate  string `json:"created_date"`
}

// AccountStore implements account.Repository over user_auth.json.
type AccountStore struct {
	layout Layout
	locker study.Locker
	mu     sync.Mutex
}

var _ account.Repository = (*AccountStore)(nil)

// NewAccountStore creates an AccountStore. locker serialises credential
// writers across processes and may be nil.
func NewAccountStore(layout Layout, locker study.Locker) *AccountStore {
	if locker == nil {
		locker = study.NopLocker{}
	}
	return &AccountStore{layout: layout, locker: locker}
}

// Create stores a new account.
func (s *AccountStore) Create(ctx context.Context, a *account.Account) error {
	release, err := s.lockWrite(ctx)
	if err != nil {
		return err
	}
	defer release()

	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[a.Username.String()]; ok {
		return shared.ErrAccountAlreadyExists
	}
	records[a.Username.String()] = authRecord{
		PasswordHash: a.PasswordHash,
		CreatedDate:  a.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	return s.save(records)
}

// GetByUsername returns the stored account.
func (s *AccountStore) GetByUsername(_ context.Context, username shared.Username) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	rec, ok := records[username.String()]
	if !ok {
		return nil, shared.ErrAccountNotFound
	}
	return &account.Account{
		Username:     username,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    parseCreated(rec.CreatedDate),
	}, nil
}

// UpdatePasswordHash replaces the stored hash.
func (s *AccountStore) UpdatePasswordHash(ctx context.Context, username shared.Username, hash string) error {
	release, err := s.lockWrite(ctx)
	if err != nil {
		return err
	}
	defer release()

	records, err := s.load()
	if err != nil {
		return err
	}
	rec, ok := records[username.String()]
	if !ok {
		return shared.ErrAccountNotFound
	}
	rec.PasswordHash = hash
	records[username.String()] = rec
	return s.save(records)
}

// Delete removes the account.
func (s *AccountStore) Delete(ctx context.Context, username shared.Username) error {
	release, err := s.lockWrite(ctx)
	if err != nil {
		return err
	}
	defer release()

	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[username.String()]; !ok {
		return shared.ErrAccountNotFound
	}
	delete(records, username.String())
	return s.save(records)
}

// ListUsernames returns every username sorted ascending.
func (s *AccountStore) ListUsernames(_ context.Context) ([]shared.Username, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]shared.Username, len(names))
	for i, name := range names {
		out[i] = shared.Username(name)
	}
	return out, nil
}

// lockWrite guards a read-modify-write of user_auth.json.
func (s *AccountStore) lockWrite(ctx context.Context) (func(), error) {
	s.mu.Lock()
	unlock, err := s.locker.Lock(ctx, AccountsLockName)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return func() {
		_ = unlock(context.WithoutCancel(ctx))
		s.mu.Unlock()
	}, nil
}

func (s *AccountStore) load() (map[string]authRecord, error) {
	raw, err := os.ReadFile(s.layout.AuthPath())
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]authRecord), nil
	}
	if err != nil {
		return nil, fmt.Errorf("file: read credentials: %w", err)
	}

	records := make(map[string]authRecord)
	if len(raw) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, shared.WrapError("account", "Load", shared.ErrCorrupted, "credential store could not be read", err)
	}
	return records, nil
}

func (s *AccountStore) save(records map[string]authRecord) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("file: encode credentials: %w", err)
	}
	if err := s.layout.Ensure(); err != nil {
		return err
	}
	return writeAtomic(s.layout.AuthPath(), raw)
}

func parseCreated(v string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC()
	}
	if t, err := time.ParseInLocation(legacyCreatedLayout, v, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}
