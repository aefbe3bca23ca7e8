package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevate-hub/elevate/internal/domain/account"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
)

var fixedNow = time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

// recordingLocker logs every lock and unlock and fails when err is set.
type recordingLocker struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (l *recordingLocker) Lock(_ context.Context, username shared.Username) (study.Unlock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.events = append(l.events, "lock "+username.String())
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.events = append(l.events, "unlock "+username.String())
		return nil
	}, nil
}

func (l *recordingLocker) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func newSession(t *testing.T, subject string) *study.Session {
	t.Helper()
	s, err := study.NewSession(study.NewSessionParams{
		Date:            time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		Subject:         subject,
		Chapter:         "Intro",
		DurationMinutes: 30,
		Confidence:      3,
	})
	require.NoError(t, err)
	return s
}

func TestSessionStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(Layout{Dir: t.TempDir()}, nil, func() time.Time { return fixedNow })
	user := shared.Username("alice")

	list, err := store.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, list)

	first, err := store.Append(ctx, user, newSession(t, "Math"))
	require.NoError(t, err)
	second, err := store.Append(ctx, user, newSession(t, "Bio"))
	require.NoError(t, err)

	// Same clock reading, so the second stamp is pushed forward.
	assert.Equal(t, fixedNow, first.Timestamp)
	assert.True(t, second.Timestamp.After(first.Timestamp))

	list, err = store.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Math", list[0].Subject)
	assert.Equal(t, "Bio", list[1].Subject)
}

func TestSessionStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(Layout{Dir: t.TempDir()}, nil, nil)
	user := shared.Username("bob")

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Append(ctx, user, newSession(t, "Math"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := store.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, writers)
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i].Timestamp.After(list[i-1].Timestamp))
	}
}

func TestSessionStore_CorruptFileIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	layout := Layout{Dir: t.TempDir()}
	store := NewSessionStore(layout, nil, nil)
	user := shared.Username("carol")

	garbage := []byte("date,subject\nnot,a,valid,row\n")
	require.NoError(t, os.WriteFile(layout.SessionPath(user), garbage, 0o644))

	_, err := store.ListByUser(ctx, user)
	assert.ErrorIs(t, err, shared.ErrCorrupted)

	_, err = store.Append(ctx, user, newSession(t, "Math"))
	assert.ErrorIs(t, err, shared.ErrCorrupted)

	after, err := os.ReadFile(layout.SessionPath(user))
	require.NoError(t, err)
	assert.Equal(t, garbage, after)
}

func TestSessionStore_RejectsInvalidSession(t *testing.T) {
	store := NewSessionStore(Layout{Dir: t.TempDir()}, nil, nil)
	bad := newSession(t, "Math")
	bad.Confidence = 7

	_, err := store.Append(context.Background(), "dave", bad)
	assert.ErrorIs(t, err, shared.ErrInvalidConfidence)
}

func TestSessionStore_DeleteByUser(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(Layout{Dir: t.TempDir()}, nil, nil)
	user := shared.Username("erin")

	require.NoError(t, store.DeleteByUser(ctx, user))

	_, err := store.Append(ctx, user, newSession(t, "Math"))
	require.NoError(t, err)
	require.NoError(t, store.DeleteByUser(ctx, user))

	_, err = os.Stat(store.Path(user))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSessionStore_DeleteByUserTakesUserLock(t *testing.T) {
	ctx := context.Background()
	locker := &recordingLocker{}
	store := NewSessionStore(Layout{Dir: t.TempDir()}, locker, nil)
	user := shared.Username("frank")

	_, err := store.Append(ctx, user, newSession(t, "Math"))
	require.NoError(t, err)
	require.NoError(t, store.DeleteByUser(ctx, user))

	assert.Equal(t, []string{"lock frank", "unlock frank", "lock frank", "unlock frank"}, locker.Events())
}

func TestSessionStore_DeleteByUserKeepsFileWhenLocked(t *testing.T) {
	ctx := context.Background()
	locker := &recordingLocker{}
	store := NewSessionStore(Layout{Dir: t.TempDir()}, locker, nil)
	user := shared.Username("gina")

	_, err := store.Append(ctx, user, newSession(t, "Math"))
	require.NoError(t, err)

	locker.err = shared.ErrUserLocked
	assert.ErrorIs(t, store.DeleteByUser(ctx, user), shared.ErrUserLocked)

	_, err = os.Stat(store.Path(user))
	assert.NoError(t, err)
}

func TestWriteAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	require.NoError(t, writeAtomic(path, []byte("one")))
	require.NoError(t, writeAtomic(path, []byte("two")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAccountStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(Layout{Dir: t.TempDir()}, nil)

	acc, err := account.NewAccount("zoe", "hash-1", fixedNow)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, acc))

	err = store.Create(ctx, acc)
	assert.ErrorIs(t, err, shared.ErrAccountAlreadyExists)

	other, err := account.NewAccount("adam", "hash-2", fixedNow)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, other))

	names, err := store.ListUsernames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []shared.Username{"adam", "zoe"}, names)

	got, err := store.GetByUsername(ctx, "zoe")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", got.PasswordHash)
	assert.True(t, got.CreatedAt.Equal(fixedNow))

	require.NoError(t, store.UpdatePasswordHash(ctx, "zoe", "hash-3"))
	got, err = store.GetByUsername(ctx, "zoe")
	require.NoError(t, err)
	assert.Equal(t, "hash-3", got.PasswordHash)

	require.NoError(t, store.Delete(ctx, "zoe"))
	_, err = store.GetByUsername(ctx, "zoe")
	assert.ErrorIs(t, err, shared.ErrAccountNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "zoe"), shared.ErrAccountNotFound)
	assert.ErrorIs(t, store.UpdatePasswordHash(ctx, "zoe", "x"), shared.ErrAccountNotFound)
}

func TestAccountStore_LegacyFile(t *testing.T) {
	layout := Layout{Dir: t.TempDir()}
	raw := `{"old_user": {"password_hash": "abc", "created_date": "2023-09-01T10:11:12.000001"}}`
	require.NoError(t, os.WriteFile(layout.AuthPath(), []byte(raw), 0o644))

	got, err := NewAccountStore(layout, nil).GetByUsername(context.Background(), "old_user")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 9, 1, 10, 11, 12, 1000, time.UTC), got.CreatedAt)
}

func TestAccountStore_CorruptFile(t *testing.T) {
	layout := Layout{Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(layout.AuthPath(), []byte("{not json"), 0o644))
	store := NewAccountStore(layout, nil)

	_, err := store.GetByUsername(context.Background(), "zoe")
	assert.ErrorIs(t, err, shared.ErrCorrupted)

	acc, err := account.NewAccount("zoe", "h", fixedNow)
	require.NoError(t, err)
	assert.ErrorIs(t, store.Create(context.Background(), acc), shared.ErrCorrupted)
}

func TestAccountStore_WritesTakeAccountsLock(t *testing.T) {
	ctx := context.Background()
	locker := &recordingLocker{}
	store := NewAccountStore(Layout{Dir: t.TempDir()}, locker)

	acc, err := account.NewAccount("hank", "h1", fixedNow)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, acc))
	require.NoError(t, store.UpdatePasswordHash(ctx, "hank", "h2"))
	_, err = store.GetByUsername(ctx, "hank")
	require.NoError(t, err)
	_, err = store.ListUsernames(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "hank"))

	lockedOnce := []string{"lock @accounts", "unlock @accounts"}
	want := append(append(append([]string{}, lockedOnce...), lockedOnce...), lockedOnce...)
	assert.Equal(t, want, locker.Events())
	assert.False(t, AccountsLockName.IsValid())
}

func TestAccountStore_CreateFailsWhenLocked(t *testing.T) {
	layout := Layout{Dir: t.TempDir()}
	locker := &recordingLocker{err: shared.ErrUserLocked}
	store := NewAccountStore(layout, locker)

	acc, err := account.NewAccount("ivy", "h", fixedNow)
	require.NoError(t, err)
	assert.ErrorIs(t, store.Create(context.Background(), acc), shared.ErrUserLocked)

	_, err = os.Stat(layout.AuthPath())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
