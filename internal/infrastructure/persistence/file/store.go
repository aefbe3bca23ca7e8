// Package file implements the default storage backend: one CSV file of
// sessions per user plus a JSON credentials file, all under one directory.
//
// Writers replace files atomically (temp file, fsync, rename), so readers
// never see a partial file and take no locks.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/elevate-hub/elevate/internal/domain/shared"
)

const (
	sessionFileSuffix = "_study_data.csv"
	authFileName      = "user_auth.json"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Layout resolves paths inside the data directory.
type Layout struct {
	Dir string
}

// SessionPath returns the CSV path of a user.
func (l Layout) SessionPath(username shared.Username) string {
	return filepath.Join(l.Dir, username.String()+sessionFileSuffix)
}

// AuthPath returns the credentials file path.
func (l Layout) AuthPath() string {
	return filepath.Join(l.Dir, authFileName)
}

// Ensure creates the data directory.
func (l Layout) Ensure() error {
	if err := os.MkdirAll(l.Dir, dirPerm); err != nil {
		return fmt.Errorf("file: create data dir: %w", err)
	}
	return nil
}

// writeAtomic replaces path with data so that readers see either the old
// or the new content.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("file: create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("file: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("file: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("file: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		cleanup()
		return fmt.Errorf("file: chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("file: rename: %w", err)
	}

	// Persist the rename itself. Not supported everywhere, so best effort.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// keyedMutex hands out one mutex per key and forgets idle keys.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is held and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
