// Package backup stores timestamped copies of a user's session file, either
// in a local directory or in an S3 bucket.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// DefaultDir is where local backups go unless configured otherwise.
const DefaultDir = "data/backups"

// Name returns the backup object name for a user at instant t.
func Name(username string, t time.Time) string {
	return fmt.Sprintf("%s_study_backup_%s.csv", username, t.Format(timeutil.FormatFileStamp))
}

// LocalSink writes backups into a directory.
type LocalSink struct {
	dir string
}

// NewLocalSink creates a sink rooted at dir.
func NewLocalSink(dir string) *LocalSink {
	if dir == "" {
		dir = DefaultDir
	}
	return &LocalSink{dir: dir}
}

// Store writes body under name and returns the file path.
func (s *LocalSink) Store(_ context.Context, name string, body []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create dir: %w", err)
	}
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("backup: write %s: %w", path, err)
	}
	return path, nil
}
