// Package cache provides the default decision cache backend: a directory of
// one file per commit identifier, each holding a single-character decision.
// The format is deliberately human-editable; correcting a wrong decision means
// editing or deleting the file by hand.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bkyoung/backport/internal/domain"
)

// DirStore persists decisions as files under a single directory.
type DirStore struct {
	dir string
}

// NewDirStore opens (creating if needed) a directory-backed decision cache.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return &DirStore{dir: dir}, nil
}

// Get returns the recorded decision for the commit, if any.
func (s *DirStore) Get(ctx context.Context, id domain.CommitID) (domain.Decision, bool, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read decision for %s: %w", id, err)
	}
	decision, err := domain.ParseDecision(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false, fmt.Errorf("decision file for %s: %w", id, err)
	}
	return decision, true, nil
}

// Set records a decision for the commit. Last write wins.
func (s *DirStore) Set(ctx context.Context, id domain.CommitID, decision domain.Decision) error {
	payload := decision.Payload() + "\n"
	if err := os.WriteFile(s.path(id), []byte(payload), 0o644); err != nil {
		return fmt.Errorf("write decision for %s: %w", id, err)
	}
	return nil
}

// Close is a no-op; the directory store holds no open handles.
func (s *DirStore) Close() error {
	return nil
}

func (s *DirStore) path(id domain.CommitID) string {
	return filepath.Join(s.dir, id.String())
}
