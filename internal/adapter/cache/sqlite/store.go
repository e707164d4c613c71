// Package sqlite provides a SQLite-backed decision cache for setups that
// prefer a single database file over a directory of decision files.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bkyoung/backport/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements the decision cache on SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) a SQLite decision cache at the given
// path. Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	-- One decision per commit identifier; payload mirrors the directory
	-- backend format: 'b' backport, 's' skip, 'p' pick.
	CREATE TABLE IF NOT EXISTS decisions (
		commit_id TEXT PRIMARY KEY,
		decision TEXT NOT NULL CHECK(decision IN ('b', 's', 'p')),
		recorded_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the recorded decision for the commit, if any.
func (s *Store) Get(ctx context.Context, id domain.CommitID) (domain.Decision, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT decision FROM decisions WHERE commit_id = ?`, id.String(),
	).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get decision for %s: %w", id, err)
	}

	decision, err := domain.ParseDecision(payload)
	if err != nil {
		return 0, false, fmt.Errorf("decision row for %s: %w", id, err)
	}
	return decision, true, nil
}

// Set records a decision for the commit. Last write wins.
func (s *Store) Set(ctx context.Context, id domain.CommitID, decision domain.Decision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (commit_id, decision, recorded_at)
		VALUES (?, ?, ?)
		ON CONFLICT(commit_id) DO UPDATE SET
			decision = excluded.decision,
			recorded_at = excluded.recorded_at
	`, id.String(), decision.Payload(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set decision for %s: %w", id, err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
