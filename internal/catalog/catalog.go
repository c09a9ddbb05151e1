// Package catalog provides persistent storage for fragment manifests
// using SQLite, standing in for the real array directory listing a
// production implementation would consult (spec §9 "Fragment
// discovery"). Adapted from the teacher's job-table store: same
// migrate/CREATE TABLE IF NOT EXISTS pattern, swapped to fragment rows
// ordered by write time instead of job rows ordered by submission.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// FragmentRecord is one registered fragment: enough to locate its
// manifest/data on disk and to assign it its precedence id (lowest
// WrittenAt first becomes fragment index 0, the oldest).
type FragmentRecord struct {
	ID           string
	ArrayID      string
	ManifestPath string
	WrittenAt    time.Time
}

// Store is the fragment catalog, backed by a single SQLite file.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the catalog database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("catalog: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS fragments (
		id TEXT PRIMARY KEY,
		array_id TEXT NOT NULL,
		manifest_path TEXT NOT NULL,
		written_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fragments_array ON fragments(array_id);
	CREATE INDEX IF NOT EXISTS idx_fragments_array_written ON fragments(array_id, written_at);
	`)
	return err
}

// Register records a fragment's manifest against an array, returning
// the new fragment's catalog id. WrittenAt governs its eventual
// fragment-index assignment in ListByArray, not this call's ordering.
func (s *Store) Register(arrayID, manifestPath string, writtenAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	// Fixed-width UTC timestamps sort chronologically as text, which
	// ListByArray's ORDER BY written_at relies on.
	_, err := s.db.Exec(
		`INSERT INTO fragments (id, array_id, manifest_path, written_at) VALUES (?, ?, ?, ?)`,
		id, arrayID, manifestPath, writtenAt.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
	)
	if err != nil {
		return "", fmt.Errorf("catalog: register fragment: %w", err)
	}
	return id, nil
}

// ListByArray returns arrayID's fragments oldest-first — the order
// readstate.Construct requires so array index doubles as fragment id.
func (s *Store) ListByArray(arrayID string) ([]FragmentRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, array_id, manifest_path, written_at FROM fragments WHERE array_id = ? ORDER BY written_at ASC`,
		arrayID,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: list fragments: %w", err)
	}
	defer rows.Close()

	var out []FragmentRecord
	for rows.Next() {
		var rec FragmentRecord
		var writtenAtStr string
		if err := rows.Scan(&rec.ID, &rec.ArrayID, &rec.ManifestPath, &writtenAtStr); err != nil {
			return nil, fmt.Errorf("catalog: scan fragment: %w", err)
		}
		rec.WrittenAt, err = time.Parse(time.RFC3339Nano, writtenAtStr)
		if err != nil {
			return nil, fmt.Errorf("catalog: parse written_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Deregister removes a fragment from the catalog (consolidation /
// vacuum of a superseded fragment).
func (s *Store) Deregister(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM fragments WHERE id = ?`, id)
	return err
}
