// Package scriptstore writes live-edited script sources back to disk and keeps
// a history of saved edits in SQLite.
package scriptstore

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Outcome of a save.
const (
	OutcomeWritten   = "written"
	OutcomeUnchanged = "unchanged"
)

// Record is one saved live edit.
type Record struct {
	ID       string
	Path     string
	ScriptID int
	Hash     string
	Size     int
	Outcome  string
	SavedAt  time.Time
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Store recording history in db, which must have been opened with
// storage.OpenSQLite.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Hash returns the hex BLAKE3 fingerprint of text.
func Hash(text []byte) string {
	sum := blake3.Sum256(text)
	return hex.EncodeToString(sum[:])
}

// Save writes text to path unless the file already holds the same content,
// and records the attempt.
func (s *Store) Save(ctx context.Context, scriptID int, path, text string) (Record, error) {
	if path == "" {
		return Record{}, fmt.Errorf("script path is empty")
	}

	rec := Record{
		ID:       uuid.NewString(),
		Path:     path,
		ScriptID: scriptID,
		Hash:     Hash([]byte(text)),
		Size:     len(text),
		Outcome:  OutcomeWritten,
		SavedAt:  s.now().UTC(),
	}

	current, err := os.ReadFile(path)
	switch {
	case err == nil && Hash(current) == rec.Hash:
		rec.Outcome = OutcomeUnchanged
	case err == nil || errors.Is(err, fs.ErrNotExist):
		if err := writeAtomic(path, []byte(text)); err != nil {
			return Record{}, err
		}
	default:
		return Record{}, fmt.Errorf("read %s: %w", path, err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO live_edit_log (id, path, script_id, hash, size, outcome, saved_at) VALUES (?, ?, ?, ?, ?, ?, ?);",
		rec.ID, rec.Path, rec.ScriptID, rec.Hash, rec.Size, rec.Outcome, rec.SavedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("record live edit: %w", err)
	}
	return rec, nil
}

// History returns the saved edits of path, newest first.
func (s *Store) History(ctx context.Context, path string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, path, script_id, hash, size, outcome, saved_at FROM live_edit_log WHERE path = ? ORDER BY saved_at DESC, rowid DESC;",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("query live edit history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			savedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Path, &rec.ScriptID, &rec.Hash, &rec.Size, &rec.Outcome, &savedAt); err != nil {
			return nil, fmt.Errorf("scan live edit: %w", err)
		}
		rec.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt)
		if err != nil {
			return nil, fmt.Errorf("parse saved_at %q: %w", savedAt, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// writeAtomic replaces path via a temp file in the same directory, keeping the
// existing file mode.
func writeAtomic(path string, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
