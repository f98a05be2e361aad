// Package db opens the SQLite database and keeps its schema current.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath returns ~/.tenant-assessment/ta.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".tenant-assessment", "ta.db"), nil
}

// Open opens or creates the database at path, applies pragmas and
// migrations, and returns the handle ready for use.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	// Connection-scoped settings go in the DSN so every pooled connection
	// gets them.
	d, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := prepare(d); err != nil {
		if cerr := d.Close(); cerr != nil {
			return nil, fmt.Errorf("%w (also failed to close: %v)", err, cerr)
		}
		return nil, err
	}

	return d, nil
}

func prepare(d *sql.DB) error {
	if _, err := d.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enabling WAL: %w", err)
	}
	if err := migrate(d); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
