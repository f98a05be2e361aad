package db

import (
	"database/sql"
	"fmt"
)

// schema is applied in order on every open; each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		property_code TEXT    NOT NULL UNIQUE,
		name          TEXT    NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS units (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		property_id INTEGER NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		unit_number TEXT    NOT NULL,
		status      TEXT    NOT NULL DEFAULT 'available',
		UNIQUE (property_id, unit_number)
	)`,
	`CREATE TABLE IF NOT EXISTS applicants (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		name               TEXT    NOT NULL,
		phone              TEXT    NOT NULL DEFAULT '',
		email              TEXT    NOT NULL DEFAULT '',
		property           TEXT    NOT NULL DEFAULT '',
		unit               TEXT    NOT NULL DEFAULT '',
		budget             INTEGER,
		move_in_date       TEXT    NOT NULL DEFAULT '',
		agent              TEXT    NOT NULL DEFAULT '',
		priority           TEXT    NOT NULL DEFAULT 'warm',
		source             TEXT    NOT NULL DEFAULT '',
		contact_preference TEXT    NOT NULL DEFAULT 'call',
		notes              TEXT    NOT NULL DEFAULT '',
		stage              TEXT    NOT NULL DEFAULT 'lead',
		days_in_stage      INTEGER NOT NULL DEFAULT 0,
		created_at         DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at         DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_applicants_created ON applicants(created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS applicant_notes (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		applicant_id INTEGER NOT NULL REFERENCES applicants(id) ON DELETE CASCADE,
		author       TEXT    NOT NULL DEFAULT '',
		text         TEXT    NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS assessments (
		id                    INTEGER PRIMARY KEY AUTOINCREMENT,
		showing_date          TEXT    NOT NULL,
		showing_time          TEXT    NOT NULL,
		property_id           INTEGER NOT NULL REFERENCES properties(id),
		unit_id               INTEGER NOT NULL REFERENCES units(id),
		agent                 TEXT    NOT NULL,
		prospect_name         TEXT    NOT NULL,
		prospect_phone        TEXT    NOT NULL,
		prospect_email        TEXT    NOT NULL DEFAULT '',
		observations_json     TEXT    NOT NULL DEFAULT '{}',
		notes_json            TEXT    NOT NULL DEFAULT '{}',
		voice_note_url        TEXT    NOT NULL DEFAULT '',
		recommendation        TEXT,
		created_at            DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		token      TEXT     NOT NULL UNIQUE,
		email      TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		used       INTEGER  DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		email      TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS passkey_credentials (
		id              TEXT    PRIMARY KEY,
		email           TEXT    NOT NULL,
		name            TEXT    NOT NULL DEFAULT '',
		credential_json TEXT    NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		name         TEXT     NOT NULL,
		email        TEXT     NOT NULL DEFAULT '',
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS authorized_users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		email      TEXT    NOT NULL UNIQUE,
		name       TEXT    NOT NULL DEFAULT '',
		is_agent   INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// columns lists columns added after the first release. They are added
// only when missing so older databases upgrade in place.
var columns = []struct {
	table, column, definition string
}{
	{"applicants", "stage_changed_at", "DATETIME"},
	{"units", "rent", "INTEGER"},
}

func migrate(d *sql.DB) error {
	for i, stmt := range schema {
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}

	for _, c := range columns {
		if err := addColumn(d, c.table, c.column, c.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", c.table, c.column, err)
		}
	}
	return nil
}

// Columns returns the column names of table in declaration order.
func Columns(d *sql.DB, table string) (cols []string, err error) {
	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("reading table info for %s: %w", table, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning column info: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func addColumn(d *sql.DB, table, column, definition string) error {
	cols, err := Columns(d, table)
	if err != nil {
		return err
	}
	for _, c := range cols {
		if c == column {
			return nil
		}
	}
	_, err = d.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
