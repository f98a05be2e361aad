// Package note stores the append-only annotations agents leave on an
// applicant.
package note

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyText is returned when a note has no content.
var ErrEmptyText = errors.New("note text is required")

// Note is an immutable annotation on one applicant.
type Note struct {
	ID          int64     `json:"id"`
	ApplicantID int64     `json:"applicant_id"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository reads and appends notes. Notes are never edited or removed
// here; they go away only when their applicant is deleted.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a note repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add appends a note to an applicant.
func (r *Repository) Add(ctx context.Context, applicantID int64, author, text string) (*Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO applicant_notes (applicant_id, author, text) VALUES (?, ?, ?)",
		applicantID, author, text,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	var n Note
	err = r.db.QueryRowContext(ctx,
		"SELECT id, applicant_id, author, text, created_at FROM applicant_notes WHERE id = ?", id,
	).Scan(&n.ID, &n.ApplicantID, &n.Author, &n.Text, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading back note: %w", err)
	}
	return &n, nil
}

// ListByApplicant returns an applicant's notes, newest first.
func (r *Repository) ListByApplicant(ctx context.Context, applicantID int64) (notes []*Note, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, applicant_id, author, text, created_at FROM applicant_notes
		 WHERE applicant_id = ? ORDER BY created_at DESC, id DESC`,
		applicantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.ApplicantID, &n.Author, &n.Text, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return notes, nil
}
