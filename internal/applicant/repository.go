package applicant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

// Store is the applicant persistence the rest of the app depends on.
type Store interface {
	Insert(ctx context.Context, a *Applicant) (*Applicant, error)
	GetByID(ctx context.Context, id int64) (*Applicant, error)
	FetchAll(ctx context.Context) ([]*Applicant, error)
	Update(ctx context.Context, id int64, p Patch) (*Applicant, error)
	SetStage(ctx context.Context, id int64, from, to pipeline.Stage) (*Applicant, error)
}

// Repository is the SQLite-backed Store.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an applicant repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO applicants
	(name, phone, email, property, unit, budget, move_in_date, agent, priority,
	 source, contact_preference, notes, stage, days_in_stage, stage_changed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, CURRENT_TIMESTAMP)`

// Insert validates a and stores it as a new applicant.
func (r *Repository) Insert(ctx context.Context, a *Applicant) (*Applicant, error) {
	if err := a.Normalize(); err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, insertSQL,
		a.Name, a.Phone, a.Email, a.Property, a.Unit, a.Budget, a.MoveInDate,
		a.Agent, string(a.Priority), a.Source, string(a.ContactPreference),
		a.Notes, string(a.Stage),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting applicant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns one applicant.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Applicant, error) {
	raw, err := scanRow(r.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM applicants WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("applicant %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying applicant %d: %w", id, err)
	}
	return raw.decode()
}

// FetchAll returns every applicant, newest first. Rows that fail to decode
// are logged and left out so one bad record cannot hide the rest.
func (r *Repository) FetchAll(ctx context.Context) (list []*Applicant, err error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM applicants ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing applicants: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		raw, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning applicant: %w", err)
		}
		a, err := raw.decode()
		if err != nil {
			slog.Warn("skipping malformed applicant row", "err", err)
			continue
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating applicants: %w", err)
	}
	return list, nil
}

// Update applies the non-nil fields of p in one statement and returns the
// stored result.
func (r *Repository) Update(ctx context.Context, id int64, p Patch) (*Applicant, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalid)
		}
		set("name", name)
	}
	if p.Phone != nil {
		set("phone", *p.Phone)
	}
	if p.Email != nil {
		set("email", *p.Email)
	}
	if p.Property != nil {
		set("property", *p.Property)
	}
	if p.Unit != nil {
		set("unit", *p.Unit)
	}
	if p.Budget != nil {
		if *p.Budget < 0 {
			return nil, fmt.Errorf("%w: budget must not be negative", ErrInvalid)
		}
		set("budget", *p.Budget)
	}
	if p.MoveInDate != nil {
		set("move_in_date", *p.MoveInDate)
	}
	if p.Agent != nil {
		set("agent", *p.Agent)
	}
	if p.Priority != nil {
		if !p.Priority.valid() {
			return nil, fmt.Errorf("%w: invalid priority %q", ErrInvalid, *p.Priority)
		}
		set("priority", string(*p.Priority))
	}
	if p.Source != nil {
		set("source", *p.Source)
	}
	if p.ContactPreference != nil {
		if !p.ContactPreference.valid() {
			return nil, fmt.Errorf("%w: invalid contact preference %q", ErrInvalid, *p.ContactPreference)
		}
		set("contact_preference", string(*p.ContactPreference))
	}
	if p.Notes != nil {
		set("notes", *p.Notes)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := "UPDATE applicants SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	return r.updateOne(ctx, id, query, args...)
}

// SetStage moves an applicant from one stage to the next and resets its
// days-in-stage counter. The row only changes while it is still at from;
// a row that has moved on gives pipeline.ErrStageChanged.
func (r *Repository) SetStage(ctx context.Context, id int64, from, to pipeline.Stage) (*Applicant, error) {
	if next, ok := pipeline.Next(from); !ok || next != to {
		return nil, fmt.Errorf("%w: cannot move from %q to %q", ErrInvalid, from, to)
	}
	const query = `UPDATE applicants
		SET stage = ?, days_in_stage = 0,
		    stage_changed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stage = ?`
	res, err := r.db.ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		return nil, fmt.Errorf("updating applicant %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("applicant %d is %s, not %s: %w", id, current.Stage, from, pipeline.ErrStageChanged)
	}
	return r.GetByID(ctx, id)
}

// updateOne runs a single-row UPDATE and reads the row back.
func (r *Repository) updateOne(ctx context.Context, id int64, query string, args ...any) (*Applicant, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating applicant %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("applicant %d: %w", id, ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

// RecountDays recomputes days_in_stage from the time of the last stage
// change. It returns the number of rows touched.
func (r *Repository) RecountDays(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE applicants
		SET days_in_stage = MAX(0, CAST(julianday('now') - julianday(COALESCE(stage_changed_at, created_at)) AS INTEGER))`)
	if err != nil {
		return 0, fmt.Errorf("recounting days in stage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
