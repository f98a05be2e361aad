package applicant

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

// DecodeError reports a stored row that does not describe a valid applicant.
type DecodeError struct {
	ID     int64
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("applicant %d: malformed %s: %s", e.ID, e.Field, e.Reason)
}

const selectColumns = `id, name, phone, email, property, unit, budget, move_in_date, agent,
	priority, source, contact_preference, notes, stage, days_in_stage, stage_changed_at,
	created_at, updated_at`

// row mirrors the table with nullable types so that bad data surfaces
// as a DecodeError rather than a zero value.
type row struct {
	id                int64
	name              sql.NullString
	phone             sql.NullString
	email             sql.NullString
	property          sql.NullString
	unit              sql.NullString
	budget            sql.NullInt64
	moveInDate        sql.NullString
	agent             sql.NullString
	priority          sql.NullString
	source            sql.NullString
	contactPreference sql.NullString
	notes             sql.NullString
	stage             sql.NullString
	daysInStage       sql.NullInt64
	stageChangedAt    sql.NullTime
	createdAt         time.Time
	updatedAt         time.Time
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*row, error) {
	var r row
	err := s.Scan(
		&r.id, &r.name, &r.phone, &r.email, &r.property, &r.unit, &r.budget,
		&r.moveInDate, &r.agent, &r.priority, &r.source, &r.contactPreference,
		&r.notes, &r.stage, &r.daysInStage, &r.stageChangedAt,
		&r.createdAt, &r.updatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *row) decode() (*Applicant, error) {
	if !r.name.Valid || r.name.String == "" {
		return nil, &DecodeError{ID: r.id, Field: "name", Reason: "empty"}
	}
	stage := pipeline.Stage(r.stage.String)
	if !r.stage.Valid || !stage.Valid() {
		return nil, &DecodeError{ID: r.id, Field: "stage", Reason: fmt.Sprintf("unknown value %q", r.stage.String)}
	}
	if !r.daysInStage.Valid || r.daysInStage.Int64 < 0 {
		return nil, &DecodeError{ID: r.id, Field: "days_in_stage", Reason: "missing or negative"}
	}

	a := &Applicant{
		ID:                r.id,
		Name:              r.name.String,
		Phone:             r.phone.String,
		Email:             r.email.String,
		Property:          r.property.String,
		Unit:              r.unit.String,
		MoveInDate:        r.moveInDate.String,
		Agent:             r.agent.String,
		Priority:          Priority(r.priority.String),
		Source:            r.source.String,
		ContactPreference: ContactPreference(r.contactPreference.String),
		Notes:             r.notes.String,
		Stage:             stage,
		DaysInStage:       int(r.daysInStage.Int64),
		CreatedAt:         r.createdAt,
		UpdatedAt:         r.updatedAt,
	}
	if r.budget.Valid {
		b := r.budget.Int64
		a.Budget = &b
	}
	if r.stageChangedAt.Valid {
		t := r.stageChangedAt.Time
		a.StageChangedAt = &t
	}
	if !a.Priority.valid() {
		a.Priority = PriorityWarm
	}
	if !a.ContactPreference.valid() {
		a.ContactPreference = ContactCall
	}
	return a, nil
}
