package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Repository stores assessments and the properties and units they refer to.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an assessment repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a validated submission.
func (r *Repository) Insert(ctx context.Context, s *Submission) (*Assessment, error) {
	var owner int64
	err := r.db.QueryRowContext(ctx, "SELECT property_id FROM units WHERE id = ?", s.UnitID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != s.PropertyID) {
		return nil, ErrUnitMismatch
	}
	if err != nil {
		return nil, fmt.Errorf("checking unit %d: %w", s.UnitID, err)
	}

	obs, err := json.Marshal(nonNilObs(s.Observations))
	if err != nil {
		return nil, fmt.Errorf("encoding observations: %w", err)
	}
	notes, err := json.Marshal(nonNilNotes(s.Notes))
	if err != nil {
		return nil, fmt.Errorf("encoding notes: %w", err)
	}

	var rec sql.NullString
	if s.Recommendation != "" {
		rec = sql.NullString{String: string(s.Recommendation), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO assessments
		(showing_date, showing_time, property_id, unit_id, agent, prospect_name,
		 prospect_phone, prospect_email, observations_json, notes_json, voice_note_url, recommendation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ShowingDate, s.ShowingTime, s.PropertyID, s.UnitID, s.Agent, s.ProspectName,
		s.ProspectPhone, s.ProspectEmail, string(obs), string(notes), s.VoiceNoteURL, rec,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting assessment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

const selectAssessment = `SELECT a.id, a.showing_date, a.showing_time, a.property_id, a.unit_id,
	a.agent, a.prospect_name, a.prospect_phone, a.prospect_email, a.observations_json,
	a.notes_json, a.voice_note_url, a.recommendation, a.created_at,
	COALESCE(p.property_code, ''), COALESCE(p.name, ''), COALESCE(u.unit_number, '')
	FROM assessments a
	LEFT JOIN properties p ON p.id = a.property_id
	LEFT JOIN units u ON u.id = a.unit_id`

func scanAssessment(row interface{ Scan(...any) error }) (*Assessment, error) {
	var (
		a          Assessment
		obs, notes string
		rec        sql.NullString
	)
	err := row.Scan(&a.ID, &a.ShowingDate, &a.ShowingTime, &a.PropertyID, &a.UnitID,
		&a.Agent, &a.ProspectName, &a.ProspectPhone, &a.ProspectEmail, &obs,
		&notes, &a.VoiceNoteURL, &rec, &a.CreatedAt,
		&a.PropertyCode, &a.PropertyName, &a.UnitNumber)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(obs), &a.Observations); err != nil {
		return nil, fmt.Errorf("assessment %d: decoding observations: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(notes), &a.Notes); err != nil {
		return nil, fmt.Errorf("assessment %d: decoding notes: %w", a.ID, err)
	}
	a.Recommendation = Recommendation(rec.String)
	return &a, nil
}

// GetByID returns one assessment.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Assessment, error) {
	a, err := scanAssessment(r.db.QueryRowContext(ctx, selectAssessment+" WHERE a.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying assessment %d: %w", id, err)
	}
	return a, nil
}

// List returns all assessments, newest first.
func (r *Repository) List(ctx context.Context) (list []*Assessment, err error) {
	rows, err := r.db.QueryContext(ctx, selectAssessment+" ORDER BY a.created_at DESC, a.id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assessment: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assessments: %w", err)
	}
	return list, nil
}

// AddProperty creates a property.
func (r *Repository) AddProperty(ctx context.Context, code, name string) (*Property, error) {
	code, name = strings.TrimSpace(code), strings.TrimSpace(name)
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: property code and name are required", ErrInvalid)
	}
	res, err := r.db.ExecContext(ctx, "INSERT INTO properties (property_code, name) VALUES (?, ?)", code, name)
	if err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}
	return &Property{ID: id, Code: code, Name: name}, nil
}

// Properties lists properties by name.
func (r *Repository) Properties(ctx context.Context) (props []*Property, err error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, property_code, name FROM properties ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var p Property
		if err := rows.Scan(&p.ID, &p.Code, &p.Name); err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		props = append(props, &p)
	}
	return props, rows.Err()
}

// AddUnit creates an available unit in a property.
func (r *Repository) AddUnit(ctx context.Context, propertyID int64, number string) (*Unit, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, fmt.Errorf("%w: unit number is required", ErrInvalid)
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO units (property_id, unit_number, status) VALUES (?, ?, ?)",
		propertyID, number, UnitAvailable)
	if err != nil {
		return nil, fmt.Errorf("inserting unit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}
	return &Unit{ID: id, PropertyID: propertyID, Number: number, Status: UnitAvailable}, nil
}

// AvailableUnits lists the units of a property that can be shown.
func (r *Repository) AvailableUnits(ctx context.Context, propertyID int64) (units []*Unit, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, property_id, unit_number, status FROM units
		 WHERE property_id = ? AND status = ? ORDER BY unit_number`,
		propertyID, UnitAvailable)
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.PropertyID, &u.Number, &u.Status); err != nil {
			return nil, fmt.Errorf("scanning unit: %w", err)
		}
		units = append(units, &u)
	}
	return units, rows.Err()
}

func nonNilObs(m map[string][]string) map[string][]string {
	if m == nil {
		return map[string][]string{}
	}
	return m
}

func nonNilNotes(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
