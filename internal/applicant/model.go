// Package applicant stores prospective tenants and their place in the
// leasing pipeline.
package applicant

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

// ErrNotFound is returned when no applicant has the requested id.
var ErrNotFound = errors.New("applicant not found")

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid applicant")

// Priority is how warm the lead is.
type Priority string

const (
	PriorityHot  Priority = "hot"
	PriorityWarm Priority = "warm"
	PriorityCold Priority = "cold"
)

// ContactPreference is how the applicant wants to be reached.
type ContactPreference string

const (
	ContactCall  ContactPreference = "call"
	ContactText  ContactPreference = "text"
	ContactEmail ContactPreference = "email"
)

func (p Priority) valid() bool {
	switch p {
	case PriorityHot, PriorityWarm, PriorityCold:
		return true
	}
	return false
}

func (c ContactPreference) valid() bool {
	switch c {
	case ContactCall, ContactText, ContactEmail:
		return true
	}
	return false
}

// Applicant is a prospective tenant moving through the pipeline.
type Applicant struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Phone             string            `json:"phone"`
	Email             string            `json:"email"`
	Property          string            `json:"property"`
	Unit              string            `json:"unit"`
	Budget            *int64            `json:"budget,omitempty"`
	MoveInDate        string            `json:"move_in_date,omitempty"`
	Agent             string            `json:"agent"`
	Priority          Priority          `json:"priority"`
	Source            string            `json:"source"`
	ContactPreference ContactPreference `json:"contact_preference"`
	Notes             string            `json:"notes"`
	Stage             pipeline.Stage    `json:"stage"`
	DaysInStage       int               `json:"days_in_stage"`
	StageChangedAt    *time.Time        `json:"stage_changed_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Normalize fills defaults and checks the fields a new applicant needs.
func (a *Applicant) Normalize() error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if a.Stage == "" {
		a.Stage = pipeline.StageLead
	}
	if !a.Stage.Valid() {
		return fmt.Errorf("%w: invalid stage %q", ErrInvalid, a.Stage)
	}
	if a.Priority == "" {
		a.Priority = PriorityWarm
	}
	if !a.Priority.valid() {
		return fmt.Errorf("%w: invalid priority %q", ErrInvalid, a.Priority)
	}
	if a.ContactPreference == "" {
		a.ContactPreference = ContactCall
	}
	if !a.ContactPreference.valid() {
		return fmt.Errorf("%w: invalid contact preference %q", ErrInvalid, a.ContactPreference)
	}
	if a.Budget != nil && *a.Budget < 0 {
		return fmt.Errorf("%w: budget must not be negative", ErrInvalid)
	}
	if a.MoveInDate != "" {
		if _, err := time.Parse(time.DateOnly, a.MoveInDate); err != nil {
			return fmt.Errorf("%w: move-in date must be YYYY-MM-DD: %w", ErrInvalid, err)
		}
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name              *string            `json:"name,omitempty"`
	Phone             *string            `json:"phone,omitempty"`
	Email             *string            `json:"email,omitempty"`
	Property          *string            `json:"property,omitempty"`
	Unit              *string            `json:"unit,omitempty"`
	Budget            *int64             `json:"budget,omitempty"`
	MoveInDate        *string            `json:"move_in_date,omitempty"`
	Agent             *string            `json:"agent,omitempty"`
	Priority          *Priority          `json:"priority,omitempty"`
	Source            *string            `json:"source,omitempty"`
	ContactPreference *ContactPreference `json:"contact_preference,omitempty"`
	Notes             *string            `json:"notes,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}
