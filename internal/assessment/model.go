// Package assessment handles the tenant assessment an agent fills in after
// a showing, and the review and analytics built over submitted assessments.
package assessment

import (
	"errors"
	"time"
)

var (
	// ErrUnitMismatch is returned when the chosen unit is not in the chosen property.
	ErrUnitMismatch = errors.New("unit does not belong to property")
	// ErrNotFound is returned when an assessment does not exist.
	ErrNotFound = errors.New("assessment not found")
	// ErrInvalid marks a property or unit missing a required field.
	ErrInvalid = errors.New("invalid input")
)

// Recommendation is the agent's bottom line on the prospect.
type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendMaybe   Recommendation = "maybe"
	RecommendHellNo  Recommendation = "hell-no"
)

// Valid reports whether r is a known recommendation. Empty is not valid.
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendApprove, RecommendMaybe, RecommendHellNo:
		return true
	}
	return false
}

// Label is the display text. A missing recommendation shows as N/A.
func (r Recommendation) Label() string {
	switch r {
	case RecommendApprove:
		return "Approve"
	case RecommendMaybe:
		return "Maybe"
	case RecommendHellNo:
		return "Hell No"
	}
	return "N/A"
}

// Submission is what the intake form sends.
type Submission struct {
	ShowingDate    string              `json:"date" validate:"required,date"`
	ShowingTime    string              `json:"time" validate:"required,clock"`
	PropertyID     int64               `json:"property_id" validate:"required,gt=0"`
	UnitID         int64               `json:"unit_id" validate:"required,gt=0"`
	Agent          string              `json:"agent" validate:"required,max=100"`
	ProspectName   string              `json:"prospect_name" validate:"required,max=200"`
	ProspectPhone  string              `json:"prospect_phone" validate:"required,phone"`
	ProspectEmail  string              `json:"prospect_email" validate:"omitempty,email"`
	Observations   map[string][]string `json:"observations"`
	Notes          map[string]string   `json:"notes"`
	VoiceNoteURL   string              `json:"voice_note_url" validate:"omitempty,url"`
	Recommendation Recommendation      `json:"recommendation" validate:"omitempty,recommendation"`
}

// Assessment is a stored submission with its property and unit resolved.
type Assessment struct {
	ID int64 `json:"id"`
	Submission
	PropertyCode string    `json:"property_code"`
	PropertyName string    `json:"property_name"`
	UnitNumber   string    `json:"unit_number"`
	CreatedAt    time.Time `json:"created_at"`
}

// Property is a building units belong to.
type Property struct {
	ID   int64  `json:"id"`
	Code string `json:"property_code"`
	Name string `json:"name"`
}

// Unit is a rentable unit in a property.
type Unit struct {
	ID         int64  `json:"id"`
	PropertyID int64  `json:"property_id"`
	Number     string `json:"unit_number"`
	Status     string `json:"status"`
}

// UnitAvailable is the status of a unit that can be shown.
const UnitAvailable = "available"
