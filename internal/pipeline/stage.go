// Package pipeline defines the leasing pipeline stages and the rules for
// moving an applicant from one stage to the next.
package pipeline

import "fmt"

// Stage is a position in the leasing pipeline.
type Stage string

const (
	StageLead        Stage = "lead"
	StageContacted   Stage = "contacted"
	StageShowing     Stage = "showing"
	StageApplication Stage = "application"
	StageApproved    Stage = "approved"
)

// order is the one fixed path through the pipeline. approved is terminal.
var order = []Stage{StageLead, StageContacted, StageShowing, StageApplication, StageApproved}

var displayNames = map[Stage]string{
	StageLead:        "Lead",
	StageContacted:   "Contacted",
	StageShowing:     "Showing",
	StageApplication: "Applied",
	StageApproved:    "Approved",
}

var tags = map[Stage]string{
	StageLead:        "slate",
	StageContacted:   "blue",
	StageShowing:     "amber",
	StageApplication: "violet",
	StageApproved:    "green",
}

// Stages returns every stage in pipeline order.
func Stages() []Stage {
	out := make([]Stage, len(order))
	copy(out, order)
	return out
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := displayNames[s]
	return ok
}

// DisplayName is the label shown to agents.
func (s Stage) DisplayName() string {
	if name, ok := displayNames[s]; ok {
		return name
	}
	return string(s)
}

// Tag names the color used when rendering the stage.
func (s Stage) Tag() string {
	return tags[s]
}

// Terminal reports whether no stage follows s.
func (s Stage) Terminal() bool {
	return s == StageApproved
}

// ParseStage converts a stored or user-supplied value into a Stage.
func ParseStage(v string) (Stage, error) {
	s := Stage(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", v)
	}
	return s, nil
}

// Next returns the stage immediately after current. It returns false when
// current is terminal or unknown.
func Next(current Stage) (Stage, bool) {
	for i, s := range order {
		if s == current {
			if i+1 < len(order) {
				return order[i+1], true
			}
			return "", false
		}
	}
	return "", false
}
