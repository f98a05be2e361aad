package pipeline

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoPending is returned when a commit is attempted without a request.
	ErrNoPending = errors.New("no pending transition")
	// ErrStageChanged is returned when the record is no longer in the stage
	// the transition was computed from.
	ErrStageChanged = errors.New("stage changed since the move was requested")
)

// PendingTransition is an advance the agent asked for but has not yet
// confirmed. It is never persisted.
type PendingTransition struct {
	ApplicantID int64 `json:"applicant_id"`
	From        Stage `json:"from"`
	Target      Stage `json:"target"`
}

// RequestAdvance computes the transition for an applicant at current.
// It returns nil for a terminal stage, in which case there is nothing to
// confirm and nothing should be shown.
func RequestAdvance(applicantID int64, current Stage) *PendingTransition {
	next, ok := Next(current)
	if !ok {
		return nil
	}
	return &PendingTransition{ApplicantID: applicantID, From: current, Target: next}
}

// Updater persists a stage change. Implementations must write the new stage
// and reset the days-in-stage counter in a single statement, and only when
// the record is still at from. Otherwise they return ErrStageChanged.
type Updater[T any] interface {
	SetStage(ctx context.Context, id int64, from, to Stage) (T, error)
}

// Machine commits stage transitions against a store whose records are T.
type Machine[T any] struct {
	store Updater[T]
}

// NewMachine returns a machine writing through store.
func NewMachine[T any](store Updater[T]) *Machine[T] {
	return &Machine[T]{store: store}
}

// CommitAdvance applies a confirmed transition and returns the updated
// record. On error the caller must leave its local copy untouched.
func (m *Machine[T]) CommitAdvance(ctx context.Context, p *PendingTransition) (T, error) {
	var zero T
	if p == nil {
		return zero, ErrNoPending
	}
	if next, ok := Next(p.From); !ok || next != p.Target {
		return zero, fmt.Errorf("moving applicant %d from %s to %s: not the next stage", p.ApplicantID, p.From, p.Target)
	}
	updated, err := m.store.SetStage(ctx, p.ApplicantID, p.From, p.Target)
	if err != nil {
		return zero, fmt.Errorf("moving applicant %d to %s: %w", p.ApplicantID, p.Target, err)
	}
	return updated, nil
}

// Advance requests and commits in one step, for callers that already have
// the agent's consent. The bool is false when current is terminal; no
// store call is made in that case.
func (m *Machine[T]) Advance(ctx context.Context, applicantID int64, current Stage) (T, bool, error) {
	var zero T
	p := RequestAdvance(applicantID, current)
	if p == nil {
		return zero, false, nil
	}
	updated, err := m.CommitAdvance(ctx, p)
	if err != nil {
		return zero, false, err
	}
	return updated, true, nil
}
