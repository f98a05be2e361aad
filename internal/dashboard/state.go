package dashboard

import (
	"github.com/grhey0115/Tenant-Assessment/internal/applicant"
	"github.com/grhey0115/Tenant-Assessment/internal/note"
	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

// State is everything the board shows. It is only changed by Reduce.
type State struct {
	Applicants []*applicant.Applicant
	Filter     Filter
	Page       int
	Pending    *pipeline.PendingTransition
	Committing bool
	Loading    bool
	Err        string

	Selected int64
	Notes    []*note.Note

	fetchGen uint64
	notesGen uint64
}

// Action is a change to State.
type Action interface {
	isAction()
}

type (
	// FetchStarted marks a list fetch with generation Gen as in flight.
	FetchStarted struct{ Gen uint64 }
	// FetchSucceeded delivers the list for generation Gen.
	FetchSucceeded struct {
		Gen        uint64
		Applicants []*applicant.Applicant
	}
	// FetchFailed reports that generation Gen could not be loaded.
	FetchFailed struct {
		Gen uint64
		Err error
	}
	// SelectApplicant opens an applicant's detail and starts its notes fetch.
	SelectApplicant struct {
		ID  int64
		Gen uint64
	}
	// NotesLoaded delivers notes for the selection made with Gen.
	NotesLoaded struct {
		Gen   uint64
		Notes []*note.Note
	}
	// NoteAdded prepends a note the agent just wrote.
	NoteAdded struct{ Note *note.Note }
	// ApplicantAdded puts a new applicant at the top of the list.
	ApplicantAdded struct{ Applicant *applicant.Applicant }

	// RequestAdvance asks to move an applicant one stage forward.
	RequestAdvance struct{ ApplicantID int64 }
	// CancelAdvance discards the pending transition.
	CancelAdvance struct{}
	// CommitAdvanceStarted locks the pending transition while it is written.
	CommitAdvanceStarted struct{}
	// CommitAdvanceSuccess patches the stored result into the list.
	CommitAdvanceSuccess struct{ Applicant *applicant.Applicant }
	// CommitAdvanceFailure drops the pending transition and keeps the list.
	CommitAdvanceFailure struct{ Err error }

	// SetFilter replaces the filter and returns to page one.
	SetFilter struct{ Filter Filter }
	// SetPage moves to another page when it exists.
	SetPage struct{ Page int }
)

func (FetchStarted) isAction()         {}
func (FetchSucceeded) isAction()       {}
func (FetchFailed) isAction()          {}
func (SelectApplicant) isAction()      {}
func (NotesLoaded) isAction()          {}
func (NoteAdded) isAction()            {}
func (ApplicantAdded) isAction()       {}
func (RequestAdvance) isAction()       {}
func (CancelAdvance) isAction()        {}
func (CommitAdvanceStarted) isAction() {}
func (CommitAdvanceSuccess) isAction() {}
func (CommitAdvanceFailure) isAction() {}
func (SetFilter) isAction()            {}
func (SetPage) isAction()              {}

// NewState returns the empty board on page one.
func NewState() State {
	return State{Page: 1, Filter: Filter{Stage: All, Property: All}}
}

// Filtered is the applicant list after the current filter.
func (s State) Filtered() []*applicant.Applicant {
	return Apply(s.Applicants, s.Filter)
}

// Find returns the applicant with id from the local list.
func (s State) Find(id int64) *applicant.Applicant {
	for _, a := range s.Applicants {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Reduce applies a to s and returns the new state. It never calls out.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case FetchStarted:
		s.fetchGen = a.Gen
		s.Loading = true
	case FetchSucceeded:
		if a.Gen != s.fetchGen {
			return s
		}
		s.Applicants = a.Applicants
		s.Loading = false
		s.Err = ""
		s.Page = clampPage(s.Page, len(s.Filtered()))
	case FetchFailed:
		if a.Gen != s.fetchGen {
			return s
		}
		s.Loading = false
		s.Err = a.Err.Error()

	case SelectApplicant:
		s.Selected = a.ID
		s.notesGen = a.Gen
		s.Notes = nil
	case NotesLoaded:
		if a.Gen != s.notesGen {
			return s
		}
		s.Notes = a.Notes
	case NoteAdded:
		if a.Note != nil && a.Note.ApplicantID == s.Selected {
			s.Notes = append([]*note.Note{a.Note}, s.Notes...)
		}
	case ApplicantAdded:
		s.Applicants = append([]*applicant.Applicant{a.Applicant}, s.Applicants...)

	case RequestAdvance:
		if s.Committing {
			return s
		}
		// A request that cannot move anyone replaces an earlier one.
		s.Pending = nil
		if target := s.Find(a.ApplicantID); target != nil {
			s.Pending = pipeline.RequestAdvance(target.ID, target.Stage)
		}
	case CancelAdvance:
		if !s.Committing {
			s.Pending = nil
		}
	case CommitAdvanceStarted:
		if s.Pending != nil {
			s.Committing = true
		}
	case CommitAdvanceSuccess:
		s.Pending = nil
		s.Committing = false
		s.Applicants = patch(s.Applicants, a.Applicant)
		s.Page = clampPage(s.Page, len(s.Filtered()))
	case CommitAdvanceFailure:
		s.Pending = nil
		s.Committing = false

	case SetFilter:
		s.Filter = a.Filter
		s.Page = 1
	case SetPage:
		if a.Page >= 1 && a.Page <= TotalPages(len(s.Filtered()), PerPage) {
			s.Page = a.Page
		}
	}
	return s
}

// patch returns a copy of list with the entry sharing updated's id replaced.
func patch(list []*applicant.Applicant, updated *applicant.Applicant) []*applicant.Applicant {
	if updated == nil {
		return list
	}
	out := make([]*applicant.Applicant, len(list))
	copy(out, list)
	for i, a := range out {
		if a.ID == updated.ID {
			out[i] = updated
		}
	}
	return out
}

// clampPage keeps page valid after the list shrinks.
func clampPage(page, n int) int {
	if total := TotalPages(n, PerPage); page > total {
		return total
	}
	if page < 1 {
		return 1
	}
	return page
}
