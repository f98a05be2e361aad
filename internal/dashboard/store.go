package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/grhey0115/Tenant-Assessment/internal/applicant"
	"github.com/grhey0115/Tenant-Assessment/internal/note"
	"github.com/grhey0115/Tenant-Assessment/internal/notify"
	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

// ErrBusy is returned when a stage change is already being written.
var ErrBusy = errors.New("a stage change is already in progress")

// NoteStore is the subset of note storage the board uses.
type NoteStore interface {
	ListByApplicant(ctx context.Context, applicantID int64) ([]*note.Note, error)
	Add(ctx context.Context, applicantID int64, author, text string) (*note.Note, error)
}

// Store serializes every change to one agent's board. Remote calls run
// without the lock held; their results come back as actions.
type Store struct {
	mu      sync.Mutex
	state   State
	nextGen uint64

	applicants applicant.Store
	machine    *pipeline.Machine[*applicant.Applicant]
	notes      NoteStore
	notices    *notify.Center
}

// NewStore builds an empty board over the given stores.
func NewStore(applicants applicant.Store, notes NoteStore) *Store {
	return &Store{
		state:      NewState(),
		applicants: applicants,
		machine:    pipeline.NewMachine[*applicant.Applicant](applicants),
		notes:      notes,
		notices:    notify.NewCenter(),
	}
}

// Notices is where the board's toasts and modals go.
func (s *Store) Notices() *notify.Center {
	return s.notices
}

// Dispatch applies a and returns the resulting state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGen++
	return s.nextGen
}

// Loaded reports whether a list fetch has ever been started.
func (s *Store) Loaded() bool {
	return s.Snapshot().fetchGen != 0
}

// Refresh reloads the applicant list. A response that arrives after a
// newer Refresh started is dropped.
func (s *Store) Refresh(ctx context.Context) error {
	gen := s.generation()
	s.Dispatch(FetchStarted{Gen: gen})

	list, err := s.applicants.FetchAll(ctx)
	if err != nil {
		st := s.Dispatch(FetchFailed{Gen: gen, Err: err})
		if st.fetchGen == gen {
			s.notices.Modal("Could not load applicants", err.Error(), notify.KindError)
		}
		return fmt.Errorf("loading applicants: %w", err)
	}
	s.Dispatch(FetchSucceeded{Gen: gen, Applicants: list})
	return nil
}

// Select opens an applicant and loads its notes.
func (s *Store) Select(ctx context.Context, id int64) error {
	gen := s.generation()
	s.Dispatch(SelectApplicant{ID: id, Gen: gen})

	notes, err := s.notes.ListByApplicant(ctx, id)
	if err != nil {
		if s.Snapshot().notesGen == gen {
			s.notices.Modal("Could not load notes", err.Error(), notify.KindError)
		}
		return fmt.Errorf("loading notes for applicant %d: %w", id, err)
	}
	s.Dispatch(NotesLoaded{Gen: gen, Notes: notes})
	return nil
}

// AddNote appends a note to the selected applicant.
func (s *Store) AddNote(ctx context.Context, applicantID int64, author, text string) (*note.Note, error) {
	n, err := s.notes.Add(ctx, applicantID, author, text)
	if err != nil {
		if errors.Is(err, note.ErrEmptyText) {
			s.notices.Modal("Note not saved", "Write something before saving.", notify.KindError)
		} else {
			s.notices.Modal("Note not saved", err.Error(), notify.KindError)
		}
		return nil, err
	}
	s.Dispatch(NoteAdded{Note: n})
	s.notices.Toast("Note added")
	return n, nil
}

// AddApplicant stores a new applicant and shows it at the top of the board.
func (s *Store) AddApplicant(ctx context.Context, a *applicant.Applicant) (*applicant.Applicant, error) {
	created, err := s.applicants.Insert(ctx, a)
	if err != nil {
		s.notices.Modal("Applicant not saved", err.Error(), notify.KindError)
		return nil, err
	}
	s.Dispatch(ApplicantAdded{Applicant: created})
	s.notices.Toast(fmt.Sprintf("Added %s", created.Name))
	return created, nil
}

// RequestAdvance records the next-stage move for id and returns it for
// confirmation. It returns nil for an approved or unknown applicant, and
// while another move is being written.
func (s *Store) RequestAdvance(id int64) *pipeline.PendingTransition {
	p := s.Dispatch(RequestAdvance{ApplicantID: id}).Pending
	if p == nil || p.ApplicantID != id {
		return nil
	}
	return p
}

// CancelAdvance discards the pending move.
func (s *Store) CancelAdvance() {
	s.Dispatch(CancelAdvance{})
}

// ConfirmAdvance writes the pending move. On success the list entry is
// replaced with the stored applicant; on failure the list is unchanged and
// an error modal is shown. Either way the pending move is cleared.
func (s *Store) ConfirmAdvance(ctx context.Context) (*applicant.Applicant, error) {
	s.mu.Lock()
	if s.state.Committing {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	pending := s.state.Pending
	if pending == nil {
		s.mu.Unlock()
		return nil, pipeline.ErrNoPending
	}
	name := ""
	if a := s.state.Find(pending.ApplicantID); a != nil {
		name = a.Name
	}
	s.state = Reduce(s.state, CommitAdvanceStarted{})
	s.mu.Unlock()

	updated, err := s.machine.CommitAdvance(ctx, pending)
	if err != nil {
		s.Dispatch(CommitAdvanceFailure{Err: err})
		slog.Warn("stage change failed", "applicant", pending.ApplicantID, "target", pending.Target, "err", err)
		msg := fmt.Sprintf("Could not move %s to %s. Please try again.", nameOr(name, pending.ApplicantID), pending.Target.DisplayName())
		if errors.Is(err, pipeline.ErrStageChanged) {
			msg = fmt.Sprintf("%s is no longer in %s. Refresh the board to see the current stage.",
				nameOr(name, pending.ApplicantID), pending.From.DisplayName())
		}
		s.notices.Modal("Stage not updated", msg, notify.KindError)
		return nil, err
	}

	s.Dispatch(CommitAdvanceSuccess{Applicant: updated})
	s.notices.Toast(fmt.Sprintf("Moved %s to %s", updated.Name, updated.Stage.DisplayName()))
	return updated, nil
}

// AdvanceNow requests and confirms in one step. It returns nil without
// error when the applicant is already approved.
func (s *Store) AdvanceNow(ctx context.Context, id int64) (*applicant.Applicant, error) {
	if s.RequestAdvance(id) == nil {
		if s.Snapshot().Committing {
			return nil, ErrBusy
		}
		return nil, nil
	}
	return s.ConfirmAdvance(ctx)
}

// SetFilter changes the filter and returns to page one.
func (s *Store) SetFilter(f Filter) {
	s.Dispatch(SetFilter{Filter: f})
}

// SetPage changes page when it is within range.
func (s *Store) SetPage(page int) {
	s.Dispatch(SetPage{Page: page})
}

func nameOr(name string, id int64) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("applicant %d", id)
}
