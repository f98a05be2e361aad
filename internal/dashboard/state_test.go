package dashboard

import (
	"errors"
	"fmt"
	"testing"

	"github.com/grhey0115/Tenant-Assessment/internal/applicant"
	"github.com/grhey0115/Tenant-Assessment/internal/note"
	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

func loaded(list []*applicant.Applicant) State {
	s := Reduce(NewState(), FetchStarted{Gen: 1})
	return Reduce(s, FetchSucceeded{Gen: 1, Applicants: list})
}

func many(n int) []*applicant.Applicant {
	out := make([]*applicant.Applicant, n)
	for i := range out {
		out[i] = &applicant.Applicant{ID: int64(i + 1), Name: fmt.Sprintf("Applicant %d", i+1), Stage: pipeline.StageLead}
	}
	return out
}

func TestRequestAdvanceApprovedIsNoop(t *testing.T) {
	s := loaded(sample())
	got := Reduce(s, RequestAdvance{ApplicantID: 4})
	if got.Pending != nil {
		t.Errorf("pending = %+v, want nil for approved applicant", got.Pending)
	}
}

func TestRequestAdvanceUnknownIsNoop(t *testing.T) {
	s := loaded(sample())
	if got := Reduce(s, RequestAdvance{ApplicantID: 99}); got.Pending != nil {
		t.Errorf("pending = %+v, want nil", got.Pending)
	}
}

func TestNoopRequestClearsEarlierPending(t *testing.T) {
	for _, id := range []int64{4, 99} {
		s := Reduce(loaded(sample()), RequestAdvance{ApplicantID: 1})
		if s.Pending == nil {
			t.Fatal("expected a pending move for applicant 1")
		}
		if got := Reduce(s, RequestAdvance{ApplicantID: id}); got.Pending != nil {
			t.Errorf("after request for %d pending = %+v, want nil", id, got.Pending)
		}
	}
}

func TestRequestWhileCommittingKeepsPending(t *testing.T) {
	s := Reduce(loaded(sample()), RequestAdvance{ApplicantID: 1})
	s = Reduce(s, CommitAdvanceStarted{})
	got := Reduce(s, RequestAdvance{ApplicantID: 4})
	if got.Pending == nil || got.Pending.ApplicantID != 1 {
		t.Errorf("pending = %+v, want the move being written", got.Pending)
	}
}

func TestRequestThenSuccess(t *testing.T) {
	s := Reduce(loaded(sample()), RequestAdvance{ApplicantID: 2})
	if s.Pending == nil || s.Pending.Target != pipeline.StageApplication {
		t.Fatalf("pending = %+v", s.Pending)
	}

	updated := *s.Find(2)
	updated.Stage = pipeline.StageApplication
	updated.DaysInStage = 0
	s = Reduce(s, CommitAdvanceStarted{})
	s = Reduce(s, CommitAdvanceSuccess{Applicant: &updated})

	if s.Pending != nil || s.Committing {
		t.Error("pending should be cleared after success")
	}
	if got := s.Find(2); got.Stage != pipeline.StageApplication || got.DaysInStage != 0 {
		t.Errorf("applicant 2 = %+v", got)
	}
	if got := s.Find(3); got.Stage != pipeline.StageShowing {
		t.Error("other applicants must not change")
	}
}

func TestFailureLeavesListUnchanged(t *testing.T) {
	before := loaded(sample())
	s := Reduce(before, RequestAdvance{ApplicantID: 1})
	s = Reduce(s, CommitAdvanceStarted{})
	s = Reduce(s, CommitAdvanceFailure{Err: errors.New("timeout")})

	if s.Pending != nil {
		t.Error("pending should be cleared after failure")
	}
	for i, a := range s.Applicants {
		if a != before.Applicants[i] {
			t.Errorf("applicant %d changed after failed commit", a.ID)
		}
	}
}

func TestRequestIgnoredWhileCommitting(t *testing.T) {
	s := Reduce(loaded(sample()), RequestAdvance{ApplicantID: 1})
	s = Reduce(s, CommitAdvanceStarted{})
	s = Reduce(s, RequestAdvance{ApplicantID: 2})
	if s.Pending.ApplicantID != 1 {
		t.Errorf("pending applicant = %d, want 1", s.Pending.ApplicantID)
	}
	s = Reduce(s, CancelAdvance{})
	if s.Pending == nil {
		t.Error("cancel must not drop a transition being written")
	}
}

func TestStaleFetchDiscarded(t *testing.T) {
	s := Reduce(NewState(), FetchStarted{Gen: 1})
	s = Reduce(s, FetchStarted{Gen: 2})
	s = Reduce(s, FetchSucceeded{Gen: 2, Applicants: sample()})
	s = Reduce(s, FetchSucceeded{Gen: 1, Applicants: nil})
	if len(s.Applicants) != 4 {
		t.Errorf("stale response overwrote list: %d applicants", len(s.Applicants))
	}
	s = Reduce(s, FetchFailed{Gen: 1, Err: errors.New("late")})
	if s.Err != "" {
		t.Errorf("stale failure recorded: %q", s.Err)
	}
}

func TestStaleNotesDiscarded(t *testing.T) {
	s := Reduce(loaded(sample()), SelectApplicant{ID: 1, Gen: 5})
	s = Reduce(s, SelectApplicant{ID: 2, Gen: 6})
	s = Reduce(s, NotesLoaded{Gen: 5, Notes: []*note.Note{{ApplicantID: 1, Text: "old"}}})
	if len(s.Notes) != 0 {
		t.Errorf("notes for a previous selection were applied")
	}
	s = Reduce(s, NotesLoaded{Gen: 6, Notes: []*note.Note{{ApplicantID: 2, Text: "new"}}})
	if len(s.Notes) != 1 || s.Notes[0].Text != "new" {
		t.Errorf("notes = %+v", s.Notes)
	}
}

func TestSetFilterResetsPage(t *testing.T) {
	s := loaded(many(25))
	s = Reduce(s, SetPage{Page: 3})
	if s.Page != 3 {
		t.Fatalf("page = %d, want 3", s.Page)
	}
	s = Reduce(s, SetFilter{Filter: Filter{Stage: All, Property: All, Search: "1"}})
	if s.Page != 1 {
		t.Errorf("page after filter = %d, want 1", s.Page)
	}
}

func TestSetPageOutOfRange(t *testing.T) {
	s := Reduce(loaded(many(25)), SetPage{Page: 2})
	for _, p := range []int{0, -1, 4} {
		if got := Reduce(s, SetPage{Page: p}); got.Page != 2 {
			t.Errorf("SetPage(%d) moved to %d, want 2", p, got.Page)
		}
	}
}

func TestBuildBoard(t *testing.T) {
	s := Reduce(loaded(many(12)), SetPage{Page: 2})
	s = Reduce(s, RequestAdvance{ApplicantID: 12})
	b := BuildBoard(s)

	if len(b.Items) != 2 || b.TotalPages != 2 || b.Total != 12 {
		t.Errorf("board items=%d pages=%d total=%d", len(b.Items), b.TotalPages, b.Total)
	}
	if b.PendingName != "Applicant 12" {
		t.Errorf("pending name = %q", b.PendingName)
	}
}
