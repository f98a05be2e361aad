package pipeline

import (
	"context"
	"errors"
	"testing"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from   Stage
		want   Stage
		wantOK bool
	}{
		{StageLead, StageContacted, true},
		{StageContacted, StageShowing, true},
		{StageShowing, StageApplication, true},
		{StageApplication, StageApproved, true},
		{StageApproved, "", false},
		{Stage("archived"), "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got, ok := Next(tt.from)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Next(%q) = (%q, %v), want (%q, %v)", tt.from, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestWalkReachesApprovedInFourSteps(t *testing.T) {
	s := StageLead
	steps := 0
	for {
		next, ok := Next(s)
		if !ok {
			break
		}
		s = next
		steps++
	}
	if s != StageApproved || steps != 4 {
		t.Errorf("walk ended at %q after %d steps, want approved after 4", s, steps)
	}
}

func TestDisplayName(t *testing.T) {
	if got := StageApplication.DisplayName(); got != "Applied" {
		t.Errorf("DisplayName = %q, want Applied", got)
	}
	for _, s := range Stages() {
		if s.DisplayName() == "" || s.Tag() == "" {
			t.Errorf("stage %q missing display name or tag", s)
		}
	}
}

func TestParseStage(t *testing.T) {
	if _, err := ParseStage("showing"); err != nil {
		t.Errorf("ParseStage(showing): %v", err)
	}
	if _, err := ParseStage("Showing"); err == nil {
		t.Error("expected error for wrong case")
	}
}

func TestRequestAdvance(t *testing.T) {
	if p := RequestAdvance(3, StageApproved); p != nil {
		t.Errorf("RequestAdvance(approved) = %+v, want nil", p)
	}

	p := RequestAdvance(3, StageShowing)
	if p == nil {
		t.Fatal("expected pending transition")
	}
	if p.ApplicantID != 3 || p.From != StageShowing || p.Target != StageApplication {
		t.Errorf("pending = %+v", p)
	}
}

type record struct {
	ID    int64
	Stage Stage
	Days  int
}

type fakeStore struct {
	records map[int64]*record
	calls   int
	err     error
}

func (f *fakeStore) SetStage(_ context.Context, id int64, from, to Stage) (record, error) {
	f.calls++
	if f.err != nil {
		return record{}, f.err
	}
	r := f.records[id]
	if r.Stage != from {
		return record{}, ErrStageChanged
	}
	r.Stage = to
	r.Days = 0
	return *r, nil
}

func TestCommitAdvance(t *testing.T) {
	store := &fakeStore{records: map[int64]*record{1: {ID: 1, Stage: StageShowing, Days: 6}}}
	m := NewMachine[record](store)

	got, err := m.CommitAdvance(context.Background(), RequestAdvance(1, StageShowing))
	if err != nil {
		t.Fatalf("CommitAdvance: %v", err)
	}
	if got.Stage != StageApplication || got.Days != 0 {
		t.Errorf("record = %+v, want application with 0 days", got)
	}
	if store.calls != 1 {
		t.Errorf("store calls = %d, want 1", store.calls)
	}
}

func TestCommitAdvanceNilPending(t *testing.T) {
	m := NewMachine[record](&fakeStore{})
	if _, err := m.CommitAdvance(context.Background(), nil); !errors.Is(err, ErrNoPending) {
		t.Errorf("err = %v, want ErrNoPending", err)
	}
}

func TestCommitAdvanceFailure(t *testing.T) {
	remote := errors.New("connection refused")
	store := &fakeStore{err: remote}
	m := NewMachine[record](store)

	_, err := m.CommitAdvance(context.Background(), &PendingTransition{ApplicantID: 2, From: StageLead, Target: StageContacted})
	if !errors.Is(err, remote) {
		t.Errorf("err = %v, want wrapped remote error", err)
	}
}

func TestCommitAdvanceStaleFrom(t *testing.T) {
	store := &fakeStore{records: map[int64]*record{1: {ID: 1, Stage: StageApproved}}}
	m := NewMachine[record](store)

	// Requested while the record was still in showing.
	_, err := m.CommitAdvance(context.Background(), RequestAdvance(1, StageShowing))
	if !errors.Is(err, ErrStageChanged) {
		t.Fatalf("err = %v, want ErrStageChanged", err)
	}
	if store.records[1].Stage != StageApproved {
		t.Errorf("stage = %q, want approved", store.records[1].Stage)
	}
}

func TestCommitAdvanceRejectsSkips(t *testing.T) {
	store := &fakeStore{records: map[int64]*record{1: {ID: 1, Stage: StageLead}}}
	m := NewMachine[record](store)

	for _, p := range []*PendingTransition{
		{ApplicantID: 1, From: StageLead, Target: StageShowing},
		{ApplicantID: 1, From: StageShowing, Target: StageLead},
		{ApplicantID: 1, From: StageApproved, Target: StageApplication},
	} {
		if _, err := m.CommitAdvance(context.Background(), p); err == nil {
			t.Errorf("CommitAdvance(%s -> %s) succeeded", p.From, p.Target)
		}
	}
	if store.calls != 0 {
		t.Errorf("store calls = %d, want 0", store.calls)
	}
}

func TestAdvanceTerminalSkipsStore(t *testing.T) {
	store := &fakeStore{}
	m := NewMachine[record](store)

	_, moved, err := m.Advance(context.Background(), 9, StageApproved)
	if err != nil || moved {
		t.Errorf("Advance(approved) = (%v, %v), want (false, nil)", moved, err)
	}
	if store.calls != 0 {
		t.Errorf("store calls = %d, want 0", store.calls)
	}
}

func TestAdvanceFused(t *testing.T) {
	store := &fakeStore{records: map[int64]*record{4: {ID: 4, Stage: StageLead, Days: 2}}}
	m := NewMachine[record](store)

	got, moved, err := m.Advance(context.Background(), 4, StageLead)
	if err != nil || !moved {
		t.Fatalf("Advance = (%v, %v)", moved, err)
	}
	if got.Stage != StageContacted {
		t.Errorf("stage = %q, want contacted", got.Stage)
	}
}
