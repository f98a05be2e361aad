package web

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/grhey0115/Tenant-Assessment/internal/applicant"
	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

func seedApplicant(t *testing.T, srv *Server, name string) *applicant.Applicant {
	t.Helper()
	a, err := srv.applicants.Insert(context.Background(), &applicant.Applicant{
		Name:     name,
		Phone:    "555-0100",
		Property: "Maple Court",
		Unit:     "101",
		Agent:    "Dana",
	})
	if err != nil {
		t.Fatalf("insert applicant: %v", err)
	}
	return a
}

// moveTo walks a forward through the pipeline until it reaches stage.
func moveTo(t *testing.T, srv *Server, a *applicant.Applicant, stage pipeline.Stage) *applicant.Applicant {
	t.Helper()
	m := pipeline.NewMachine[*applicant.Applicant](srv.applicants)
	for a.Stage != stage {
		next, moved, err := m.Advance(context.Background(), a.ID, a.Stage)
		if err != nil || !moved {
			t.Fatalf("advance %s from %s: moved=%v err=%v", a.Name, a.Stage, moved, err)
		}
		a = next
	}
	return a
}

func applicantPath(a *applicant.Applicant, tail string) string {
	p := "/admin/applicants/" + strconv.FormatInt(a.ID, 10)
	if tail != "" {
		p += "/" + tail
	}
	return p
}

func TestDashboardListsApplicants(t *testing.T) {
	srv := testServer(t)
	seedApplicant(t, srv, "Ana Ruiz")
	seedApplicant(t, srv, "Ben Ode")

	w := getPage(t, srv, "/admin/dashboard", signIn(t, srv, testAdmin))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{"Ana Ruiz", "Ben Ode", "Lead 2", "2 applicants"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestDashboardAdvanceNeedsConfirmation(t *testing.T) {
	srv := testServer(t)
	a := seedApplicant(t, srv, "Ana Ruiz")
	cookie := signIn(t, srv, testAdmin)

	w := formRequest(t, srv, applicantPath(a, "advance"), cookie, url.Values{})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("advance status = %d, want %d", w.Code, http.StatusSeeOther)
	}

	got, err := srv.applicants.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stage != pipeline.StageLead {
		t.Errorf("stage before confirm = %q, want %q", got.Stage, pipeline.StageLead)
	}

	w = getPage(t, srv, "/admin/dashboard", cookie)
	if !strings.Contains(w.Body.String(), "Move applicant?") {
		t.Fatal("expected confirmation dialog")
	}

	w = formRequest(t, srv, "/admin/dashboard/confirm", cookie, url.Values{})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("confirm status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	got, err = srv.applicants.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stage != pipeline.StageContacted {
		t.Errorf("stage after confirm = %q, want %q", got.Stage, pipeline.StageContacted)
	}

	w = getPage(t, srv, "/admin/dashboard", cookie)
	body := w.Body.String()
	if strings.Contains(body, "Move applicant?") {
		t.Error("dialog still shown after confirm")
	}
	if !strings.Contains(body, "Moved Ana Ruiz to Contacted") {
		t.Error("expected success toast")
	}
}

func TestDashboardCancelLeavesStage(t *testing.T) {
	srv := testServer(t)
	a := seedApplicant(t, srv, "Ana Ruiz")
	cookie := signIn(t, srv, testAdmin)

	formRequest(t, srv, applicantPath(a, "advance"), cookie, url.Values{})
	formRequest(t, srv, "/admin/dashboard/cancel", cookie, url.Values{})

	got, err := srv.applicants.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stage != pipeline.StageLead {
		t.Errorf("stage = %q, want %q", got.Stage, pipeline.StageLead)
	}
	w := getPage(t, srv, "/admin/dashboard", cookie)
	if strings.Contains(w.Body.String(), "Move applicant?") {
		t.Error("dialog still shown after cancel")
	}
}

func TestBoardsAreSeparatePerSession(t *testing.T) {
	srv := testServer(t)
	a := seedApplicant(t, srv, "Ana Ruiz")
	first := signIn(t, srv, testAdmin)
	second := signIn(t, srv, testAdmin)

	formRequest(t, srv, applicantPath(a, "advance"), first, url.Values{})

	w := getPage(t, srv, "/admin/dashboard", second)
	if strings.Contains(w.Body.String(), "Move applicant?") {
		t.Error("pending move leaked into another session")
	}
}

func TestStaleConfirmDoesNotMoveBackward(t *testing.T) {
	srv := testServer(t)
	a := seedApplicant(t, srv, "Ana Ruiz")
	first := signIn(t, srv, testAdmin)
	second := signIn(t, srv, testAdmin)

	formRequest(t, srv, applicantPath(a, "advance"), first, url.Values{})
	for i := 0; i < 2; i++ {
		formRequest(t, srv, applicantPath(a, "advance"), second, url.Values{})
		formRequest(t, srv, "/admin/dashboard/confirm", second, url.Values{})
	}

	w := formRequest(t, srv, "/admin/dashboard/confirm", first, url.Values{})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("confirm status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	got, err := srv.applicants.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stage != pipeline.StageShowing {
		t.Errorf("stage = %q, want %q", got.Stage, pipeline.StageShowing)
	}
	body := getPage(t, srv, "/admin/dashboard", first).Body.String()
	if !strings.Contains(body, "no longer in Lead") {
		t.Error("expected stage-changed modal")
	}
}

func TestDashboardFilter(t *testing.T) {
	srv := testServer(t)
	seedApplicant(t, srv, "Ana Ruiz")
	seedApplicant(t, srv, "Ben Ode")
	cookie := signIn(t, srv, testAdmin)

	w := formRequest(t, srv, "/admin/dashboard/filter", cookie, url.Values{"search": {"ana"}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("filter status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	body := getPage(t, srv, "/admin/dashboard", cookie).Body.String()
	if !strings.Contains(body, "Ana Ruiz") {
		t.Error("filtered board missing Ana")
	}
	if strings.Contains(body, "Ben Ode") {
		t.Error("filtered board still shows Ben")
	}
}

func TestDashboardPagination(t *testing.T) {
	srv := testServer(t)
	for i := 0; i < 12; i++ {
		seedApplicant(t, srv, "Applicant "+strconv.Itoa(i))
	}
	cookie := signIn(t, srv, testAdmin)

	body := getPage(t, srv, "/admin/dashboard", cookie).Body.String()
	if !strings.Contains(body, `name="page" value="2"`) {
		t.Error("expected a second page")
	}

	formRequest(t, srv, "/admin/dashboard/page", cookie, url.Values{"page": {"2"}})
	body = getPage(t, srv, "/admin/dashboard", cookie).Body.String()
	if got := strings.Count(body, "/advance"); got != 2 {
		t.Errorf("page 2 rows = %d, want 2", got)
	}
}

func TestAdminAddApplicant(t *testing.T) {
	srv := testServer(t)
	cookie := signIn(t, srv, testAdmin)

	w := formRequest(t, srv, "/admin/applicants", cookie, url.Values{
		"name":     {"Cleo Park"},
		"budget":   {"1800"},
		"priority": {"hot"},
	})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}

	list, err := srv.applicants.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Cleo Park" {
		t.Fatalf("applicants = %+v, want Cleo Park", list)
	}
	if list[0].Budget == nil || *list[0].Budget != 1800 {
		t.Errorf("budget = %v, want 1800", list[0].Budget)
	}

	body := getPage(t, srv, "/admin/dashboard", cookie).Body.String()
	if !strings.Contains(body, "Cleo Park") {
		t.Error("new applicant not on the board")
	}
}

func TestApplicantPageAndNotes(t *testing.T) {
	srv := testServer(t)
	a := seedApplicant(t, srv, "Ana Ruiz")
	cookie := signIn(t, srv, testAdmin)

	w := getPage(t, srv, applicantPath(a, ""), cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "Move to Contacted") {
		t.Error("expected next stage button")
	}

	w = formRequest(t, srv, applicantPath(a, "notes"), cookie, url.Values{"text": {"Prefers mornings"}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("note status = %d, want %d", w.Code, http.StatusSeeOther)
	}

	body := getPage(t, srv, applicantPath(a, ""), cookie).Body.String()
	if !strings.Contains(body, "Prefers mornings") {
		t.Error("note not shown")
	}
	if !strings.Contains(body, testAdmin+", ") {
		t.Error("note author not shown")
	}
}

func TestApplicantPageNotFound(t *testing.T) {
	srv := testServer(t)
	w := getPage(t, srv, "/admin/applicants/999", signIn(t, srv, testAdmin))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestApprovedApplicantHasNoNextStage(t *testing.T) {
	srv := testServer(t)
	a := seedApplicant(t, srv, "Ana Ruiz")
	moveTo(t, srv, a, pipeline.StageApproved)

	body := getPage(t, srv, applicantPath(a, ""), signIn(t, srv, testAdmin)).Body.String()
	if strings.Contains(body, "Move to") {
		t.Error("approved applicant offers a next stage")
	}
}

func TestSignOutDropsBoard(t *testing.T) {
	srv := testServer(t)
	cookie := signIn(t, srv, testAdmin)
	getPage(t, srv, "/admin/dashboard", cookie)
	if n := srv.boards.Len(); n != 1 {
		t.Fatalf("boards = %d, want 1", n)
	}

	formRequest(t, srv, "/auth/logout", cookie, url.Values{})
	if n := srv.boards.Len(); n != 0 {
		t.Errorf("boards after sign out = %d, want 0", n)
	}
}

func TestExpiredSessionDropsBoard(t *testing.T) {
	srv, d, _ := testServerWithDB(t)
	cookie := signIn(t, srv, testAdmin)
	getPage(t, srv, "/admin/dashboard", cookie)
	if n := srv.boards.Len(); n != 1 {
		t.Fatalf("boards = %d, want 1", n)
	}

	if _, err := d.Exec("UPDATE sessions SET expires_at = ?", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("expire session: %v", err)
	}
	if err := srv.Sessions().Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n := srv.boards.Len(); n != 0 {
		t.Errorf("boards after expiry = %d, want 0", n)
	}
}

func TestEvaluationsPage(t *testing.T) {
	srv := testServer(t)
	p, u := seedProperty(t, srv)
	formRequest(t, srv, "/form", nil, validForm(p, u, "confirm"))
	cookie := signIn(t, srv, testAdmin)

	w := getPage(t, srv, "/admin/evaluations", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{"Sam Lee", "Maple Court", "By recommendation", "1 evaluation"} {
		if !strings.Contains(body, want) {
			t.Errorf("evaluations missing %q", want)
		}
	}

	body = getPage(t, srv, "/admin/evaluations?recommendation=maybe", cookie).Body.String()
	if strings.Contains(body, "Sam Lee") {
		t.Error("filter did not exclude the approve assessment")
	}
}

func TestSettingsPage(t *testing.T) {
	srv := testServer(t)
	w := getPage(t, srv, "/admin/settings", signIn(t, srv, testAdmin))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{"Passkeys", "API keys", "Users"} {
		if !strings.Contains(body, want) {
			t.Errorf("settings missing %q", want)
		}
	}
}
