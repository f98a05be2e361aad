package web

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/grhey0115/Tenant-Assessment/internal/assessment"
)

func seedProperty(t *testing.T, srv *Server) (*assessment.Property, *assessment.Unit) {
	t.Helper()
	ctx := context.Background()
	p, err := srv.assessments.AddProperty(ctx, "MAPLE", "Maple Court")
	if err != nil {
		t.Fatalf("add property: %v", err)
	}
	u, err := srv.assessments.AddUnit(ctx, p.ID, "101")
	if err != nil {
		t.Fatalf("add unit: %v", err)
	}
	return p, u
}

func validForm(p *assessment.Property, u *assessment.Unit, step string) url.Values {
	return url.Values{
		"step":                  {step},
		"date":                  {"2026-10-18"},
		"time":                  {"14:30"},
		"property_id":           {strconv.FormatInt(p.ID, 10)},
		"unit_id":               {strconv.FormatInt(u.ID, 10)},
		"agent":                 {"Dana"},
		"prospect_name":         {"Sam Lee"},
		"prospect_phone":        {"(555) 123-4567"},
		"prospect_email":        {"sam@example.com"},
		"positive_observations": {"Asked good questions"},
		"additional_notes":      {"Lives with a sister, lease ends in December."},
		"recommendation":        {"approve"},
	}
}

func TestFormRendersPublicly(t *testing.T) {
	srv := testServer(t)
	p, _ := seedProperty(t, srv)

	w := getPage(t, srv, "/form?property_id="+strconv.FormatInt(p.ID, 10), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{"Maple Court", "Quick Observations", `value="approve"`, ">101<"} {
		if !strings.Contains(body, want) {
			t.Errorf("form missing %q", want)
		}
	}
}

func TestFormReviewStep(t *testing.T) {
	srv, _, sender := testServerWithDB(t)
	p, u := seedProperty(t, srv)

	w := formRequest(t, srv, "/form", nil, validForm(p, u, "review"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "Review assessment") {
		t.Error("expected the review page")
	}
	if !strings.Contains(body, `name="step" value="confirm"`) {
		t.Error("review page missing submit button")
	}

	list, err := srv.assessments.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("review stored %d assessments, want 0", len(list))
	}
	if n := len(sender.sent()); n != 0 {
		t.Errorf("review sent %d emails, want 0", n)
	}
}

func TestFormValidationErrors(t *testing.T) {
	srv := testServer(t)
	p, u := seedProperty(t, srv)

	form := validForm(p, u, "review")
	form.Del("prospect_name")
	form.Set("prospect_phone", "call me")
	form.Set("positive_observations", "Brought cookies")

	w := formRequest(t, srv, "/form", nil, form)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	body := w.Body.String()
	for _, want := range []string{"Please fix the highlighted fields", "is required", "must be a valid phone number", "unknown option"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestFormConfirmStoresAndEmails(t *testing.T) {
	srv, _, sender := testServerWithDB(t)
	p, u := seedProperty(t, srv)

	w := formRequest(t, srv, "/form", nil, validForm(p, u, "confirm"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Assessment submitted") {
		t.Error("expected confirmation page")
	}
	if !strings.Contains(w.Body.String(), "confirmation email was sent") {
		t.Error("expected email sent notice")
	}

	list, err := srv.assessments.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("stored %d assessments, want 1", len(list))
	}
	got := list[0]
	if got.UnitNumber != "101" || got.PropertyName != "Maple Court" {
		t.Errorf("stored unit/property = %q/%q, want 101/Maple Court", got.UnitNumber, got.PropertyName)
	}
	if got.Recommendation != assessment.RecommendApprove {
		t.Errorf("recommendation = %q, want %q", got.Recommendation, assessment.RecommendApprove)
	}

	msgs := sender.sent()
	if len(msgs) != 1 {
		t.Fatalf("sent %d emails, want 1", len(msgs))
	}
	if msgs[0].To[0] != "sam@example.com" {
		t.Errorf("to = %q, want %q", msgs[0].To[0], "sam@example.com")
	}
	if !strings.Contains(msgs[0].Body, "Maple Court") {
		t.Error("email body missing property name")
	}
}

func TestFormConfirmWithoutEmailSendsNothing(t *testing.T) {
	srv, _, sender := testServerWithDB(t)
	p, u := seedProperty(t, srv)

	form := validForm(p, u, "confirm")
	form.Del("prospect_email")
	w := formRequest(t, srv, "/form", nil, form)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if n := len(sender.sent()); n != 0 {
		t.Errorf("sent %d emails, want 0", n)
	}
}

func TestFormConfirmEmailFailureStillSaves(t *testing.T) {
	srv, _, sender := testServerWithDB(t)
	sender.fail = true
	p, u := seedProperty(t, srv)

	w := formRequest(t, srv, "/form", nil, validForm(p, u, "confirm"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "could not be sent") {
		t.Error("expected email failure notice")
	}
	list, err := srv.assessments.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("stored %d assessments, want 1", len(list))
	}
}

func TestFormUnitFromOtherProperty(t *testing.T) {
	srv := testServer(t)
	p, _ := seedProperty(t, srv)
	other, err := srv.assessments.AddProperty(context.Background(), "OAK", "Oak Terrace")
	if err != nil {
		t.Fatalf("add property: %v", err)
	}
	foreign, err := srv.assessments.AddUnit(context.Background(), other.ID, "2B")
	if err != nil {
		t.Fatalf("add unit: %v", err)
	}

	w := formRequest(t, srv, "/form", nil, validForm(p, foreign, "confirm"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if !strings.Contains(w.Body.String(), "is not in the selected property") {
		t.Error("expected unit error")
	}
}

func TestFormEditStepKeepsAnswers(t *testing.T) {
	srv := testServer(t)
	p, u := seedProperty(t, srv)

	w := formRequest(t, srv, "/form", nil, validForm(p, u, "edit"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, `value="Sam Lee"`) {
		t.Error("edit page lost the prospect name")
	}
	if !strings.Contains(body, "checked") {
		t.Error("edit page lost the checked observation")
	}
}

func TestFormUnits(t *testing.T) {
	srv := testServer(t)
	p, _ := seedProperty(t, srv)

	w := getPage(t, srv, "/form/units?property_id="+strconv.FormatInt(p.ID, 10), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var units []assessment.Unit
	decodeBody(t, w, &units)
	if len(units) != 1 || units[0].Number != "101" {
		t.Errorf("units = %+v, want one unit 101", units)
	}

	w = getPage(t, srv, "/form/units?property_id=x", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
