package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/grhey0115/Tenant-Assessment/internal/applicant"
	"github.com/grhey0115/Tenant-Assessment/internal/auth"
	"github.com/grhey0115/Tenant-Assessment/internal/dashboard"
	"github.com/grhey0115/Tenant-Assessment/internal/note"
	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

type dashboardData struct {
	Email  string
	Board  dashboard.Board
	Stages []pipeline.Stage
}

type applicantData struct {
	Email     string
	Applicant *applicant.Applicant
	Next      pipeline.Stage
	HasNext   bool
	Board     dashboard.Board
}

// board returns the signed-in agent's board, loading it on first use.
func (s *Server) board(r *http.Request) *dashboard.Store {
	sess, _ := auth.SessionFrom(r.Context())
	b := s.boards.For(sess.ID)
	if !b.Loaded() {
		if err := b.Refresh(r.Context()); err != nil {
			slog.Error("loading board", "error", err)
		}
	}
	return b
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.render(w, "dashboard.html", dashboardData{
		Email:  auth.EmailFrom(r.Context()),
		Board:  s.board(r).Board(),
		Stages: pipeline.Stages(),
	})
}

// handleDashboardAction serves POST /admin/dashboard/{action}. Every action
// redirects back to the board.
func (s *Server) handleDashboardAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	b := s.board(r)
	switch strings.TrimPrefix(r.URL.Path, "/admin/dashboard/") {
	case "filter":
		b.SetFilter(dashboard.Filter{
			Stage:    orAll(r.FormValue("stage")),
			Property: orAll(r.FormValue("property")),
			Search:   strings.TrimSpace(r.FormValue("search")),
		})
	case "page":
		page, err := strconv.Atoi(r.FormValue("page"))
		if err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		b.SetPage(page)
	case "refresh":
		s.applicants.Invalidate(r.Context())
		if err := b.Refresh(r.Context()); err != nil {
			slog.Error("refreshing board", "error", err)
		}
	case "confirm":
		if _, err := b.ConfirmAdvance(r.Context()); err != nil && !errors.Is(err, pipeline.ErrNoPending) {
			slog.Warn("confirming stage change", "error", err)
		}
	case "cancel":
		b.CancelAdvance()
	case "dismiss":
		id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
		if err == nil {
			b.Notices().Dismiss(id)
		}
	default:
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// handleAdminApplicants adds an applicant from the board's form.
func (s *Server) handleAdminApplicants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	a := &applicant.Applicant{
		Name:              r.FormValue("name"),
		Phone:             r.FormValue("phone"),
		Email:             r.FormValue("email"),
		Property:          r.FormValue("property"),
		Unit:              r.FormValue("unit"),
		MoveInDate:        r.FormValue("move_in_date"),
		Agent:             r.FormValue("agent"),
		Priority:          applicant.Priority(r.FormValue("priority")),
		Source:            r.FormValue("source"),
		ContactPreference: applicant.ContactPreference(r.FormValue("contact_preference")),
		Notes:             r.FormValue("notes"),
	}
	if v := strings.TrimSpace(r.FormValue("budget")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			a.Budget = &n
		}
	}

	// Failures are reported on the board.
	_, _ = s.board(r).AddApplicant(r.Context(), a)
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

// handleAdminApplicantRoute serves /admin/applicants/{id},
// /admin/applicants/{id}/advance and /admin/applicants/{id}/notes.
func (s *Server) handleAdminApplicantRoute(w http.ResponseWriter, r *http.Request) {
	id, tail, err := pathID(r.URL.Path, "/admin/applicants/")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case tail == "" && r.Method == http.MethodGet:
		s.showApplicant(w, r, id)
	case tail == "advance" && r.Method == http.MethodPost:
		s.board(r).RequestAdvance(id)
		http.Redirect(w, r, backTo(r), http.StatusSeeOther)
	case tail == "notes" && r.Method == http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		b := s.board(r)
		if _, err := b.AddNote(r.Context(), id, auth.EmailFrom(r.Context()), r.FormValue("text")); err != nil && !errors.Is(err, note.ErrEmptyText) {
			slog.Warn("adding note", "applicant", id, "error", err)
		}
		if err := b.Select(r.Context(), id); err != nil {
			slog.Warn("reloading notes", "applicant", id, "error", err)
		}
		http.Redirect(w, r, "/admin/applicants/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
	case tail == "" || tail == "advance" || tail == "notes":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) showApplicant(w http.ResponseWriter, r *http.Request, id int64) {
	b := s.board(r)
	if err := b.Select(r.Context(), id); err != nil {
		slog.Warn("loading notes", "applicant", id, "error", err)
	}
	board := b.Board()

	a := board.Selected
	if a == nil {
		var err error
		a, err = s.applicants.GetByID(r.Context(), id)
		if errors.Is(err, applicant.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.Error("loading applicant", "applicant", id, "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
	}

	next, ok := pipeline.Next(a.Stage)
	s.render(w, "applicant.html", applicantData{
		Email:     auth.EmailFrom(r.Context()),
		Applicant: a,
		Next:      next,
		HasNext:   ok,
		Board:     board,
	})
}

func orAll(v string) string {
	if v == "" {
		return dashboard.All
	}
	return v
}

// backTo returns the local page named by the form's "back" field, or the
// board.
func backTo(r *http.Request) string {
	if b := r.FormValue("back"); strings.HasPrefix(b, "/admin/") && !strings.HasPrefix(b, "//") {
		return b
	}
	return "/admin/dashboard"
}
