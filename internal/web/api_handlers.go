package web

import (
	"errors"
	"fmt"
	"io"
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

type applicantListResponse struct {
	Applicants []*applicant.Applicant `json:"applicants"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	TotalPages int                    `json:"total_pages"`
	Counts     []dashboard.StageCount `json:"counts"`
}

type applicantDetailResponse struct {
	Applicant *applicant.Applicant `json:"applicant"`
	Notes     []*note.Note         `json:"notes"`
}

type advanceRequest struct {
	From string `json:"from,omitempty"`
}

type noteRequest struct {
	Text string `json:"text"`
}

// handleAPIApplicants serves GET (filtered, optionally paged) and POST
// /api/applicants. Without a page parameter the whole filtered list is
// returned.
func (s *Server) handleAPIApplicants(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.apiListApplicants(w, r)
	case http.MethodPost:
		s.apiAddApplicant(w, r)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) apiListApplicants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := dashboard.Filter{
		Stage:    orAll(q.Get("stage")),
		Property: orAll(q.Get("property")),
		Search:   q.Get("search"),
	}
	if f.Stage != dashboard.All {
		if _, err := pipeline.ParseStage(f.Stage); err != nil {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	list, err := s.applicants.FetchAll(r.Context())
	if err != nil {
		slog.Error("listing applicants", "error", err)
		apiError(w, "listing applicants failed", http.StatusInternalServerError)
		return
	}

	filtered := dashboard.Apply(list, f)
	resp := applicantListResponse{
		Applicants: filtered,
		Total:      len(filtered),
		Page:       1,
		TotalPages: 1,
		Counts:     dashboard.CountByStage(list),
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			apiError(w, "page must be a positive integer", http.StatusBadRequest)
			return
		}
		per := dashboard.PerPage
		if v := q.Get("per_page"); v != "" {
			if per, err = strconv.Atoi(v); err != nil || per < 1 || per > 100 {
				apiError(w, "per_page must be between 1 and 100", http.StatusBadRequest)
				return
			}
		}
		resp.Page = page
		resp.TotalPages = dashboard.TotalPages(len(filtered), per)
		resp.Applicants = dashboard.Paginate(filtered, page, per)
	}
	if resp.Applicants == nil {
		resp.Applicants = []*applicant.Applicant{}
	}

	apiJSON(w, resp, http.StatusOK)
}

func (s *Server) apiAddApplicant(w http.ResponseWriter, r *http.Request) {
	var a applicant.Applicant
	if err := decodeJSON(w, r, &a); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if a.Agent == "" {
		a.Agent = auth.EmailFrom(r.Context())
	}

	created, err := s.applicants.Insert(r.Context(), &a)
	if errors.Is(err, applicant.ErrInvalid) {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("adding applicant", "error", err)
		apiError(w, "adding applicant failed", http.StatusInternalServerError)
		return
	}
	apiJSON(w, created, http.StatusCreated)
}

// handleAPIApplicantRoute serves /api/applicants/{id}[/advance|/notes].
func (s *Server) handleAPIApplicantRoute(w http.ResponseWriter, r *http.Request) {
	id, tail, err := pathID(r.URL.Path, "/api/applicants/")
	if err != nil {
		apiError(w, "invalid applicant ID", http.StatusBadRequest)
		return
	}

	switch tail {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.apiGetApplicant(w, r, id)
		case http.MethodPatch:
			s.apiUpdateApplicant(w, r, id)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case "advance":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiAdvance(w, r, id)
	case "notes":
		switch r.Method {
		case http.MethodGet:
			s.apiListNotes(w, r, id)
		case http.MethodPost:
			s.apiAddNote(w, r, id)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// lookup loads an applicant, writing the error response when it fails.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, id int64) (*applicant.Applicant, bool) {
	a, err := s.applicants.GetByID(r.Context(), id)
	if errors.Is(err, applicant.ErrNotFound) {
		apiError(w, "applicant not found", http.StatusNotFound)
		return nil, false
	}
	var de *applicant.DecodeError
	if errors.As(err, &de) {
		apiError(w, de.Error(), http.StatusUnprocessableEntity)
		return nil, false
	}
	if err != nil {
		slog.Error("loading applicant", "applicant", id, "error", err)
		apiError(w, "loading applicant failed", http.StatusInternalServerError)
		return nil, false
	}
	return a, true
}

func (s *Server) apiGetApplicant(w http.ResponseWriter, r *http.Request, id int64) {
	a, ok := s.lookup(w, r, id)
	if !ok {
		return
	}
	notes, err := s.notes.ListByApplicant(r.Context(), id)
	if err != nil {
		slog.Error("listing notes", "applicant", id, "error", err)
		apiError(w, "listing notes failed", http.StatusInternalServerError)
		return
	}
	if notes == nil {
		notes = []*note.Note{}
	}
	apiJSON(w, applicantDetailResponse{Applicant: a, Notes: notes}, http.StatusOK)
}

func (s *Server) apiUpdateApplicant(w http.ResponseWriter, r *http.Request, id int64) {
	var p applicant.Patch
	if err := decodeJSON(w, r, &p); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	updated, err := s.applicants.Update(r.Context(), id, p)
	switch {
	case errors.Is(err, applicant.ErrNotFound):
		apiError(w, "applicant not found", http.StatusNotFound)
	case errors.Is(err, applicant.ErrInvalid):
		apiError(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		slog.Error("updating applicant", "applicant", id, "error", err)
		apiError(w, "updating applicant failed", http.StatusInternalServerError)
	default:
		apiJSON(w, updated, http.StatusOK)
	}
}

// apiAdvance moves an applicant one stage forward without a confirmation
// step. The write only lands if the applicant is still in the stage it was
// read in, or in "from" when the caller gives one, so two clients cannot
// both advance it.
func (s *Server) apiAdvance(w http.ResponseWriter, r *http.Request, id int64) {
	var req advanceRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	a, ok := s.lookup(w, r, id)
	if !ok {
		return
	}
	from := a.Stage
	if req.From != "" {
		parsed, err := pipeline.ParseStage(req.From)
		if err != nil {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if parsed != a.Stage {
			apiError(w, fmt.Sprintf("applicant is in %s, not %s", a.Stage, parsed), http.StatusConflict)
			return
		}
		from = parsed
	}

	updated, moved, err := pipeline.NewMachine[*applicant.Applicant](s.applicants).Advance(r.Context(), id, from)
	switch {
	case errors.Is(err, pipeline.ErrStageChanged):
		apiError(w, fmt.Sprintf("applicant is no longer in %s", from), http.StatusConflict)
		return
	case err != nil:
		slog.Error("advancing applicant", "applicant", id, "error", err)
		apiError(w, "stage not updated", http.StatusInternalServerError)
		return
	case !moved:
		apiError(w, "applicant is already "+strings.ToLower(from.DisplayName()), http.StatusConflict)
		return
	}

	slog.Info("applicant advanced", "applicant", id, "from", from, "to", updated.Stage, "by", auth.EmailFrom(r.Context()))
	apiJSON(w, updated, http.StatusOK)
}

func (s *Server) apiListNotes(w http.ResponseWriter, r *http.Request, id int64) {
	if _, ok := s.lookup(w, r, id); !ok {
		return
	}
	notes, err := s.notes.ListByApplicant(r.Context(), id)
	if err != nil {
		slog.Error("listing notes", "applicant", id, "error", err)
		apiError(w, "listing notes failed", http.StatusInternalServerError)
		return
	}
	if notes == nil {
		notes = []*note.Note{}
	}
	apiJSON(w, notes, http.StatusOK)
}

func (s *Server) apiAddNote(w http.ResponseWriter, r *http.Request, id int64) {
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if _, ok := s.lookup(w, r, id); !ok {
		return
	}

	n, err := s.notes.Add(r.Context(), id, auth.EmailFrom(r.Context()), req.Text)
	if errors.Is(err, note.ErrEmptyText) {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("adding note", "applicant", id, "error", err)
		apiError(w, "adding note failed", http.StatusInternalServerError)
		return
	}
	apiJSON(w, n, http.StatusCreated)
}
