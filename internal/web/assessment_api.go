package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/grhey0115/Tenant-Assessment/internal/assessment"
	"github.com/grhey0115/Tenant-Assessment/internal/dashboard"
)

type assessmentListResponse struct {
	Assessments []*assessment.Assessment `json:"assessments"`
	Total       int                      `json:"total"`
	Page        int                      `json:"page"`
	TotalPages  int                      `json:"total_pages"`
}

type assessmentCreatedResponse struct {
	*assessment.Assessment
	EmailSent bool `json:"email_sent"`
}

type fieldErrorResponse struct {
	Error  string                 `json:"error"`
	Fields assessment.FieldErrors `json:"fields"`
}

type propertyRequest struct {
	Code string `json:"property_code"`
	Name string `json:"name"`
}

type unitRequest struct {
	Number string `json:"unit_number"`
}

// handleAPIAssessments serves GET (review filter, optional page) and POST
// /api/assessments.
func (s *Server) handleAPIAssessments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.apiListAssessments(w, r)
	case http.MethodPost:
		s.apiSubmitAssessment(w, r)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) apiListAssessments(w http.ResponseWriter, r *http.Request) {
	all, err := s.assessments.List(r.Context())
	if err != nil {
		slog.Error("listing assessments", "error", err)
		apiError(w, "listing assessments failed", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	filtered := assessment.Filter(all, reviewFilterFrom(q))
	resp := assessmentListResponse{Assessments: filtered, Total: len(filtered), Page: 1, TotalPages: 1}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			apiError(w, "page must be a positive integer", http.StatusBadRequest)
			return
		}
		resp.Page = page
		resp.TotalPages = dashboard.TotalPages(len(filtered), dashboard.PerPage)
		resp.Assessments = dashboard.Paginate(filtered, page, dashboard.PerPage)
	}
	if resp.Assessments == nil {
		resp.Assessments = []*assessment.Assessment{}
	}
	apiJSON(w, resp, http.StatusOK)
}

// apiSubmitAssessment validates and stores a JSON submission. Field
// problems come back as 422 with one message per field.
func (s *Server) apiSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var sub assessment.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := s.validator.Validate(&sub); err != nil {
		var fe assessment.FieldErrors
		if errors.As(err, &fe) {
			apiJSON(w, fieldErrorResponse{Error: "invalid assessment", Fields: fe}, http.StatusUnprocessableEntity)
			return
		}
		slog.Error("validating assessment", "error", err)
		apiError(w, "validation failed", http.StatusInternalServerError)
		return
	}

	saved, err := s.assessments.Insert(r.Context(), &sub)
	if errors.Is(err, assessment.ErrUnitMismatch) {
		apiJSON(w, fieldErrorResponse{
			Error:  "invalid assessment",
			Fields: assessment.FieldErrors{"unit_id": "is not in the selected property"},
		}, http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		slog.Error("saving assessment", "error", err)
		apiError(w, "saving assessment failed", http.StatusInternalServerError)
		return
	}
	slog.Info("assessment submitted", "id", saved.ID, "agent", saved.Agent, "property", saved.PropertyCode)

	sent, _ := s.confirmToProspect(r.Context(), saved)
	apiJSON(w, assessmentCreatedResponse{Assessment: saved, EmailSent: sent}, http.StatusCreated)
}

func (s *Server) handleAPIAssessment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, tail, err := pathID(r.URL.Path, "/api/assessments/")
	if err != nil || tail != "" {
		apiError(w, "invalid assessment ID", http.StatusBadRequest)
		return
	}

	a, err := s.assessments.GetByID(r.Context(), id)
	if errors.Is(err, assessment.ErrNotFound) {
		apiError(w, "assessment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("loading assessment", "id", id, "error", err)
		apiError(w, "loading assessment failed", http.StatusInternalServerError)
		return
	}
	apiJSON(w, a, http.StatusOK)
}

// handleAPIAnalytics returns counts by recommendation, property and agent
// over the assessments matching the review filter.
func (s *Server) handleAPIAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	all, err := s.assessments.List(r.Context())
	if err != nil {
		slog.Error("listing assessments", "error", err)
		apiError(w, "listing assessments failed", http.StatusInternalServerError)
		return
	}
	apiJSON(w, assessment.Analyze(assessment.Filter(all, reviewFilterFrom(r.URL.Query()))), http.StatusOK)
}

func (s *Server) handleAPIProperties(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		props, err := s.assessments.Properties(r.Context())
		if err != nil {
			slog.Error("listing properties", "error", err)
			apiError(w, "listing properties failed", http.StatusInternalServerError)
			return
		}
		if props == nil {
			props = []*assessment.Property{}
		}
		apiJSON(w, props, http.StatusOK)

	case http.MethodPost:
		var req propertyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			apiError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		p, err := s.assessments.AddProperty(r.Context(), req.Code, req.Name)
		if errors.Is(err, assessment.ErrInvalid) {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			slog.Error("adding property", "error", err)
			apiError(w, "adding property failed", http.StatusInternalServerError)
			return
		}
		apiJSON(w, p, http.StatusCreated)

	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAPIPropertyRoute serves /api/properties/{id}/units.
func (s *Server) handleAPIPropertyRoute(w http.ResponseWriter, r *http.Request) {
	id, tail, err := pathID(r.URL.Path, "/api/properties/")
	if err != nil {
		apiError(w, "invalid property ID", http.StatusBadRequest)
		return
	}
	if tail != "units" {
		apiError(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		units, err := s.assessments.AvailableUnits(r.Context(), id)
		if err != nil {
			slog.Error("listing units", "property", id, "error", err)
			apiError(w, "listing units failed", http.StatusInternalServerError)
			return
		}
		if units == nil {
			units = []*assessment.Unit{}
		}
		apiJSON(w, units, http.StatusOK)

	case http.MethodPost:
		var req unitRequest
		if err := decodeJSON(w, r, &req); err != nil {
			apiError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		u, err := s.assessments.AddUnit(r.Context(), id, req.Number)
		if errors.Is(err, assessment.ErrInvalid) {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			slog.Error("adding unit", "property", id, "error", err)
			apiError(w, "adding unit failed", http.StatusInternalServerError)
			return
		}
		apiJSON(w, u, http.StatusCreated)

	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
