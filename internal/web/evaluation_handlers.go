package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/grhey0115/Tenant-Assessment/internal/assessment"
	"github.com/grhey0115/Tenant-Assessment/internal/auth"
	"github.com/grhey0115/Tenant-Assessment/internal/dashboard"
)

type evaluationsData struct {
	Email       string
	Items       []*assessment.Assessment
	Total       int
	Page        int
	TotalPages  int
	Filter      assessment.ReviewFilter
	Properties  []assessment.Property
	Agents      []string
	Analytics   assessment.Analytics
	Recommends  []assessment.Recommendation
	FilterQuery string
}

// reviewFilterFrom reads the review filter from the query string.
func reviewFilterFrom(q url.Values) assessment.ReviewFilter {
	return assessment.ReviewFilter{
		Recommendation: orAll(q.Get("recommendation")),
		Property:       orAll(q.Get("property")),
		Agent:          orAll(q.Get("agent")),
		Search:         q.Get("search"),
	}
}

func (f evaluationsData) pageQuery() string {
	return url.Values{
		"recommendation": {f.Filter.Recommendation},
		"property":       {f.Filter.Property},
		"agent":          {f.Filter.Agent},
		"search":         {f.Filter.Search},
	}.Encode()
}

// handleEvaluations lists submitted assessments with filters, pagination,
// and analytics over the filtered set. Changing a filter submits without a
// page, which starts again at page one.
func (s *Server) handleEvaluations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all, err := s.assessments.List(r.Context())
	if err != nil {
		slog.Error("listing assessments", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	f := reviewFilterFrom(q)
	filtered := assessment.Filter(all, f)

	pages := dashboard.TotalPages(len(filtered), dashboard.PerPage)
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	props, agents := assessment.ReviewOptions(all)
	d := evaluationsData{
		Email:      auth.EmailFrom(r.Context()),
		Items:      dashboard.Paginate(filtered, page, dashboard.PerPage),
		Total:      len(filtered),
		Page:       page,
		TotalPages: pages,
		Filter:     f,
		Properties: props,
		Agents:     agents,
		Analytics:  assessment.Analyze(filtered),
		Recommends: []assessment.Recommendation{assessment.RecommendApprove, assessment.RecommendMaybe, assessment.RecommendHellNo},
	}
	d.FilterQuery = d.pageQuery()
	s.render(w, "evaluations.html", d)
}
