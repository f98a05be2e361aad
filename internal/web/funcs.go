package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/grhey0115/Tenant-Assessment/internal/assessment"
	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

var funcMap = template.FuncMap{
	"stageName":    func(s pipeline.Stage) string { return s.DisplayName() },
	"stageTag":     func(s pipeline.Stage) string { return s.Tag() },
	"recLabel":     func(r assessment.Recommendation) string { return r.Label() },
	"formatTime":   tmplFormatTime,
	"formatBudget": tmplFormatBudget,
	"seq":          tmplSeq,
	"add":          func(a, b int) int { return a + b },
	"has":          func(list []string, v string) bool { return slices.Contains(list, v) },
	"join":         strings.Join,
	"pct":          tmplPct,
}

func tmplFormatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("Jan 2, 2006 3:04 PM")
}

func tmplFormatBudget(b *int64) string {
	if b == nil {
		return "—"
	}
	return "$" + formatWithCommas(*b)
}

func tmplSeq(start, end int) []int {
	var s []int
	for i := start; i <= end; i++ {
		s = append(s, i)
	}
	return s
}

// tmplPct is value as a whole percentage of total, for chart bar widths.
func tmplPct(value, total int) int {
	if total <= 0 {
		return 0
	}
	return value * 100 / total
}

func formatWithCommas(n int64) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// decodeJSON reads a JSON body of at most 1 MiB into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
