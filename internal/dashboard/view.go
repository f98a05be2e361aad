// Package dashboard holds the admin pipeline board: the applicant list an
// agent is looking at, the filters and page applied to it, and any stage
// change waiting for confirmation.
package dashboard

import (
	"sort"
	"strings"

	"github.com/grhey0115/Tenant-Assessment/internal/applicant"
	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

// All disables a filter criterion.
const All = "all"

// PerPage is the number of rows on one page of the board.
const PerPage = 10

// Filter narrows the applicant list. Criteria combine with AND.
type Filter struct {
	Stage    string `json:"stage"`
	Property string `json:"property"`
	Search   string `json:"search"`
}

func active(v string) bool {
	return v != "" && v != All
}

// Matches reports whether a passes every active criterion. Search matches
// the name case-insensitively or appears within the phone number.
func (f Filter) Matches(a *applicant.Applicant) bool {
	if active(f.Stage) && string(a.Stage) != f.Stage {
		return false
	}
	if active(f.Property) && a.Property != f.Property {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(a.Name), q) && !strings.Contains(a.Phone, q) {
			return false
		}
	}
	return true
}

// Apply returns the applicants matching f, keeping their order.
func Apply(list []*applicant.Applicant, f Filter) []*applicant.Applicant {
	out := make([]*applicant.Applicant, 0, len(list))
	for _, a := range list {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}

// TotalPages is the page count for n items, never less than one.
func TotalPages(n, perPage int) int {
	if perPage <= 0 {
		perPage = PerPage
	}
	if n == 0 {
		return 1
	}
	return (n + perPage - 1) / perPage
}

// Paginate returns the slice of items on page (1-based). Pages past the end
// are empty.
func Paginate[T any](items []T, page, perPage int) []T {
	if perPage <= 0 {
		perPage = PerPage
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// StageCount is the number of applicants currently in one stage.
type StageCount struct {
	Stage pipeline.Stage `json:"stage"`
	Name  string         `json:"name"`
	Count int            `json:"count"`
}

// CountByStage tallies list per stage, in pipeline order.
func CountByStage(list []*applicant.Applicant) []StageCount {
	counts := make(map[pipeline.Stage]int)
	for _, a := range list {
		counts[a.Stage]++
	}
	var out []StageCount
	for _, s := range pipeline.Stages() {
		out = append(out, StageCount{Stage: s, Name: s.DisplayName(), Count: counts[s]})
	}
	return out
}

// Options lists the distinct non-empty properties and agents in list,
// sorted, for filter dropdowns.
func Options(list []*applicant.Applicant) (properties, agents []string) {
	return distinct(list, func(a *applicant.Applicant) string { return a.Property }),
		distinct(list, func(a *applicant.Applicant) string { return a.Agent })
}

func distinct(list []*applicant.Applicant, field func(*applicant.Applicant) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range list {
		v := field(a)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
