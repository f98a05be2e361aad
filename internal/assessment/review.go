package assessment

import "strings"

// ReviewFilter narrows the submitted assessments. "all" or empty disables
// a criterion.
type ReviewFilter struct {
	Recommendation string `json:"recommendation"`
	Property       string `json:"property"`
	Agent          string `json:"agent"`
	Search         string `json:"search"`
}

func set(v string) bool { return v != "" && v != "all" }

// Matches reports whether a passes every active criterion. Property is
// compared against the property code.
func (f ReviewFilter) Matches(a *Assessment) bool {
	if set(f.Recommendation) && string(a.Recommendation) != f.Recommendation {
		return false
	}
	if set(f.Property) && a.PropertyCode != f.Property {
		return false
	}
	if set(f.Agent) && a.Agent != f.Agent {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(a.ProspectName), q) && !strings.Contains(a.ProspectPhone, q) {
			return false
		}
	}
	return true
}

// Filter returns the assessments matching f in their original order.
func Filter(list []*Assessment, f ReviewFilter) []*Assessment {
	var out []*Assessment
	for _, a := range list {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}

// Slice is one bar or pie segment.
type Slice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Analytics summarizes a set of assessments.
type Analytics struct {
	Total            int     `json:"total"`
	ByRecommendation []Slice `json:"by_recommendation"`
	ByProperty       []Slice `json:"by_property"`
	ByAgent          []Slice `json:"by_agent"`
}

// Analyze counts list by recommendation, property and agent. Slices keep
// the order in which each name first appears.
func Analyze(list []*Assessment) Analytics {
	return Analytics{
		Total: len(list),
		ByRecommendation: tally(list, func(a *Assessment) string {
			return a.Recommendation.Label()
		}),
		ByProperty: tally(list, func(a *Assessment) string {
			if a.PropertyName != "" {
				return a.PropertyName
			}
			if a.PropertyCode != "" {
				return a.PropertyCode
			}
			return "N/A"
		}),
		ByAgent: tally(list, func(a *Assessment) string {
			if a.Agent != "" {
				return a.Agent
			}
			return "N/A"
		}),
	}
}

func tally(list []*Assessment, key func(*Assessment) string) []Slice {
	index := make(map[string]int)
	var out []Slice
	for _, a := range list {
		k := key(a)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Slice{Name: k})
		}
		out[i].Value++
	}
	return out
}

// ReviewOptions lists the distinct properties and agents for the filter
// dropdowns, in first-seen order.
func ReviewOptions(list []*Assessment) (properties []Property, agents []string) {
	seenProp := make(map[string]bool)
	seenAgent := make(map[string]bool)
	for _, a := range list {
		if a.PropertyCode != "" && !seenProp[a.PropertyCode] {
			seenProp[a.PropertyCode] = true
			properties = append(properties, Property{ID: a.PropertyID, Code: a.PropertyCode, Name: a.PropertyName})
		}
		if a.Agent != "" && !seenAgent[a.Agent] {
			seenAgent[a.Agent] = true
			agents = append(agents, a.Agent)
		}
	}
	return properties, agents
}
