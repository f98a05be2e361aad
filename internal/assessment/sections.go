package assessment

// Section is one block of the intake form.
type Section struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle"`
	Group      string   `json:"group,omitempty"`
	Options    []Option `json:"options,omitempty"`
	NotesField string   `json:"notes_field,omitempty"`
	Prompts    string   `json:"prompts,omitempty"`
	Wide       bool     `json:"wide,omitempty"`
}

// Option is one checkbox. Value is what gets stored.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var sections = []Section{
	{
		ID: "quick-observations", Title: "Quick Observations", Subtitle: "Initial impressions.",
		Group: "positive_observations",
		Options: []Option{
			{"Arrived responsibly", "Arrived responsibly (own car, family dropped off)"},
			{"Came with appropriate people", "Came with appropriate people"},
			{"Asked good questions", "Asked good questions about the place"},
		},
	},
	{
		ID: "concerning-signs", Title: "Concerning Signs", Subtitle: "Immediate red flags.",
		Group: "concerning_signs",
		Options: []Option{
			{"Sketchy arrival", "Sketchy arrival"},
			{"Seemed impaired", "Seemed impaired or fidgety"},
		},
	},
	{
		ID: "housing-situation", Title: "Housing Situation", Subtitle: "Current living arrangements.",
		Group: "housing_stability",
		Options: []Option{
			{"Stable current housing", "Stable current housing, planning ahead"},
			{"Reasonable explanation for move", "Reasonable explanation for moving"},
			{"Normal landlord relations", "Speaks normally about current landlord"},
		},
		NotesField: "housing_notes",
		Prompts:    `"Where living now?" "Lease end?" "Landlord relationship?"`,
	},
	{
		ID: "kids-pets", Title: "Kids & Pets", Subtitle: "Children or animals.",
		Group: "kids_assessment",
		Options: []Option{
			{"Well-behaved kids", "Kids well-behaved (if present)"},
			{"Appropriate occupants", "Appropriate # occupants for unit"},
		},
		NotesField: "kids_pets_notes",
		Prompts:    `"Any children?" "Any pets?"`,
	},
	{
		ID: "payment-method", Title: "Payment & Employment", Subtitle: "Rent payment plans & employment.",
		Group: "payment_type_observations",
		Options: []Option{
			{"Section 8 / Voucher", "Section 8 / Housing Voucher"},
			{"Private pay", "Private pay"},
			{"Currently employed", "Currently employed"},
		},
		NotesField: "employment_details",
		Prompts:    `"How cover rent?" "Working? Where?" "Voucher?"`,
	},
	{
		ID: "local-connections", Title: "Local Connections", Subtitle: "Ties to local area.",
		Group: "local_stability",
		Options: []Option{
			{"Local family/support", "Has local family/support"},
			{"Established in area", "Established in area"},
		},
		NotesField: "local_connections_notes",
		Prompts:    `"Family in area?" "How long around?" "Why this area?"`,
	},
	{
		ID: "red-flags-detailed", Title: "Deeper Red Flags", Subtitle: "Subtle warning signs.",
		Group: "red_flags_observations",
		Options: []Option{
			{"Badmouths landlord", "Badmouths landlord (victim language)"},
			{"Vague history", "Vague about housing/employment history"},
			{"Desperate timeline", "Desperate timeline (getting kicked out)"},
		},
	},
	{
		ID: "overall-assessment", Title: "Overall Agent Assessment", Subtitle: "Gut feeling & judgment.",
		Group: "assessment_scores",
		Options: []Option{
			{"Good neighbor potential", "Would be good neighbor"},
			{"Would care for property", "Would take care of property"},
		},
	},
	{
		ID: "additional-notes-section", Title: "General Additional Notes", Subtitle: "Other important details.",
		NotesField: "additional_notes", Wide: true,
	},
	{
		ID: "maintenance-issues-section", Title: "Maintenance Issues for Unit", Subtitle: "Log unit issues.",
		NotesField: "maintenance_issues", Wide: true,
	},
}

// Sections returns the intake form layout in display order.
func Sections() []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// allowedOptions maps each checkbox group to its permitted values.
func allowedOptions() map[string]map[string]bool {
	m := make(map[string]map[string]bool)
	for _, s := range sections {
		if s.Group == "" {
			continue
		}
		vals := make(map[string]bool, len(s.Options))
		for _, o := range s.Options {
			vals[o.Value] = true
		}
		m[s.Group] = vals
	}
	return m
}

// notesFields lists the free-text fields the form accepts.
func notesFields() map[string]bool {
	m := make(map[string]bool)
	for _, s := range sections {
		if s.NotesField != "" {
			m[s.NotesField] = true
		}
	}
	return m
}
