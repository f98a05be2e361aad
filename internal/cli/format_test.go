package cli

import "testing"

func TestFormatBudget(t *testing.T) {
	tests := []struct {
		name     string
		dollars  int64
		expected string
	}{
		{"zero", 0, "0"},
		{"small", 999, "999"},
		{"thousands", 2500, "2,500"},
		{"millions", 1000000, "1,000,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatBudget(tt.dollars)
			if result != tt.expected {
				t.Errorf("formatBudget(%d) = %q, want %q", tt.dollars, result, tt.expected)
			}
		})
	}
}

func TestFormatDays(t *testing.T) {
	tests := []struct {
		days     int
		expected string
	}{
		{0, "0 days"},
		{1, "1 day"},
		{12, "12 days"},
	}

	for _, tt := range tests {
		if got := formatDays(tt.days); got != tt.expected {
			t.Errorf("formatDays(%d) = %q, want %q", tt.days, got, tt.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world!", 8, "hello..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncate(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"12abc", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := parseID("applicant", tt.arg)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseID(%q) = %d, %v; want %d, wantErr %v", tt.arg, got, err, tt.want, tt.wantErr)
		}
	}
}
