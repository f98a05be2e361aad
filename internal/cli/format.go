package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/grhey0115/Tenant-Assessment/internal/applicant"
	"github.com/grhey0115/Tenant-Assessment/internal/assessment"
	"github.com/grhey0115/Tenant-Assessment/internal/client"
	"github.com/grhey0115/Tenant-Assessment/internal/note"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printApplicantSummary prints one applicant in text format.
func printApplicantSummary(a *applicant.Applicant) {
	fmt.Printf("Applicant #%d\n", a.ID)
	fmt.Printf("  Name:      %s\n", a.Name)
	fmt.Printf("  Stage:     %s (%s)\n", a.Stage.DisplayName(), formatDays(a.DaysInStage))
	if a.Phone != "" {
		fmt.Printf("  Phone:     %s\n", a.Phone)
	}
	if a.Email != "" {
		fmt.Printf("  Email:     %s\n", a.Email)
	}
	if a.Property != "" {
		unit := ""
		if a.Unit != "" {
			unit = ", unit " + a.Unit
		}
		fmt.Printf("  Property:  %s%s\n", a.Property, unit)
	}
	if a.Budget != nil {
		fmt.Printf("  Budget:    $%s\n", formatBudget(*a.Budget))
	}
	if a.MoveInDate != "" {
		fmt.Printf("  Move-in:   %s\n", a.MoveInDate)
	}
	if a.Agent != "" {
		fmt.Printf("  Agent:     %s\n", a.Agent)
	}
	fmt.Printf("  Priority:  %s\n", a.Priority)
	fmt.Printf("  Contact:   %s\n", a.ContactPreference)
	if a.Source != "" {
		fmt.Printf("  Source:    %s\n", a.Source)
	}
	if a.Notes != "" {
		fmt.Printf("  Notes:     %s\n", a.Notes)
	}
}

// printApplicantTable prints a page of applicants with the stage counts.
func printApplicantTable(resp *client.ListResponse) error {
	if len(resp.Applicants) == 0 {
		fmt.Println("No applicants found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tSTAGE\tDAYS\tPROPERTY\tPHONE\tPRIORITY"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t----\t-----\t----\t--------\t-----\t--------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, a := range resp.Applicants {
		property := "-"
		if a.Property != "" {
			property = truncate(a.Property, 30)
		}
		phone := "-"
		if a.Phone != "" {
			phone = a.Phone
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			a.ID, truncate(a.Name, 30), a.Stage.DisplayName(), a.DaysInStage, property, phone, a.Priority); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	if resp.TotalPages > 1 {
		fmt.Printf("\nPage %d of %d, %d applicants\n", resp.Page, resp.TotalPages, resp.Total)
	} else {
		fmt.Printf("\nTotal: %d applicants\n", resp.Total)
	}
	if len(resp.Counts) > 0 {
		parts := make([]string, 0, len(resp.Counts))
		for _, c := range resp.Counts {
			parts = append(parts, fmt.Sprintf("%s %d", c.Name, c.Count))
		}
		fmt.Println(strings.Join(parts, " · "))
	}
	return nil
}

// printNoteList prints notes in text format.
func printNoteList(notes []*note.Note) {
	if len(notes) == 0 {
		fmt.Println("No notes.")
		return
	}

	for _, n := range notes {
		author := n.Author
		if author == "" {
			author = "unknown"
		}
		fmt.Printf("[%s] #%d (%s)\n  %s\n\n",
			n.CreatedAt.Local().Format("2006-01-02 15:04"), n.ID, author, n.Text)
	}
}

// printAssessmentTable prints submitted assessments as a table.
func printAssessmentTable(resp *client.AssessmentList) error {
	if len(resp.Assessments) == 0 {
		fmt.Println("No assessments found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tDATE\tPROSPECT\tPROPERTY\tUNIT\tAGENT\tRECOMMENDATION"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, a := range resp.Assessments {
		if _, err := fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.ShowingDate, a.ShowingTime, truncate(a.ProspectName, 30),
			truncate(a.PropertyName, 30), a.UnitNumber, a.Agent, a.Recommendation.Label()); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d assessments\n", resp.Total)
	return nil
}

// printSlices prints one analytics breakdown.
func printSlices(title string, slices []assessment.Slice) {
	fmt.Printf("%s:\n", title)
	if len(slices) == 0 {
		fmt.Println("  none")
		return
	}
	for _, s := range slices {
		fmt.Printf("  %-24s %d\n", s.Name, s.Value)
	}
}

// formatBudget formats a dollar amount as a string with commas.
func formatBudget(dollars int64) string {
	s := fmt.Sprintf("%d", dollars)

	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return strings.Join(parts, ",")
}

func formatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
