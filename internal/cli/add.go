package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grhey0115/Tenant-Assessment/internal/applicant"
)

func newAddCmd() *cobra.Command {
	var (
		a      applicant.Applicant
		budget int64
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an applicant",
		Long: `Add a prospective tenant to the pipeline as a lead.

Examples:
  ta add Sam Lee --phone 5551234567 --property "Maple Court" --unit 101
  ta add "Ana Ruiz" --priority hot --contact text --budget 1800`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Name = strings.Join(args, " ")
			if cmd.Flags().Changed("budget") {
				if budget < 0 {
					return fmt.Errorf("budget must not be negative")
				}
				a.Budget = &budget
			}
			if !cmd.Flags().Changed("property") {
				a.Property = setting("property", "")
			}
			if !cmd.Flags().Changed("agent") {
				a.Agent = setting("agent", "")
			}
			return runAdd(&a)
		},
	}

	cmd.Flags().StringVar(&a.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&a.Email, "email", "", "email address")
	cmd.Flags().StringVar(&a.Property, "property", "", "property of interest (default: from ta config)")
	cmd.Flags().StringVar(&a.Unit, "unit", "", "unit of interest")
	cmd.Flags().Int64Var(&budget, "budget", 0, "monthly budget in dollars")
	cmd.Flags().StringVar(&a.MoveInDate, "move-in", "", "desired move-in date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&a.Agent, "agent", "", "assigned agent (default: from ta config, else you)")
	cmd.Flags().StringVar((*string)(&a.Priority), "priority", "", "hot, warm or cold (default: warm)")
	cmd.Flags().StringVar((*string)(&a.ContactPreference), "contact", "", "call, text or email (default: call)")
	cmd.Flags().StringVar(&a.Source, "source", "", "where the lead came from")
	cmd.Flags().StringVar(&a.Notes, "notes", "", "free-form notes")

	return cmd
}

func runAdd(a *applicant.Applicant) error {
	created, err := newAPIClient().AddApplicant(a)
	if err != nil {
		return fmt.Errorf("adding applicant: %w", err)
	}

	if isJSON() {
		return printJSON(created)
	}

	fmt.Println("Applicant added.")
	printApplicantSummary(created)
	return nil
}
