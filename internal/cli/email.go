package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grhey0115/Tenant-Assessment/internal/email"
)

func newEmailCmd() *cobra.Command {
	var c email.Confirmation

	cmd := &cobra.Command{
		Use:   "email <to>",
		Short: "Send an assessment confirmation email",
		Long: `Send the assessment confirmation email to a prospect.

Example:
  ta email sam@example.com --name "Sam Lee" --property "Maple Court" --unit 101 \
    --date 2026-10-18 --time 14:30 --agent Dana --recommendation Approve`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.To = args[0]
			return runEmail(c)
		},
	}

	cmd.Flags().StringVar(&c.Subject, "subject", "", "subject line (default: "+email.DefaultConfirmationSubject+")")
	cmd.Flags().StringVar(&c.ProspectName, "name", "", "prospect name")
	cmd.Flags().StringVar(&c.PropertyName, "property", "", "property name")
	cmd.Flags().StringVar(&c.UnitNumber, "unit", "", "unit number")
	cmd.Flags().StringVar(&c.Date, "date", "", "showing date")
	cmd.Flags().StringVar(&c.Time, "time", "", "showing time")
	cmd.Flags().StringVar(&c.Agent, "agent", "", "agent name")
	cmd.Flags().StringVar(&c.Recommendation, "recommendation", "", "recommendation shown to the prospect")

	return cmd
}

func runEmail(c email.Confirmation) error {
	resp, err := newAPIClient().SendConfirmation(c)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(resp)
	}

	fmt.Printf("Email sent to %s (%s)\n", c.To, resp.ID)
	return nil
}
