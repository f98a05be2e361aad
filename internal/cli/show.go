package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show applicant details",
		Long:  "Show full details for an applicant, including all notes.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID("applicant", args[0])
	if err != nil {
		return err
	}

	resp, err := newAPIClient().GetApplicant(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(resp)
	}

	printApplicantSummary(resp.Applicant)
	fmt.Println()
	if len(resp.Notes) > 0 {
		fmt.Printf("Notes (%d):\n", len(resp.Notes))
	}
	printNoteList(resp.Notes)

	return nil
}
