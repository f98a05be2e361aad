package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `note <id> "text"`,
		Short: "Add a note to an applicant",
		Long:  "Append a note to an applicant. Notes cannot be edited afterwards.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runNote,
	}
}

func runNote(cmd *cobra.Command, args []string) error {
	id, err := parseID("applicant", args[0])
	if err != nil {
		return err
	}

	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		return fmt.Errorf("note text is required")
	}

	n, err := newAPIClient().AddNote(id, text)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(n)
	}

	fmt.Printf("Note #%d added.\n  %s\n", n.ID, n.Text)
	return nil
}

func newNotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes <id>",
		Short: "List notes for an applicant",
		Long:  "List all notes for an applicant, newest first.",
		Args:  cobra.ExactArgs(1),
		RunE:  runNotes,
	}
}

func runNotes(cmd *cobra.Command, args []string) error {
	id, err := parseID("applicant", args[0])
	if err != nil {
		return err
	}

	notes, err := newAPIClient().ListNotes(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(notes)
	}

	fmt.Printf("Notes for applicant #%d:\n\n", id)
	printNoteList(notes)
	return nil
}
