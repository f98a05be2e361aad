package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

func newAdvanceCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Move an applicant to the next stage",
		Long: `Move an applicant one stage forward: lead, contacted, showing,
application, approved. Asks for confirmation unless --yes is given.

The move is refused if someone else moved the applicant first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("applicant", args[0])
			if err != nil {
				return err
			}
			return runAdvance(id, yes, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func runAdvance(id int64, yes bool, in io.Reader, out io.Writer) error {
	c := newAPIClient()

	resp, err := c.GetApplicant(id)
	if err != nil {
		return err
	}
	a := resp.Applicant
	next, ok := pipeline.Next(a.Stage)
	if !ok {
		return fmt.Errorf("%s is already %s", a.Name, strings.ToLower(a.Stage.DisplayName()))
	}

	if !yes {
		question := fmt.Sprintf("Move %s from %s to %s?", a.Name, a.Stage.DisplayName(), next.DisplayName())
		confirmed, err := confirm(in, out, question)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	updated, err := c.Advance(id, string(a.Stage))
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(updated)
	}

	fmt.Fprintf(out, "Moved %s to %s\n", updated.Name, updated.Stage.DisplayName())
	return nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading input: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
