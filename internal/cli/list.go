package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grhey0115/Tenant-Assessment/internal/client"
	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

func newListCmd() *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applicants",
		Long: `List applicants in the leasing pipeline, newest first.

Stages: lead, contacted, showing, application, approved.
Search matches the name (case-insensitive) or the phone number.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Stage != "" {
				if _, err := pipeline.ParseStage(opts.Stage); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("property") {
				opts.Property = setting("property", "")
			}
			if opts.Page < 0 {
				return fmt.Errorf("page must be positive, got %d", opts.Page)
			}
			return runList(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Stage, "stage", "", "only show applicants in this stage")
	cmd.Flags().StringVar(&opts.Property, "property", "", "only show applicants for this property (default: from ta config)")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "search by name or phone")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page of ten to show (default: all)")

	return cmd
}

func runList(opts client.ListOptions) error {
	resp, err := newAPIClient().ListApplicants(opts)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(resp)
	}

	return printApplicantTable(resp)
}
