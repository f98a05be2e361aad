package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grhey0115/Tenant-Assessment/internal/assessment"
)

func newAssessmentsCmd() *cobra.Command {
	var (
		f    assessment.ReviewFilter
		page int
	)

	cmd := &cobra.Command{
		Use:   "assessments",
		Short: "List submitted tenant assessments",
		Long: `List submitted tenant assessments, newest first.

Recommendations: approve, maybe, hell-no.
Property filters by property code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.Recommendation != "" && !assessment.Recommendation(f.Recommendation).Valid() {
				return fmt.Errorf("unknown recommendation %q", f.Recommendation)
			}
			resp, err := newAPIClient().ListAssessments(f, page)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(resp)
			}
			return printAssessmentTable(resp)
		},
	}

	cmd.Flags().StringVar(&f.Recommendation, "recommendation", "", "only this recommendation")
	cmd.Flags().StringVar(&f.Property, "property", "", "only this property code")
	cmd.Flags().StringVar(&f.Agent, "agent", "", "only this agent")
	cmd.Flags().StringVarP(&f.Search, "search", "s", "", "search by prospect name or phone")
	cmd.Flags().IntVar(&page, "page", 0, "page of ten to show (default: all)")

	return cmd
}

func newAnalyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Summarize submitted assessments",
		Long:  "Count submitted assessments by recommendation, property and agent.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAPIClient().Analytics()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(a)
			}
			fmt.Printf("Total assessments: %d\n\n", a.Total)
			printSlices("By recommendation", a.ByRecommendation)
			printSlices("By property", a.ByProperty)
			printSlices("By agent", a.ByAgent)
			return nil
		},
	}
}
