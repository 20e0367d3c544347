package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"popfitup-backend/internal/interfaces/dto"
)

func parseReportID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid report ID: %s", arg)
	}
	return id, nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "File and manage your popup reports",
		Long:  "Reports suggest popups missing from the catalog. Each identity may have at most 3 outstanding reports.",
	}

	var req dto.SubmitReportRequest
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newAPIClient().SubmitReport(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, r)
			}
			fmt.Fprintf(out, "Report #%d submitted.\n", r.ID)
			return nil
		},
	}
	submit.Flags().StringVar(&req.Name, "name", "", "popup name")
	submit.Flags().StringVar(&req.Address, "address", "", "popup address")
	submit.Flags().StringVar(&req.Description, "description", "", "details")

	cmd.AddCommand(
		submit,
		&cobra.Command{
			Use:   "list",
			Short: "List your reports, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rs, err := newAPIClient().MyReports(cmd.Context())
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), rs)
				}
				return printReportTable(cmd.OutOrStdout(), rs)
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete one of your reports",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseReportID(args[0])
				if err != nil {
					return err
				}
				if err := newAPIClient().DeleteMyReport(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report #%d deleted.\n", id)
				return nil
			},
		},
	)
	return cmd
}

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderate reports (requires --key)",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "reports",
			Short: "List every report, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rs, err := newAPIClient().AllReports(cmd.Context(), flagKey)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), rs)
				}
				return printReportTable(cmd.OutOrStdout(), rs)
			},
		},
		&cobra.Command{
			Use:   "answer <id> <text>",
			Short: "Answer a report (once)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseReportID(args[0])
				if err != nil {
					return err
				}
				r, err := newAPIClient().AnswerReport(cmd.Context(), id, flagKey, args[1])
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), r)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report #%d answered.\n", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete any report",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseReportID(args[0])
				if err != nil {
					return err
				}
				if err := newAPIClient().DeleteReport(cmd.Context(), id, flagKey); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report #%d deleted.\n", id)
				return nil
			},
		},
	)
	return cmd
}
