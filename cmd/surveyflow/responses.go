package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/spf13/cobra"
)

var responsesCmd = &cobra.Command{
	Use:   "responses",
	Short: "Browse stored responses",
}

var responsesLsCmd = &cobra.Command{
	Use:   "ls <survey-id>",
	Short: "List the responses of a survey, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		format, _ := cmd.Flags().GetString("format")

		app, err := bootstrap(cmd, cli.Options{})
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		total, err := app.Responses.Count(ctx, args[0])
		if err != nil {
			return err
		}
		list, err := app.Responses.List(ctx, args[0], limit, offset)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format != "table" {
			data, err := encode(map[string]any{"total": total, "responses": list}, format)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "%d response(s)\n", total)
		if len(list) == 0 {
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSCORE\tRESPONDENT\tCOMPLETED")
		for _, r := range list {
			who := r.RespondentName
			if r.RespondentEmail != "" {
				who = fmt.Sprintf("%s <%s>", who, r.RespondentEmail)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.ID, r.TotalScore, who, r.CompletedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	},
}

var responsesRmCmd = &cobra.Command{
	Use:   "rm <survey-id> <response-id>...",
	Short: "Delete responses",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd, cli.Options{})
		if err != nil {
			return err
		}
		defer app.Close()

		failed := 0
		for _, id := range args[1:] {
			if err := app.Responses.Delete(cmd.Context(), args[0], id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed response '%s'\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("failed to remove %d response(s)", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(responsesCmd)
	responsesCmd.AddCommand(responsesLsCmd)
	responsesCmd.AddCommand(responsesRmCmd)
	responsesLsCmd.Flags().Int("limit", 20, "Maximum responses to show")
	responsesLsCmd.Flags().Int("offset", 0, "Responses to skip")
	responsesLsCmd.Flags().StringP("format", "o", "table", "Output format: table, json or yaml")
}
