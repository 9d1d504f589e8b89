package main

import (
	"fmt"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/aretw0/surveyflow/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [survey-id]...",
	Short: "Lint survey graphs",
	Long:  `Checks surveys for broken links, unreachable nodes and edges whose option or rating value cannot match. Without arguments every survey is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd, cli.Options{})
		if err != nil {
			return err
		}
		defer app.Close()

		ids := args
		if len(ids) == 0 {
			if ids, err = app.Engine.Surveys(cmd.Context()); err != nil {
				return err
			}
		}

		failed := 0
		out := cmd.OutOrStdout()
		for _, id := range ids {
			survey, err := app.Engine.Survey(cmd.Context(), id)
			if err == nil {
				err = validator.ValidateGraph(&survey.Graph)
			}
			if err != nil {
				failed++
				fmt.Fprintf(out, "✗ %s: %v\n", id, err)
				continue
			}
			fmt.Fprintf(out, "✓ %s\n", id)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d surveys failed validation", failed, len(ids))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
