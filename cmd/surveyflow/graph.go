package main

import (
	"fmt"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/aretw0/surveyflow/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <survey-id>",
	Short: "Export the survey graph as a Mermaid diagram",
	Long:  `Outputs a Mermaid flowchart of the survey. With --session the visited path and current node are highlighted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")

		app, err := bootstrap(cmd, cli.Options{Durable: true})
		if err != nil {
			return err
		}
		defer app.Close()

		survey, err := app.Engine.Survey(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if sessionID != "" {
			state, err := app.Sessions.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", sessionID, err)
			}
			overlay = graph.OverlayFromState(state)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(&survey.Graph, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the path of a stored session")
}
