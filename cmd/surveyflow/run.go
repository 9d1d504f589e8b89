package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <survey-id>",
	Short: "Take a survey in the terminal",
	Long: `Runs an attempt interactively. Type 'back' to change the previous answer and 'quit' to stop.

With --session the attempt is stored after every answer and resumed by the next run with the same id.
With --json the command speaks NDJSON: one view per line out, one answer per line in.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		jsonMode, _ := cmd.Flags().GetBool("json")
		quiet, _ := cmd.Flags().GetBool("quiet")

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Stop()
		cmd.SetContext(sc)

		app, err := bootstrap(cmd, cli.Options{Durable: true})
		if err != nil {
			return err
		}
		defer app.Close()

		_, _, err = app.RunAttempt(sc, cli.RunOptions{
			SurveyID:  args[0],
			SessionID: sessionID,
			Fresh:     fresh,
			JSON:      jsonMode,
			Quiet:     quiet,
			Input:     cmd.InOrStdin(),
			Output:    cmd.OutOrStdout(),
		})
		if sig := sc.Signal(); sig != nil && errors.Is(err, sc.Err()) {
			app.Logger.Info("interrupted", "signal", sig.String())
			if !jsonMode {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("session", "s", "", "Durable session id (resume if it exists)")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
	runCmd.Flags().Bool("json", false, "Use the NDJSON protocol on stdin/stdout")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress session messages")
}
