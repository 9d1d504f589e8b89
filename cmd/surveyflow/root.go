package main

import (
	"fmt"
	"os"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/aretw0/surveyflow/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "surveyflow",
	Short: "Surveyflow runs branching surveys defined as graphs",
	Long: `Surveyflow walks respondents through survey graphs (presentation, choice, rating and end screens),
scoring their answers and storing the final responses.

Surveys are read from --dir as JSON or Markdown frontmatter documents.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("dir", "", "Directory containing the surveys (overrides config)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to surveyflow.yaml")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// bootstrap loads the configuration and wires the application for cmd.
// The persistent flags override the matching fields of opts.
func bootstrap(cmd *cobra.Command, opts cli.Options) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	dir, _ := cmd.Flags().GetString("dir")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(cli.ConfigPathFromEnv(path))
	if err != nil {
		return nil, err
	}
	opts.Dir = dir
	opts.Debug = debug
	return cli.Bootstrap(cmd.Context(), cfg, opts)
}
