package main

import (
	"fmt"

	"github.com/aretw0/surveyflow/internal/cli"
	"github.com/aretw0/surveyflow/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes surveys as MCP tools so agents can take them on behalf of a respondent.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		app, err := bootstrap(cmd, cli.Options{JSONLogs: true})
		if err != nil {
			return err
		}
		defer app.Close()

		if baseURL == "" {
			baseURL = app.Config.HTTP.BaseURL
		}

		srv := mcp.NewServer(app.Engine,
			mcp.WithSessions(app.Sessions),
			mcp.WithLogger(app.Logger),
			mcp.WithSurveyLister(app.Engine.Surveys),
		)

		switch transport {
		case "stdio":
			app.Logger.Info("starting surveyflow MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			sc := cli.NewSignalContext(cmd.Context())
			defer sc.Stop()
			if err := srv.ServeSSE(sc, addr, baseURL); err != nil {
				return err
			}
			app.Logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public base URL announced to SSE clients")
}
