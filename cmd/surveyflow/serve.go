package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/surveyflow/internal/cli"
	httpAdapter "github.com/aretw0/surveyflow/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves the respondent API (attempts, results, responses) with request validation, SSE updates and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd, cli.Options{JSONLogs: true})
		if err != nil {
			return err
		}
		defer app.Close()

		addr := app.Config.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithSessions(app.Sessions),
			httpAdapter.WithResponseStore(app.Responses),
			httpAdapter.WithMetrics(app.Registry),
			httpAdapter.WithLogger(app.Logger),
			httpAdapter.WithCORS(len(app.Config.HTTP.CORS) > 0),
		}
		if app.Publisher != nil {
			opts = append(opts, httpAdapter.WithPublisher(app.Publisher))
		}
		handler, err := httpAdapter.NewHandler(app.Engine, opts...)
		if err != nil {
			return fmt.Errorf("failed to build handler: %w", err)
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Stop()

		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("starting surveyflow server", "addr", srv.Addr, "dir", app.Config.Dir)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sc.Done():
			app.Logger.Info("start shutdown", "signal", fmt.Sprint(sc.Signal()))

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				app.Logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			app.Logger.Info("server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides config)")
}
