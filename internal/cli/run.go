package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/surveyflow"
	"github.com/aretw0/surveyflow/internal/presentation/tui"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/runner"
	"github.com/google/uuid"
)

// RunOptions configures an interactive attempt.
type RunOptions struct {
	SurveyID string
	// SessionID makes the attempt durable. Empty means an ephemeral attempt.
	SessionID string
	// Fresh discards a stored attempt with the same SessionID first.
	Fresh bool
	// JSON switches to the NDJSON protocol.
	JSON  bool
	Quiet bool

	Input  io.Reader
	Output io.Writer
}

// RunAttempt takes a survey in the terminal. A completed attempt becomes a stored response
// and its session is removed.
func (a *App) RunAttempt(ctx context.Context, opts RunOptions) (*domain.AttemptState, *domain.Response, error) {
	in, out := opts.Input, opts.Output
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	quiet := opts.Quiet || opts.JSON

	state, loaded, err := a.openAttempt(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(in, out)
	} else {
		var textOpts []runner.TextHandlerOption
		if runner.IsTerminal(out) {
			tui.PrintBanner(out, surveyflow.Version)
			textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
		}
		handler = runner.NewTextHandler(in, out, textOpts...)
	}

	if !quiet {
		switch {
		case loaded:
			a.Logger.Info("session resumed", "session_id", state.ID, "node", state.CurrentNodeID)
			printSystemMessage(out, "Resuming at '%s'...", state.CurrentNodeID)
		case opts.SessionID != "":
			a.Logger.Info("session created", "session_id", state.ID)
			printSystemMessage(out, "Session '%s' active.", state.ID)
		}
	}

	var stored *domain.Response
	runOpts := []runner.Option{
		runner.WithHandler(handler),
		runner.WithLogger(a.Logger),
		runner.WithCompletionHandler(func(ctx context.Context, res *domain.Result) error {
			resp, err := a.SaveResult(ctx, uuid.NewString(), res)
			if err != nil {
				return err
			}
			stored = resp
			if opts.SessionID != "" {
				return a.Sessions.Delete(ctx, res.AttemptID)
			}
			return nil
		}),
	}
	if opts.SessionID != "" {
		runOpts = append(runOpts, runner.WithStore(a.Sessions.Store()))
	}

	final, err := runner.NewRunner(runOpts...).Run(ctx, a.Engine, state)
	if err != nil {
		if errors.Is(err, context.Canceled) && opts.SessionID != "" && !quiet {
			printSystemMessage(out, "Session '%s' saved. Resume with --session %s.", state.ID, state.ID)
		}
		return final, stored, err
	}
	if stored != nil && !quiet {
		printSystemMessage(out, "Response %s recorded.", stored.ID)
	}
	return final, stored, nil
}

func (a *App) openAttempt(ctx context.Context, opts RunOptions) (*domain.AttemptState, bool, error) {
	if opts.SessionID == "" {
		state, err := a.Engine.Start(ctx, opts.SurveyID, uuid.NewString())
		return state, false, err
	}

	if opts.Fresh {
		if err := a.Sessions.Delete(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, false, fmt.Errorf("failed to discard session: %w", err)
		}
	}

	created := false
	state, err := a.Sessions.LoadOrStart(ctx, opts.SessionID, func() (*domain.AttemptState, error) {
		created = true
		return a.Engine.Start(ctx, opts.SurveyID, opts.SessionID)
	})
	if err != nil {
		return nil, false, err
	}
	if state.SurveyID != opts.SurveyID {
		return nil, false, fmt.Errorf("session %q belongs to survey %q", opts.SessionID, state.SurveyID)
	}
	return state, !created, nil
}

func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
