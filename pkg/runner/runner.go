package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/surveyflow/internal/logging"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/ports"
)

// Runner drives an attempt to completion through an IOHandler.
// Every accepted command is persisted before the next prompt, so an interrupted
// run resumes where it stopped.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler over Stdin/Stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	// Store is the persistence adapter. If nil, attempts are ephemeral.
	Store ports.StateStore

	// OnComplete is called once with the result when the attempt completes.
	OnComplete func(ctx context.Context, res *domain.Result) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithHandler sets the IO strategy.
func WithHandler(h IOHandler) Option {
	return func(r *Runner) {
		r.Handler = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithStore enables durable attempts.
func WithStore(store ports.StateStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithCompletionHandler registers fn to receive the final result.
func WithCompletionHandler(fn func(ctx context.Context, res *domain.Result) error) Option {
	return func(r *Runner) {
		r.OnComplete = fn
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run loops render, read and apply until the attempt completes, the respondent
// quits or the input is exhausted. It returns the last state reached.
func (r *Runner) Run(ctx context.Context, engine ports.FlowEngine, state *domain.AttemptState) (*domain.AttemptState, error) {
	if state == nil {
		return nil, errors.New("runner: nil attempt state")
	}

	render := true
	for {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		view, err := BuildView(ctx, engine, state)
		if err != nil {
			return state, fmt.Errorf("render error: %w", err)
		}
		if render {
			if err := r.Handler.Output(ctx, view); err != nil {
				return state, fmt.Errorf("output error: %w", err)
			}
			render = false
		}

		if view.Result != nil {
			return state, r.complete(ctx, view.Result)
		}
		if view.Node == nil {
			r.Logger.WarnContext(ctx, "attempt has no current node", "attempt", state.ID)
			return state, nil
		}

		cmd, err := r.Handler.ReadCommand(ctx, view.Node)
		switch {
		case errors.Is(err, io.EOF):
			r.Logger.DebugContext(ctx, "input exhausted", "attempt", state.ID, "node", state.CurrentNodeID)
			return state, nil
		case errors.Is(err, domain.ErrInvalidAnswer):
			_ = r.Handler.SystemOutput(ctx, err.Error())
			continue
		case err != nil:
			return state, fmt.Errorf("input error: %w", err)
		}

		if cmd.Quit {
			r.Logger.DebugContext(ctx, "respondent quit", "attempt", state.ID)
			return state, nil
		}

		next, err := r.apply(ctx, engine, state, cmd)
		if errors.Is(err, domain.ErrInvalidAnswer) {
			_ = r.Handler.SystemOutput(ctx, err.Error())
			continue
		}
		if err != nil {
			return state, err
		}
		if next == nil {
			continue
		}

		if err := r.save(ctx, next); err != nil {
			return state, fmt.Errorf("critical persistence error: %w", err)
		}
		state = next
		render = true
	}
}

// apply returns a nil state when the command changed nothing.
func (r *Runner) apply(ctx context.Context, engine ports.FlowEngine, state *domain.AttemptState, cmd Command) (*domain.AttemptState, error) {
	if cmd.Back {
		if !state.CanGoBack() {
			_ = r.Handler.SystemOutput(ctx, "Nothing to go back to.")
			return nil, nil
		}
		return engine.Back(ctx, state)
	}

	answer := cmd.Answer
	if answer.NodeID == "" {
		answer.NodeID = state.CurrentNodeID
	}
	if err := engine.Validate(ctx, state, answer); err != nil {
		return nil, err
	}
	return engine.Answer(ctx, state, answer)
}

func (r *Runner) save(ctx context.Context, state *domain.AttemptState) error {
	if r.Store == nil {
		return nil
	}
	if err := r.Store.Save(ctx, state.ID, state); err != nil {
		return err
	}
	r.Logger.DebugContext(ctx, "state saved", "attempt", state.ID, "node", state.CurrentNodeID)
	return nil
}

func (r *Runner) complete(ctx context.Context, res *domain.Result) error {
	if r.OnComplete == nil {
		return nil
	}
	return r.OnComplete(ctx, res)
}
