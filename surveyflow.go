package surveyflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/loam"
	"github.com/aretw0/surveyflow/internal/runtime"
	loamAdapter "github.com/aretw0/surveyflow/pkg/adapters/loam"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/ports"
)

// Engine is the high-level entry point for the library.
// It resolves surveys through a SurveyLoader and runs attempts over them.
// Attempt state is passed in and returned by value, so one Engine serves any number of attempts.
type Engine struct {
	runtime *runtime.Engine
	loader  ports.SurveyLoader
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	// Name is the base name of the survey directory, used as a label.
	Name string

	runtimeOpts []runtime.EngineOption
}

var _ ports.FlowEngine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom SurveyLoader, bypassing the default Loam initialization.
func WithLoader(l ports.SurveyLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithMaxSteps completes an attempt once its visited path reaches n nodes.
// It guards against cyclic graphs. Zero (the default) disables the guard.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxSteps(n))
	}
}

// WithClock overrides the time source for answer and completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithClock(now))
	}
}

// New initializes a new Engine.
// By default, it loads surveys from a Loam repository at the given path.
// If WithLoader is provided, repoPath can be empty and Loam is skipped.
func New(repoPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if repoPath == "" {
			return nil, fmt.Errorf("repoPath is required when no custom loader is provided")
		}

		absPath, err := filepath.Abs(repoPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)

		// Strict mode keeps numbers as json.Number across adapters; read-only avoids
		// loam's dev sandbox since surveys are never written through the engine.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}
		eng.loader = loamAdapter.New(loam.NewTypedRepository[loamAdapter.SurveyMetadata](repo))
	} else if repoPath != "" {
		eng.Name = filepath.Base(repoPath)
	}

	eng.init()
	return eng, nil
}

// init builds the runtime from the collected options.
func (e *Engine) init() {
	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if e.Name != "" {
		e.logger = e.logger.With("surveys", e.Name)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	}
	e.runtime = runtime.NewEngine(append(runtimeOpts, e.runtimeOpts...)...)
}

// Survey loads a survey by id.
func (e *Engine) Survey(ctx context.Context, surveyID string) (*domain.Survey, error) {
	return e.loader.GetSurvey(ctx, surveyID)
}

// Surveys lists the ids of every available survey.
func (e *Engine) Surveys(ctx context.Context) ([]string, error) {
	return e.loader.ListSurveys(ctx)
}

// Start creates an attempt positioned on the survey's entry node.
func (e *Engine) Start(ctx context.Context, surveyID, attemptID string) (*domain.AttemptState, error) {
	s, err := e.Survey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !s.Accepting() {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrSurveyNotPublished, surveyID, s.Status)
	}
	return e.runtime.Start(ctx, &s.Graph, attemptID, s.ID), nil
}

// Validate checks an answer against the attempt's current node.
func (e *Engine) Validate(ctx context.Context, state *domain.AttemptState, answer domain.Answer) error {
	g, err := e.graph(ctx, state)
	if err != nil {
		return err
	}
	return runtime.ValidateAnswer(g, state, &answer)
}

// Answer applies an answer and advances the attempt.
// The engine never rejects answers; call Validate first when input comes from outside.
func (e *Engine) Answer(ctx context.Context, state *domain.AttemptState, answer domain.Answer) (*domain.AttemptState, error) {
	g, err := e.graph(ctx, state)
	if err != nil {
		return nil, err
	}
	return e.runtime.Answer(ctx, g, state, answer), nil
}

// Back undoes the last answer.
func (e *Engine) Back(ctx context.Context, state *domain.AttemptState) (*domain.AttemptState, error) {
	g, err := e.graph(ctx, state)
	if err != nil {
		return nil, err
	}
	return e.runtime.GoBack(ctx, g, state), nil
}

// Reset returns the attempt to its pristine form.
func (e *Engine) Reset(_ context.Context, state *domain.AttemptState) (*domain.AttemptState, error) {
	return e.runtime.Reset(state), nil
}

// CurrentNode resolves the node awaiting an answer, or nil when there is none.
func (e *Engine) CurrentNode(ctx context.Context, state *domain.AttemptState) (*domain.Node, error) {
	if state.CurrentNodeID == "" {
		return nil, nil
	}
	g, err := e.graph(ctx, state)
	if err != nil {
		return nil, err
	}
	return e.runtime.CurrentNode(g, state), nil
}

// Result returns the artifact of a completed attempt.
func (e *Engine) Result(state *domain.AttemptState) (*domain.Result, error) {
	res := e.runtime.Result(state)
	if res == nil {
		return nil, domain.ErrNotCompleted
	}
	return res, nil
}

// NewAttempt loads a survey and returns an owned attempt over it. The attempt is not started.
func (e *Engine) NewAttempt(ctx context.Context, surveyID, attemptID string) (*Attempt, error) {
	s, err := e.Survey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	return newAttempt(e.runtime, s, attemptID), nil
}

// Watch returns a channel that signals the id of every survey that changes.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

// Loader returns the underlying SurveyLoader.
func (e *Engine) Loader() ports.SurveyLoader {
	return e.loader
}

func (e *Engine) graph(ctx context.Context, state *domain.AttemptState) (*domain.Graph, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil attempt state", domain.ErrSessionNotFound)
	}
	s, err := e.Survey(ctx, state.SurveyID)
	if err != nil {
		return nil, err
	}
	return &s.Graph, nil
}
