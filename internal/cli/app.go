package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/surveyflow"
	"github.com/aretw0/surveyflow/internal/config"
	"github.com/aretw0/surveyflow/internal/logging"
	"github.com/aretw0/surveyflow/internal/metrics"
	"github.com/aretw0/surveyflow/pkg/adapters/amqp"
	"github.com/aretw0/surveyflow/pkg/adapters/file"
	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/adapters/postgres"
	"github.com/aretw0/surveyflow/pkg/adapters/redis"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/persistence/middleware"
	"github.com/aretw0/surveyflow/pkg/ports"
	"github.com/aretw0/surveyflow/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App bundles the engine and the adapters selected by the configuration.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Engine    *surveyflow.Engine
	Store     ports.StateStore
	Sessions  *session.Manager
	Responses ports.ResponseStore
	Publisher ports.ResultPublisher
	Registry  *prometheus.Registry

	closers []func() error
}

// Options are the command line overrides applied on top of the configuration.
type Options struct {
	Dir   string
	Debug bool
	// JSONLogs forces the JSON log format (servers).
	JSONLogs bool
	// Durable upgrades the memory attempt store to the file store, so attempts outlive the process.
	Durable bool
	// Loader replaces the on-disk survey repository.
	Loader ports.SurveyLoader
}

// Bootstrap builds an App from cfg. Close releases every connection it opened.
func Bootstrap(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if opts.Dir != "" {
		cfg.Dir = opts.Dir
	}
	if opts.Debug {
		cfg.Log.Level = "debug"
	}
	if opts.JSONLogs {
		cfg.Log.Format = string(logging.FormatJSON)
	}
	if opts.Durable && cfg.Store.Driver == "memory" {
		cfg.Store.Driver = "file"
	}

	logger, err := logging.FromConfig(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}

	if err := app.build(ctx, opts.Loader); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context, loader ports.SurveyLoader) error {
	cfg := a.Config

	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collected, err := metrics.New(a.Registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	engineOpts := []surveyflow.Option{
		surveyflow.WithLogger(a.Logger),
		surveyflow.WithLifecycleHooks(collected.Hooks()),
		surveyflow.WithMaxSteps(cfg.Engine.MaxSteps),
	}
	if loader != nil {
		engineOpts = append(engineOpts, surveyflow.WithLoader(loader))
	}
	if cfg.Log.Level == "debug" {
		engineOpts = append(engineOpts, surveyflow.WithLifecycleHooks(debugHooks(a.Logger)))
	}
	a.Engine, err = surveyflow.New(cfg.Dir, engineOpts...)
	if err != nil {
		return fmt.Errorf("error initializing engine: %w", err)
	}

	var rs *redis.Store
	if cfg.Store.Driver == "redis" || cfg.Responses.Driver == "redis" {
		var redisOpts []redis.Option
		if cfg.Store.Redis.TTL > 0 {
			redisOpts = append(redisOpts, redis.WithTTL(cfg.Store.Redis.TTL))
		}
		if cfg.Store.Redis.Prefix != "" {
			redisOpts = append(redisOpts, redis.WithPrefix(cfg.Store.Redis.Prefix))
		}
		rs = redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB, redisOpts...)
		a.closers = append(a.closers, rs.Close)
	}

	a.Store, err = BuildStateStore(cfg.Store, rs)
	if err != nil {
		return err
	}

	sessionOpts := []session.Option{session.WithLogger(a.Logger)}
	if rs != nil && cfg.Store.Driver == "redis" {
		sessionOpts = append(sessionOpts, session.WithLocker(redis.NewLocker(rs.Client(), rs.Prefix())))
	}
	a.Sessions = session.NewManager(a.Store, sessionOpts...)

	switch cfg.Responses.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Responses.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		a.Responses = postgres.NewResponseRepo(pool)
	case "redis":
		a.Responses = redis.NewResponseStore(rs.Client(), rs.Prefix())
	default:
		a.Responses = memory.NewResponseStore()
	}

	if cfg.Publisher.AMQPURL != "" {
		pubOpts := []amqp.Option{amqp.WithLogger(a.Logger)}
		if cfg.Publisher.Exchange != "" {
			pubOpts = append(pubOpts, amqp.WithExchange(cfg.Publisher.Exchange))
		}
		if cfg.Publisher.RoutingKey != "" {
			pubOpts = append(pubOpts, amqp.WithRoutingKey(cfg.Publisher.RoutingKey))
		}
		pub, err := amqp.NewPublisher(cfg.Publisher.AMQPURL, pubOpts...)
		if err != nil {
			return fmt.Errorf("failed to connect publisher: %w", err)
		}
		a.closers = append(a.closers, pub.Close)
		a.Publisher = pub
	}

	a.Logger.Debug("application ready",
		"dir", cfg.Dir, "store", cfg.Store.Driver, "responses", cfg.Responses.Driver,
		"publisher", a.Publisher != nil, "encrypted", cfg.Store.EncryptionKey != "", "mask_pii", cfg.Store.MaskPII)
	return nil
}

// BuildStateStore selects the attempt store and wraps it with the configured middleware.
// PII masking runs before encryption so that ciphertext never holds raw respondent details.
func BuildStateStore(cfg config.StoreConfig, rs *redis.Store) (ports.StateStore, error) {
	var store ports.StateStore
	switch cfg.Driver {
	case "file":
		store = file.New(cfg.Path)
	case "redis":
		if rs == nil {
			return nil, errors.New("redis store requested without a redis connection")
		}
		store = rs
	default:
		store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if cfg.MaskPII {
		mws = append(mws, middleware.NewPIIMiddleware())
	}
	if cfg.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), nil
}

// SaveResult stores a completed attempt as a response and announces it.
func (a *App) SaveResult(ctx context.Context, responseID string, res *domain.Result) (*domain.Response, error) {
	resp := domain.NewResponse(responseID, res, res.CompletedAt)
	if err := a.Responses.Save(ctx, resp); err != nil {
		return nil, fmt.Errorf("failed to store response: %w", err)
	}
	if a.Publisher != nil {
		if err := a.Publisher.Publish(ctx, resp); err != nil {
			a.Logger.ErrorContext(ctx, "failed to publish response", "response", resp.ID, "err", err)
		}
	}
	return resp, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "enter node", "node", e.NodeID, "kind", e.NodeKind)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "leave node", "node", e.NodeID)
		},
		OnAnswer: func(ctx context.Context, e *domain.AnswerEvent) {
			logger.DebugContext(ctx, "answer", "node", e.Answer.NodeID, "delta", e.ScoreDelta, "total", e.TotalScore)
		},
		OnBack: func(ctx context.Context, e *domain.AnswerEvent) {
			logger.DebugContext(ctx, "back", "node", e.Answer.NodeID, "total", e.TotalScore)
		},
	}
}

// ConfigPathFromEnv returns SURVEYFLOW_CONFIG when no explicit path is given.
func ConfigPathFromEnv(path string) string {
	if path != "" {
		return path
	}
	return os.Getenv(config.EnvPrefix + "CONFIG")
}
