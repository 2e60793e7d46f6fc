// Package app assembles the planner from configuration. Both the server and
// the CLI build their service graph through it.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/weekplan/internal/advisor"
	"github.com/example/weekplan/internal/config"
	"github.com/example/weekplan/internal/fixture"
	"github.com/example/weekplan/internal/logging"
	"github.com/example/weekplan/internal/observability"
	"github.com/example/weekplan/internal/service"
	"github.com/example/weekplan/internal/storage"
	"github.com/example/weekplan/internal/storage/sqlite"
)

// App holds the wired planner and the resources it owns.
type App struct {
	Config  config.Config
	Store   *sqlite.SQLiteStorage
	Catalog storage.Catalog
	Gateway advisor.Gateway
	Planner *service.PlannerService
	Metrics *observability.Metrics

	logger *zap.Logger
}

// Option adjusts how an App is built.
type Option func(*options)

type options struct {
	gateway advisor.Gateway
	planner []service.Option
}

// WithGateway uses gw instead of the configured advisory provider.
func WithGateway(gw advisor.Gateway) Option {
	return func(o *options) { o.gateway = gw }
}

// WithPlannerOptions forwards opts to service.NewPlanner.
func WithPlannerOptions(opts ...service.Option) Option {
	return func(o *options) { o.planner = append(o.planner, opts...) }
}

// New opens and migrates storage, picks the advisory gateway and builds the
// planner. Close releases the storage.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	logger = logging.OrNop(logger)
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	metrics := observability.NewMetrics()

	logger.Info("opening storage", zap.String("path", cfg.Storage.SQLitePath))
	store, err := sqlite.NewWithMetrics(cfg.Storage.SQLitePath, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	gw := o.gateway
	if gw == nil {
		gw, err = NewGateway(ctx, cfg.Advisor, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	catalog := storage.NewCatalog(store)
	plannerOpts := append([]service.Option{service.WithMetrics(metrics)}, o.planner...)

	return &App{
		Config:  cfg,
		Store:   store,
		Catalog: catalog,
		Gateway: gw,
		Planner: service.NewPlanner(catalog, gw, cfg.Planner, logger, plannerOpts...),
		Metrics: metrics,
		logger:  logger,
	}, nil
}

// NewGateway builds the advisory gateway named by cfg.Provider.
func NewGateway(ctx context.Context, cfg config.AdvisorConfig, logger *zap.Logger) (advisor.Gateway, error) {
	switch cfg.Provider {
	case "static":
		if cfg.FixturePath == "" {
			return nil, errors.New("advisor.fixture_path is required for the static provider")
		}
		f, err := fixture.Load(cfg.FixturePath)
		if err != nil {
			return nil, err
		}
		return f.Gateway()
	case "genai", "":
		return advisor.NewGenAIGateway(ctx, advisor.GenAIConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown advisor provider %q", cfg.Provider)
	}
}

// Close releases the storage.
func (a *App) Close() error {
	a.logger.Debug("closing storage")
	return a.Store.Close()
}
