// Package app assembles the store, cache and services every binary runs on.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vladimiradmaev/diabetes-tracker/internal/api"
	"github.com/vladimiradmaev/diabetes-tracker/internal/bot/handlers"
	"github.com/vladimiradmaev/diabetes-tracker/internal/cache"
	"github.com/vladimiradmaev/diabetes-tracker/internal/config"
	"github.com/vladimiradmaev/diabetes-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"github.com/vladimiradmaev/diabetes-tracker/internal/estimator"
	"github.com/vladimiradmaev/diabetes-tracker/internal/logger"
	"github.com/vladimiradmaev/diabetes-tracker/internal/mcp"
	"github.com/vladimiradmaev/diabetes-tracker/internal/repository"
	"github.com/vladimiradmaev/diabetes-tracker/internal/services"
)

// App holds the wired application services
type App struct {
	Store  domain.Store
	Cache  cache.Cache
	Errors *apperrors.Handler

	Estimator   *services.EstimatorService
	Glucose     *services.GlucoseService
	Insulin     *services.InsulinService
	Meals       *services.MealService
	Predictions *services.PredictionService
	Analysis    *services.AnalysisService
}

// New opens storage and the analysis cache and builds the services on top
func New(cfg *config.Config) (*App, error) {
	store, err := repository.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	logger.Info("Record store ready", "driver", cfg.DB.Driver)

	c, err := cache.New(cfg.Redis, cfg.AnalysisCacheTTL)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	logger.Info("Analysis cache ready", "redis", cfg.Redis.Enabled())

	handler := apperrors.NewHandler(logger.GetLogger())
	opts := services.Options{
		DefaultUserID: cfg.DefaultUserID,
		AuditTimeout:  cfg.AuditTimeout,
	}
	est := estimator.NewLocalFormula(estimator.Options{
		ClampToPhysiologicalRange: cfg.Estimator.ClampToPhysiologicalRange,
	})

	return &App{
		Store:       store,
		Cache:       c,
		Errors:      handler,
		Estimator:   services.NewEstimatorService(est, store, c, handler, opts),
		Glucose:     services.NewGlucoseService(store, c, handler, opts),
		Insulin:     services.NewInsulinService(store, c, handler, opts),
		Meals:       services.NewMealService(store, c, handler, opts),
		Predictions: services.NewPredictionService(store, opts),
		Analysis:    services.NewAnalysisService(store, c, handler, opts),
	}, nil
}

// APIServices returns the services the HTTP surface needs
func (a *App) APIServices() api.Services {
	return api.Services{
		Estimator:   a.Estimator,
		Glucose:     a.Glucose,
		Insulin:     a.Insulin,
		Meals:       a.Meals,
		Predictions: a.Predictions,
		Analysis:    a.Analysis,
	}
}

// BotDependencies returns the services the Telegram bot needs
func (a *App) BotDependencies() handlers.Dependencies {
	return handlers.Dependencies{
		EstimatorSvc: a.Estimator,
		GlucoseSvc:   a.Glucose,
		InsulinSvc:   a.Insulin,
	}
}

// MCPDependencies returns the services the MCP tools need
func (a *App) MCPDependencies() mcp.Dependencies {
	return mcp.Dependencies{
		EstimatorSvc: a.Estimator,
		GlucoseSvc:   a.Glucose,
	}
}

// Close waits for pending audit writes, bounded by ctx, then releases the
// cache and the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Estimator.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.Cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close cache: %w", err))
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
