// Package app is the composition root shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/config"
	"github.com/kailas-cloud/scout/internal/db"
	dbRedis "github.com/kailas-cloud/scout/internal/db/redis"
	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/metrics"
	budgetrepo "github.com/kailas-cloud/scout/internal/repository/budget"
	"github.com/kailas-cloud/scout/internal/repository/catalog"
	"github.com/kailas-cloud/scout/internal/repository/gencache"
	reporl "github.com/kailas-cloud/scout/internal/repository/ratelimit"
	chiTransport "github.com/kailas-cloud/scout/internal/transport/chi"
	"github.com/kailas-cloud/scout/internal/transport/langchain"
	openaiGen "github.com/kailas-cloud/scout/internal/transport/openai"
	generationuc "github.com/kailas-cloud/scout/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/scout/internal/usecase/health"
	"github.com/kailas-cloud/scout/internal/usecase/ratelimit"
	searchuc "github.com/kailas-cloud/scout/internal/usecase/search"
	usageuc "github.com/kailas-cloud/scout/internal/usecase/usage"
)

// App holds the wired services.
type App struct {
	Catalog *catalog.Catalog
	Search  *searchuc.Service
	Usage   *usageuc.Service
	Health  *healthuc.Service
	Server  *chiTransport.Server

	cfg      config.Config
	store    db.Store
	memStore *reporl.MemoryStore
	logger   *zap.Logger
}

// New wires every component from cfg. The database is only dialed when a
// redis-backed component is enabled or database.addrs is set.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.Register()

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	logger.Info("Catalog loaded", zap.Int("experiences", cat.Len()), zap.String("path", cfg.Catalog.Path))

	a := &App{Catalog: cat, cfg: cfg, logger: logger}

	if cfg.UsesDatabase() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create database store: %w", err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database", zap.Strings("db_addrs", cfg.Database.Addrs))
		a.store = store
	}

	limiter := a.buildLimiter()

	// Single BudgetTracker shared by the generator chain and the usage service.
	budget := a.buildBudget(ctx)

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetChecker generationuc.BudgetChecker
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetChecker = budget
		budgetReader = budget
	}

	base, err := buildProvider(cfg.Generation, logger)
	if err != nil {
		return nil, err
	}
	gen := a.buildGenerator(base, budgetChecker)
	logger.Info("Generator created",
		zap.String("driver", cfg.Generation.Driver),
		zap.String("model", cfg.Generation.Model),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

	timeout := time.Duration(cfg.Generation.TimeoutSec) * time.Second
	a.Search = searchuc.New(limiter, gen, cat, timeout)
	a.Usage = usageuc.New(budgetReader)

	var pinger healthuc.DBPinger
	if a.store != nil {
		pinger = a.store
	}
	a.Health = healthuc.New(cat, pinger, newGenerationHealthChecker(base))

	a.Server = chiTransport.NewServer(a.Search, cat, a.Usage, a.Health, chiTransport.Options{
		ClientHeader: cfg.RateLimit.ClientHeader,
		FallbackKey:  cfg.RateLimit.FallbackKey,
		MaxBodyBytes: int64(cfg.HTTP.MaxBodyBytes),
	}, logger)

	return a, nil
}

// Handler returns the HTTP router.
func (a *App) Handler() http.Handler {
	return chiTransport.NewRouter(a.Server, a.logger)
}

// RunBackground starts the in-memory limiter sweeper until ctx is done.
func (a *App) RunBackground(ctx context.Context) {
	if a.memStore == nil {
		return
	}
	go a.memStore.Run(ctx, time.Duration(a.cfg.RateLimit.SweepIntervalSec)*time.Second)
}

// Close releases the database connection.
func (a *App) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.Path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

func (a *App) buildLimiter() *ratelimit.Service {
	rl := a.cfg.RateLimit
	window := time.Duration(rl.WindowSec) * time.Second

	var store ratelimit.Store
	switch rl.Driver {
	case config.DriverRedis:
		store = reporl.NewRedisStore(a.store)
	default:
		a.memStore = reporl.NewMemoryStore(rl.MaxKeys, a.logger)
		store = a.memStore
	}
	a.logger.Info("Rate limiter configured",
		zap.String("driver", rl.Driver),
		zap.Int("max_requests", rl.MaxRequests),
		zap.Duration("window", window),
	)
	return ratelimit.New(store, rl.MaxRequests, window, a.logger)
}

func (a *App) buildBudget(ctx context.Context) *generationuc.BudgetTracker {
	bc := a.cfg.Generation.Budget
	if !bc.Enabled() {
		return nil
	}
	action := generationuc.BudgetActionWarn
	if bc.Action == "reject" {
		action = generationuc.BudgetActionReject
	}
	budget := generationuc.NewBudgetTracker(
		a.cfg.Generation.Driver, a.cfg.Generation.Model, bc.DailyTokenLimit, bc.MonthlyTokenLimit, action, a.logger,
	)
	if a.store == nil {
		a.logger.Info("Token budget kept in memory", zap.String("action", string(action)))
		return budget
	}
	budget.WithStore(ctx, budgetrepo.New(a.store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
	return budget
}

// buildGenerator assembles the decorator chain: provider -> Instrumented -> Cached.
// The cache is outermost so hits never touch the budget.
func (a *App) buildGenerator(base domain.Generator, budget generationuc.BudgetChecker) domain.Generator {
	gc := a.cfg.Generation
	var gen domain.Generator = generationuc.NewInstrumentedGenerator(base, gc.Driver, gc.Model, budget, a.logger)
	if a.cfg.Cache.Enabled && a.store != nil {
		ttl := time.Duration(a.cfg.Cache.TTLSec) * time.Second
		gen = gencache.New(gen, a.store, gc.Model, ttl, metrics.GenerationCacheTotal, a.logger).
			WithAccept(searchuc.IsMatchList)
	}
	return gen
}

func buildProvider(gc config.GenerationConfig, logger *zap.Logger) (domain.Generator, error) {
	switch gc.Driver {
	case config.DriverLocal:
		gen, err := langchain.NewGenerator(&langchain.Config{
			BaseURL:     gc.BaseURL,
			APIKey:      gc.APIKey,
			Model:       gc.Model,
			Temperature: gc.TemperatureValue(),
			MaxTokens:   gc.MaxTokens,
			Provider:    gc.Driver,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create local generator: %w", err)
		}
		return gen, nil
	default:
		return openaiGen.NewGenerator(&openaiGen.Config{
			APIKey:      gc.APIKey,
			BaseURL:     gc.BaseURL,
			Model:       gc.Model,
			Temperature: gc.TemperatureValue(),
			MaxTokens:   gc.MaxTokens,
			User:        "scout",
			Provider:    gc.Driver,
			Logger:      logger,
		}), nil
	}
}

// generationHealthChecker adapts domain.Generator to health.GenerationChecker.
type generationHealthChecker struct {
	gen domain.Generator
}

func newGenerationHealthChecker(gen domain.Generator) healthuc.GenerationChecker {
	if _, ok := gen.(domain.HealthChecker); !ok {
		return nil
	}
	return &generationHealthChecker{gen: gen}
}

func (h *generationHealthChecker) HealthCheck(ctx context.Context) error {
	if err := h.gen.(domain.HealthChecker).HealthCheck(ctx); err != nil {
		return fmt.Errorf("generation health check: %w", err)
	}
	return nil
}
