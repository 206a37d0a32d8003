package scout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/scout/internal/db/redis"
	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/experience"
	"github.com/kailas-cloud/scout/internal/repository/catalog"
	reporl "github.com/kailas-cloud/scout/internal/repository/ratelimit"
	openaiGen "github.com/kailas-cloud/scout/internal/transport/openai"
	generationuc "github.com/kailas-cloud/scout/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/scout/internal/usecase/health"
	"github.com/kailas-cloud/scout/internal/usecase/ratelimit"
	searchuc "github.com/kailas-cloud/scout/internal/usecase/search"
	usageuc "github.com/kailas-cloud/scout/internal/usecase/usage"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultTimeout          = 20 * time.Second
	defaultTemperature      = 0.3
	defaultModel            = "gpt-4o-mini"
	maxTrackedKeys          = 100000
)

// Client is the scout SDK entry point.
type Client struct {
	store     *dbRedis.Store
	catalog   catalogReader
	searchSvc searchUseCase
	healthSvc healthUseCase
	usageSvc  usageUseCase
	obs       *observer
}

// New creates a scout Client.
// The provided context is used for the initial Redis readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		timeout:     defaultTimeout,
		temperature: defaultTemperature,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	gen, provider, err := createGenerator(cfg)
	if err != nil {
		return nil, err
	}

	cat, err := createCatalog(cfg)
	if err != nil {
		return nil, err
	}

	var store *dbRedis.Store
	if cfg.redisAddr != "" {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    []string{cfg.redisAddr},
			Password: cfg.redisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("scout: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("scout: redis not ready: %w", err)
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return wireClient(cfg, gen, provider, cat, store, obs), nil
}

func createGenerator(cfg *clientConfig) (domain.Generator, string, error) {
	if cfg.generator != nil {
		return &generatorAdapter{inner: cfg.generator}, "custom", nil
	}
	if cfg.openAIKey == "" && cfg.baseURL == "" {
		return nil, "", errors.New("scout: generator required (use WithOpenAI or WithGenerator)")
	}
	model := cfg.openAIModel
	if model == "" {
		model = defaultModel
	}
	return openaiGen.NewGenerator(&openaiGen.Config{
		APIKey:      cfg.openAIKey,
		BaseURL:     cfg.baseURL,
		Model:       model,
		Temperature: cfg.temperature,
		User:        "scout-sdk",
		Provider:    "openai",
		Logger:      zap.NewNop(),
	}), "openai", nil
}

func createCatalog(cfg *clientConfig) (*catalog.Catalog, error) {
	if len(cfg.experiences) > 0 {
		items := make([]experience.Experience, len(cfg.experiences))
		for i, e := range cfg.experiences {
			d, err := experienceToDomain(e)
			if err != nil {
				return nil, fmt.Errorf("scout: experience %d: %w", e.ID, err)
			}
			items[i] = d
		}
		cat, err := catalog.New(items)
		if err != nil {
			return nil, fmt.Errorf("scout: catalog: %w", err)
		}
		return cat, nil
	}
	cat, err := catalog.Load(cfg.catalogPath)
	if err != nil {
		return nil, fmt.Errorf("scout: catalog: %w", err)
	}
	return cat, nil
}

func wireClient(
	cfg *clientConfig, gen domain.Generator, provider string,
	cat *catalog.Catalog, store *dbRedis.Store, obs *observer,
) *Client {
	log := zap.NewNop()

	// Unlimited limits still count tokens for Usage.
	action := generationuc.BudgetActionWarn
	if cfg.dailyTokens > 0 || cfg.monthlyTokens > 0 {
		action = generationuc.BudgetActionReject
	}
	budget := generationuc.NewBudgetTracker(provider, cfg.openAIModel, cfg.dailyTokens, cfg.monthlyTokens, action, log)
	instrumented := generationuc.NewInstrumentedGenerator(gen, provider, "", budget, log)

	var limiter searchuc.Admitter
	if cfg.maxRequests > 0 && cfg.window > 0 {
		var ws ratelimit.Store = reporl.NewMemoryStore(maxTrackedKeys, log)
		if store != nil {
			ws = reporl.NewRedisStore(store)
		}
		limiter = ratelimit.New(ws, cfg.maxRequests, cfg.window, log)
	}

	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}
	var genCheck healthuc.GenerationChecker
	if hc, ok := gen.(domain.HealthChecker); ok {
		genCheck = hc
	}

	return &Client{
		store:     store,
		catalog:   cat,
		searchSvc: searchuc.New(limiter, instrumented, cat, cfg.timeout),
		healthSvc: healthuc.New(cat, pinger, genCheck),
		usageSvc:  usageuc.New(budget),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}
