// Package langchain adapts local OpenAI-compatible model servers (Ollama, LM Studio,
// vLLM, llama.cpp) to domain.Generator through langchaingo.
package langchain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/metrics"
)

// Config holds the local model settings.
type Config struct {
	BaseURL     string
	APIKey      string // empty = "none"; most local servers ignore it
	Model       string
	Temperature float64
	MaxTokens   int
	Provider    string
	HealthTTL   time.Duration // how long a health result is reused; 0 = DefaultHealthTTL
	Logger      *zap.Logger
}

// DefaultHealthTTL bounds how often HealthCheck reaches the model server.
const DefaultHealthTTL = 30 * time.Second

// Generator calls a chat model through the langchaingo llms.Model abstraction.
type Generator struct {
	llm         llms.Model
	model       string
	temperature float64
	maxTokens   int
	provider    string
	logger      *zap.Logger

	healthTTL time.Duration
	now       func() time.Time
	healthMu  sync.Mutex
	checkedAt time.Time
	healthErr error
}

// NewGenerator creates a generator backed by an OpenAI-compatible local server.
func NewGenerator(cfg *Config) (*Generator, error) {
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create local model client: %w", err)
	}
	return NewWithModel(llm, cfg), nil
}

// NewWithModel wraps an existing llms.Model.
func NewWithModel(llm llms.Model, cfg *Config) *Generator {
	ttl := cfg.HealthTTL
	if ttl <= 0 {
		ttl = DefaultHealthTTL
	}
	return &Generator{
		healthTTL:   ttl,
		now:         time.Now,
		llm:         llm,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, prompt domain.Prompt) (domain.GenerationResult, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt.System),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt.User),
	}
	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}

	start := time.Now()
	resp, err := g.llm.GenerateContent(ctx, content, opts...)
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, "api_error").Inc()
		return domain.GenerationResult{}, fmt.Errorf("local model: %w: %w", domain.ErrGenerationProviderError, err)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	g.storeHealth(nil)

	if resp == nil || len(resp.Choices) == 0 {
		g.logger.Debug("No choices returned from local model", zap.String("model", g.model))
		return domain.GenerationResult{}, nil
	}

	choice := resp.Choices[0]
	result := domain.GenerationResult{
		Text:             choice.Content,
		PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		TotalTokens:      intInfo(choice.GenerationInfo, "TotalTokens"),
	}
	if result.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(result.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").Add(float64(result.CompletionTokens))
	}
	return result, nil
}

// HealthCheck sends a one-token completion. Local servers expose no cheaper
// probe, so the result (or the last successful Generate) is reused for healthTTL.
func (g *Generator) HealthCheck(ctx context.Context) error {
	g.healthMu.Lock()
	if !g.checkedAt.IsZero() && g.now().Sub(g.checkedAt) < g.healthTTL {
		err := g.healthErr
		g.healthMu.Unlock()
		return err
	}
	g.healthMu.Unlock()

	var err error
	if _, callErr := llms.GenerateFromSinglePrompt(ctx, g.llm, "ping", llms.WithMaxTokens(1)); callErr != nil {
		err = fmt.Errorf("local model ping: %w", callErr)
	}
	g.storeHealth(err)
	return err
}

func (g *Generator) storeHealth(err error) {
	g.healthMu.Lock()
	g.checkedAt = g.now()
	g.healthErr = err
	g.healthMu.Unlock()
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
