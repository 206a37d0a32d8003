package scout

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	generator Generator

	openAIKey   string
	openAIModel string
	baseURL     string
	temperature float64

	catalogPath string
	experiences []Experience

	redisAddr     string
	redisPassword string

	maxRequests int
	window      time.Duration
	timeout     time.Duration

	dailyTokens   int64
	monthlyTokens int64

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithOpenAI uses the OpenAI chat completion API.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIModel = model
	})
}

// WithBaseURL points WithOpenAI at an OpenAI-compatible server.
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithTemperature sets the sampling temperature. Default: 0.3.
func WithTemperature(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.temperature = t
	})
}

// WithGenerator sets a custom generation provider. It takes precedence over WithOpenAI.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithCatalogFile loads experiences from a YAML file instead of the built-in catalog.
func WithCatalogFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogPath = path
	})
}

// WithExperiences uses the given experiences as the catalog.
func WithExperiences(items []Experience) Option {
	return optionFunc(func(c *clientConfig) {
		c.experiences = items
	})
}

// WithRedis keeps rate limit windows in Redis so several processes share one quota.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddr = addr
		c.redisPassword = password
	})
}

// WithRateLimit admits at most maxRequests searches per client key per window.
// Pass 0 to disable (default).
func WithRateLimit(maxRequests int, window time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRequests = maxRequests
		c.window = window
	})
}

// WithTimeout bounds each model call. Default: 20s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// WithTokenBudget rejects generation once daily or monthly tokens are spent.
// Rejected generations answer with no matches. Zero means unlimited.
func WithTokenBudget(daily, monthly int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.dailyTokens = daily
		c.monthlyTokens = monthly
	})
}
