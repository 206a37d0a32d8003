package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Generation drivers.
const (
	DriverOpenAI = "openai"
	DriverLocal  = "local"
)

// Rate limit store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config holds the scout API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Generation GenerationConfig `yaml:"generation"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int `yaml:"max_body_bytes"`
}

// DatabaseConfig holds Redis/Valkey connection settings.
// Only required when a redis-backed component is enabled.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// GenerationConfig holds language model settings.
type GenerationConfig struct {
	Driver      string       `yaml:"driver"` // openai (default), local
	APIKey      string       `yaml:"api_key"`
	BaseURL     string       `yaml:"base_url"`
	Model       string       `yaml:"model"`
	Temperature *float64     `yaml:"temperature"` // nil = DefaultTemperature; 0 is deterministic
	MaxTokens   int          `yaml:"max_tokens"`
	TimeoutSec  int          `yaml:"timeout_sec"`
	Budget      BudgetConfig `yaml:"budget"`
}

// RateLimitConfig holds admission control settings.
type RateLimitConfig struct {
	Driver           string `yaml:"driver"` // memory (default), redis
	MaxRequests      int    `yaml:"max_requests"`
	WindowSec        int    `yaml:"window_sec"`
	MaxKeys          int    `yaml:"max_keys"`
	SweepIntervalSec int    `yaml:"sweep_interval_sec"`
	ClientHeader     string `yaml:"client_header"`
	FallbackKey      string `yaml:"fallback_key"`
}

// CatalogConfig holds catalog source settings.
type CatalogConfig struct {
	Path string `yaml:"path"` // empty = embedded default catalog
}

// CacheConfig holds generation response cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// DefaultTemperature is used when generation.temperature is not set.
const DefaultTemperature = 0.3

// NeedsDatabase reports whether any enabled component requires Redis.
// The token budget does not: it persists to Redis only when database.addrs is set.
func (c *Config) NeedsDatabase() bool {
	return c.RateLimit.Driver == DriverRedis || c.Cache.Enabled
}

// UsesDatabase reports whether a Redis connection should be opened.
func (c *Config) UsesDatabase() bool {
	return c.NeedsDatabase() || len(c.Database.Addrs) > 0
}

// Enabled reports whether any token limit is set.
func (b BudgetConfig) Enabled() bool {
	return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0
}

// TemperatureValue returns the configured temperature or DefaultTemperature.
func (g GenerationConfig) TemperatureValue() float64 {
	if g.Temperature == nil {
		return DefaultTemperature
	}
	return *g.Temperature
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 16 << 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Generation.Driver == "" {
		c.Generation.Driver = DriverOpenAI
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gpt-4o-mini"
	}
	if c.Generation.Temperature == nil {
		t := DefaultTemperature
		c.Generation.Temperature = &t
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 20
	}
	if c.RateLimit.Driver == "" {
		c.RateLimit.Driver = DriverMemory
	}
	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = 10
	}
	if c.RateLimit.WindowSec <= 0 {
		c.RateLimit.WindowSec = 60
	}
	if c.RateLimit.MaxKeys <= 0 {
		c.RateLimit.MaxKeys = 100000
	}
	if c.RateLimit.SweepIntervalSec <= 0 {
		c.RateLimit.SweepIntervalSec = c.RateLimit.WindowSec
	}
	if c.RateLimit.ClientHeader == "" {
		c.RateLimit.ClientHeader = "X-Forwarded-For"
	}
	if c.RateLimit.FallbackKey == "" {
		c.RateLimit.FallbackKey = "unknown"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 600
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Generation.Driver {
	case DriverOpenAI, DriverLocal:
	default:
		return fmt.Errorf("generation.driver must be %q or %q, got %q", DriverOpenAI, DriverLocal, c.Generation.Driver)
	}
	if c.Generation.Driver == DriverLocal && c.Generation.BaseURL == "" {
		return fmt.Errorf("generation.base_url is required for the %q driver", DriverLocal)
	}
	if t := c.Generation.TemperatureValue(); t < 0 || t > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %v", t)
	}
	switch c.Generation.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"generation.budget.action must be \"warn\" or \"reject\", got %q",
			c.Generation.Budget.Action,
		)
	}
	switch c.RateLimit.Driver {
	case DriverMemory, DriverRedis:
	default:
		return fmt.Errorf("ratelimit.driver must be %q or %q, got %q", DriverMemory, DriverRedis, c.RateLimit.Driver)
	}
	if c.NeedsDatabase() && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required when redis rate limiting or caching is enabled")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
