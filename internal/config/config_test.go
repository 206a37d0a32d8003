package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.Budget = BudgetConfig{DailyTokenLimit: 1000000, Action: "invalid_action"}
	cfg.Database.Addrs = []string{"localhost:6379"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `generation.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Generation.Budget.Action = action
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_UnknownDrivers(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.Driver = "gemini"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown generation driver")
	}

	cfg = validConfig()
	cfg.RateLimit.Driver = "memcached"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown ratelimit driver")
	}
}

func TestValidate_LocalDriverNeedsBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.Driver = DriverLocal
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for local driver without base_url")
	}

	cfg.Generation.BaseURL = "http://localhost:11434/v1"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DatabaseRequiredOnlyWhenUsed(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("memory-only config must not require database: %v", err)
	}

	for name, mutate := range map[string]func(*Config){
		"redis limiter": func(c *Config) { c.RateLimit.Driver = DriverRedis },
		"cache":         func(c *Config) { c.Cache.Enabled = true },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error for missing database.addrs")
			}
			cfg.Database.Addrs = []string{"localhost:6379"}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_BudgetWithoutDatabase(t *testing.T) {
	cfg, err := Parse([]byte(`
http:
  port: 8080
generation:
  budget:
    daily_token_limit: 1000
    action: reject
`))
	if err != nil {
		t.Fatalf("budget without database.addrs must be valid: %v", err)
	}
	if cfg.NeedsDatabase() || cfg.UsesDatabase() {
		t.Error("in-memory budget must not open a database connection")
	}
	if !cfg.Generation.Budget.Enabled() {
		t.Error("expected budget to be enabled")
	}

	cfg.Database.Addrs = []string{"localhost:6379"}
	if !cfg.UsesDatabase() {
		t.Error("expected database to be used for budget persistence when addrs are set")
	}
}

func TestParse_Temperature(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    float64
		wantErr bool
	}{
		{"unset", "http:\n  port: 8080\n", DefaultTemperature, false},
		{"zero", "http:\n  port: 8080\ngeneration:\n  temperature: 0\n", 0, false},
		{"explicit", "http:\n  port: 8080\ngeneration:\n  temperature: 1.2\n", 1.2, false},
		{"negative", "http:\n  port: 8080\ngeneration:\n  temperature: -0.5\n", 0, true},
		{"too high", "http:\n  port: 8080\ngeneration:\n  temperature: 2.5\n", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tc.yaml))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := cfg.Generation.TemperatureValue(); got != tc.want {
				t.Errorf("temperature = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Generation.Driver != DriverOpenAI {
		t.Errorf("expected Driver=openai, got %q", cfg.Generation.Driver)
	}
	if cfg.Generation.TemperatureValue() != DefaultTemperature {
		t.Errorf("expected Temperature=%v, got %v", DefaultTemperature, cfg.Generation.TemperatureValue())
	}
	if cfg.Generation.TimeoutSec != 20 {
		t.Errorf("expected TimeoutSec=20, got %d", cfg.Generation.TimeoutSec)
	}
	if cfg.RateLimit.MaxRequests != 10 {
		t.Errorf("expected MaxRequests=10, got %d", cfg.RateLimit.MaxRequests)
	}
	if cfg.RateLimit.WindowSec != 60 {
		t.Errorf("expected WindowSec=60, got %d", cfg.RateLimit.WindowSec)
	}
	if cfg.RateLimit.SweepIntervalSec != 60 {
		t.Errorf("expected SweepIntervalSec=60, got %d", cfg.RateLimit.SweepIntervalSec)
	}
	if cfg.RateLimit.ClientHeader != "X-Forwarded-For" {
		t.Errorf("expected ClientHeader=X-Forwarded-For, got %q", cfg.RateLimit.ClientHeader)
	}
	if cfg.RateLimit.FallbackKey != "unknown" {
		t.Errorf("expected FallbackKey=unknown, got %q", cfg.RateLimit.FallbackKey)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	temp := 0.7
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Generation: GenerationConfig{Driver: DriverLocal, Model: "llama3", Temperature: &temp, TimeoutSec: 5},
		RateLimit:  RateLimitConfig{MaxRequests: 3, WindowSec: 10, FallbackKey: "anon"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Generation.Model != "llama3" || cfg.Generation.TemperatureValue() != 0.7 {
		t.Errorf("generation overridden: %+v", cfg.Generation)
	}
	if cfg.RateLimit.MaxRequests != 3 || cfg.RateLimit.WindowSec != 10 {
		t.Errorf("ratelimit overridden: %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.SweepIntervalSec != 10 {
		t.Errorf("expected SweepIntervalSec to follow WindowSec, got %d", cfg.RateLimit.SweepIntervalSec)
	}
	if cfg.RateLimit.FallbackKey != "anon" {
		t.Errorf("expected FallbackKey=anon, got %q", cfg.RateLimit.FallbackKey)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("SCOUT_TEST_KEY", "sk-test")

	cfg, err := Parse([]byte(`
http:
  port: ${SCOUT_TEST_PORT:-9090}
generation:
  api_key: ${SCOUT_TEST_KEY}
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected default port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Generation.APIKey != "sk-test" {
		t.Errorf("expected api key from env, got %q", cfg.Generation.APIKey)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 8081\nratelimit:\n  max_requests: 5\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8081 || cfg.RateLimit.MaxRequests != 5 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
