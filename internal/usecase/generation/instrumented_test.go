package generation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

type mockGenerator struct {
	result domain.GenerationResult
	err    error
	calls  int
	last   domain.Prompt
}

func (m *mockGenerator) Generate(_ context.Context, p domain.Prompt) (domain.GenerationResult, error) {
	m.calls++
	m.last = p
	return m.result, m.err
}

func TestInstrumentedGenerator_Success(t *testing.T) {
	inner := &mockGenerator{result: domain.GenerationResult{Text: "[]"}}
	g := NewInstrumentedGenerator(inner, "test", "test-model", nil, zap.NewNop())

	prompt := domain.Prompt{System: "sys", User: "beach"}
	result, err := g.Generate(context.Background(), prompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "[]" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if inner.last != prompt {
		t.Errorf("prompt not forwarded: %+v", inner.last)
	}
}

func TestInstrumentedGenerator_Error(t *testing.T) {
	inner := &mockGenerator{err: fmt.Errorf("api error: %w", domain.ErrGenerationProviderError)}
	g := NewInstrumentedGenerator(inner, "test-err", "test-model-e", nil, zap.NewNop())

	_, err := g.Generate(context.Background(), domain.Prompt{User: "hello"})
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestInstrumentedGenerator_BudgetRejection(t *testing.T) {
	budget := NewBudgetTracker("test-budget", "test-model", 100, 0, BudgetActionReject, zap.NewNop())
	budget.Record(100)

	inner := &mockGenerator{result: domain.GenerationResult{Text: "[]"}}
	g := NewInstrumentedGenerator(inner, "test-budget", "test-model-b", budget, zap.NewNop())

	_, err := g.Generate(context.Background(), domain.Prompt{User: "hello"})
	if !errors.Is(err, domain.ErrGenerationQuotaExceeded) {
		t.Fatalf("expected domain.ErrGenerationQuotaExceeded, got %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("provider must not be called after rejection, got %d calls", inner.calls)
	}
}

func TestInstrumentedGenerator_RecordsBudget(t *testing.T) {
	budget := NewBudgetTracker("test-record", "test-model", 1000000, 10000000, BudgetActionReject, zap.NewNop())

	inner := &mockGenerator{result: domain.GenerationResult{
		Text:             "[]",
		PromptTokens:     400,
		CompletionTokens: 100,
		TotalTokens:      500,
	}}
	g := NewInstrumentedGenerator(inner, "test-record", "test-model-r", budget, zap.NewNop())

	initialDaily := budget.RemainingDaily()
	initialMonthly := budget.RemainingMonthly()

	if _, err := g.Generate(context.Background(), domain.Prompt{User: "hello"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := budget.RemainingDaily(); got != initialDaily-500 {
		t.Errorf("expected daily remaining to decrease by 500, got %d -> %d", initialDaily, got)
	}
	if got := budget.RemainingMonthly(); got != initialMonthly-500 {
		t.Errorf("expected monthly remaining to decrease by 500, got %d -> %d", initialMonthly, got)
	}
}
