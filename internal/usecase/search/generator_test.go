package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/search/request"
)

func mustRequest(t *testing.T, query string) request.Request {
	t.Helper()
	req, err := request.New(query, nil, nil)
	require.NoError(t, err)
	return req
}

func TestMatchGenerator_ReturnsArray(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n[{\"id\":4,\"reason\":\"Surf\",\"score\":8}]\n```", tokens: 321}
	mg := NewMatchGenerator(gen, testCatalog(t), time.Second)
	req := mustRequest(t, "surf")

	ctx, usage := domain.NewContextWithUsage(context.Background())
	raw := mg.Generate(ctx, &req)

	assert.JSONEq(t, `[{"id":4,"reason":"Surf","score":8}]`, string(raw))
	assert.Equal(t, 1, gen.Calls())
	assert.Equal(t, "surf", gen.prompt.User)
	assert.Equal(t, 321, usage.TotalTokens())
	assert.True(t, usage.Used())
}

func TestMatchGenerator_DegradesToNil(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"empty text", &fakeGenerator{text: ""}},
		{"not json", &fakeGenerator{text: "Sorry, I can't do that"}},
		{"not an array", &fakeGenerator{text: `{"id":4}`}},
		{"provider error", &fakeGenerator{err: fmt.Errorf("boom: %w", domain.ErrGenerationProviderError)}},
		{"budget rejected", &fakeGenerator{err: fmt.Errorf("budget check: %w", domain.ErrGenerationQuotaExceeded)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mg := NewMatchGenerator(tc.gen, testCatalog(t), time.Second)
			req := mustRequest(t, "anything")
			assert.Nil(t, mg.Generate(context.Background(), &req))
		})
	}
}

func TestMatchGenerator_Timeout(t *testing.T) {
	gen := &fakeGenerator{block: true}
	mg := NewMatchGenerator(gen, testCatalog(t), 20*time.Millisecond)
	req := mustRequest(t, "slow")

	start := time.Now()
	raw := mg.Generate(context.Background(), &req)

	assert.Nil(t, raw)
	assert.Less(t, time.Since(start), time.Second)
}

func TestMatchGenerator_CallerCancel(t *testing.T) {
	gen := &fakeGenerator{block: true}
	mg := NewMatchGenerator(gen, testCatalog(t), 0)
	req := mustRequest(t, "gone")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Nil(t, mg.Generate(ctx, &req))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, fallbackTimeout, classify(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	assert.Equal(t, fallbackCanceled, classify(context.Canceled))
	assert.Equal(t, fallbackBudget, classify(domain.ErrGenerationQuotaExceeded))
	assert.Equal(t, fallbackProvider, classify(errors.New("other")))
}
