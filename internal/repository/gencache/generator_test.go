package gencache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/scout/internal/domain"
)

func TestGenerate_CacheMiss(t *testing.T) {
	inner := &mockGenerator{result: domain.GenerationResult{Text: `[{"id":1}]`, TotalTokens: 120}}
	cg, ms := newTestCachedGenerator(t, inner)

	var setKey string
	var setValue []byte
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, key string, value []byte, ttl time.Duration) error {
		setKey, setValue, setTTL = key, value, ttl
		return nil
	}

	result, err := cg.Generate(context.Background(), domain.Prompt{System: "s", User: "beach"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalTokens != 120 || result.Cached {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.HasPrefix(setKey, "scout:gen_cache:") {
		t.Errorf("unexpected cache key %q", setKey)
	}
	if string(setValue) != `[{"id":1}]` {
		t.Errorf("unexpected cached value %q", setValue)
	}
	if setTTL != 10*time.Minute {
		t.Errorf("unexpected ttl %v", setTTL)
	}
}

func TestGenerate_CacheHit(t *testing.T) {
	inner := &mockGenerator{}
	cg, ms := newTestCachedGenerator(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte(`[]`), nil
	}

	result, err := cg.Generate(context.Background(), domain.Prompt{User: "beach"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Cached || result.Text != "[]" || result.TotalTokens != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if inner.calls != 0 {
		t.Errorf("inner must not be called on hit, got %d", inner.calls)
	}
}

func TestGenerate_StoreErrorFallsThrough(t *testing.T) {
	inner := &mockGenerator{result: domain.GenerationResult{Text: "[]"}}
	cg, ms := newTestCachedGenerator(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("conn reset")
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return errors.New("conn reset")
	}

	result, err := cg.Generate(context.Background(), domain.Prompt{User: "beach"})
	if err != nil {
		t.Fatalf("store errors must not fail generation: %v", err)
	}
	if result.Text != "[]" || inner.calls != 1 {
		t.Fatalf("unexpected result %+v calls=%d", result, inner.calls)
	}
}

func TestGenerate_InnerError(t *testing.T) {
	inner := &mockGenerator{err: domain.ErrGenerationProviderError}
	cg, _ := newTestCachedGenerator(t, inner)

	_, err := cg.Generate(context.Background(), domain.Prompt{User: "beach"})
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestGenerate_EmptyTextNotCached(t *testing.T) {
	inner := &mockGenerator{result: domain.GenerationResult{}}
	cg, ms := newTestCachedGenerator(t, inner)

	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		t.Fatal("empty text must not be cached")
		return nil
	}

	if _, err := cg.Generate(context.Background(), domain.Prompt{User: "beach"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerate_RejectedTextNotCached(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		stored bool
	}{
		{"accepted", `[{"id":4}]`, true},
		{"rejected", "I can't help with that.", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inner := &mockGenerator{result: domain.GenerationResult{Text: tc.text, TotalTokens: 10}}
			cg, ms := newTestCachedGenerator(t, inner)
			cg.WithAccept(func(text string) bool { return strings.HasPrefix(text, "[") })

			stored := false
			ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
				stored = true
				return nil
			}

			res, err := cg.Generate(context.Background(), domain.Prompt{User: "beach"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Text != tc.text {
				t.Errorf("text = %q, want %q", res.Text, tc.text)
			}
			if stored != tc.stored {
				t.Errorf("stored = %v, want %v", stored, tc.stored)
			}
		})
	}
}

func TestCacheKey_DependsOnAllParts(t *testing.T) {
	cg, _ := newTestCachedGenerator(t, &mockGenerator{})
	base := cg.cacheKey(domain.Prompt{System: "s", User: "u"})

	if base != cg.cacheKey(domain.Prompt{System: "s", User: "u"}) {
		t.Error("cache key must be deterministic")
	}
	if base == cg.cacheKey(domain.Prompt{System: "s2", User: "u"}) {
		t.Error("system prompt must change the key")
	}
	if base == cg.cacheKey(domain.Prompt{System: "s", User: "u2"}) {
		t.Error("user prompt must change the key")
	}
	if base == cg.cacheKey(domain.Prompt{System: "su", User: ""}) {
		t.Error("prompt boundary must change the key")
	}

	cg.model = "other-model"
	if base == cg.cacheKey(domain.Prompt{System: "s", User: "u"}) {
		t.Error("model must change the key")
	}
}
