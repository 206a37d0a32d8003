package scout

import (
	"context"
	"sync"
)

// --- Generator mock ---

type mockGenerator struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, system, user string) (GenerationResult, error)
	calls int
}

func (m *mockGenerator) Generate(ctx context.Context, system, user string) (GenerationResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.fn(ctx, system, user)
}

func replying(text string, tokens int) *mockGenerator {
	return &mockGenerator{
		fn: func(context.Context, string, string) (GenerationResult, error) {
			return GenerationResult{Text: text, TotalTokens: tokens}, nil
		},
	}
}
