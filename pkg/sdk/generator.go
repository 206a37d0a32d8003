package scout

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/scout/internal/domain"
)

// Generator produces model text for a system instruction and a user query.
// Use it to plug in a provider the client does not ship with.
type Generator interface {
	Generate(ctx context.Context, system, user string) (GenerationResult, error)
}

// GenerationResult carries generated text and token counts.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// generatorAdapter wraps public Generator to satisfy internal domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, p domain.Prompt) (domain.GenerationResult, error) {
	r, err := a.inner.Generate(ctx, p.System, p.User)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}
	return domain.GenerationResult{
		Text:             r.Text,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		TotalTokens:      r.TotalTokens,
	}, nil
}
