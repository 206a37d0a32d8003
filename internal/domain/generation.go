package domain

import "context"

// Prompt is a single instruction/query pair sent to a language model.
type Prompt struct {
	System string
	User   string
}

// GenerationResult carries generated text and token usage through the decorator chain.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cached           bool
}

// Generator is the shared text generation contract between layers.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (GenerationResult, error)
}

// HealthChecker verifies generation provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
