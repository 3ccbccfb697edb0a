package domain

import (
	"context"
	"fmt"
	"strings"
)

// Embedder turns query text into a vector of the catalog's dimensionality.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker is implemented by embedders that can probe their provider.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult is one vector plus the tokens the provider billed for it.
// Cache layers report zero tokens.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// CheckDimensions returns ErrVectorDimMismatch when want > 0 and got differs.
func CheckDimensions(got, want int) error {
	if want > 0 && got != want {
		return fmt.Errorf("%w: got %d, want %d", ErrVectorDimMismatch, got, want)
	}
	return nil
}

// InstructionEmbedder prefixes query text with a model-specific instruction
// such as "query: ". Text that already carries the prefix is sent as is.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	if !strings.HasPrefix(text, e.instruction) {
		text = e.instruction + text
	}
	result, err := e.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}

func (e *InstructionEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
