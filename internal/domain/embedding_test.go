package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result    EmbeddingResult
	err       error
	healthErr error
	got       string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

func (s *stubEmbedder) HealthCheck(context.Context) error {
	return s.healthErr
}

type plainEmbedder struct{}

func (plainEmbedder) Embed(context.Context, string) (EmbeddingResult, error) {
	return EmbeddingResult{}, nil
}

func TestInstructionEmbedder_Prefix(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
		text        string
		want        string
	}{
		{"query prefix", "query: ", "better chunk loading", "query: better chunk loading"},
		{"no instruction", "", "shaders", "shaders"},
		{"already prefixed", "query: ", "query: minimap", "query: minimap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 4}}
			res, err := NewInstructionEmbedder(inner, tt.instruction).Embed(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if inner.got != tt.want {
				t.Errorf("embedded %q, want %q", inner.got, tt.want)
			}
			if len(res.Embedding) != 3 || res.TotalTokens != 4 {
				t.Errorf("result not passed through: %+v", res)
			}
		})
	}
}

func TestInstructionEmbedder_Error(t *testing.T) {
	inner := &stubEmbedder{err: ErrEmbeddingProviderError}
	_, err := NewInstructionEmbedder(inner, "query: ").Embed(context.Background(), "sodium")
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Errorf("expected wrapped ErrEmbeddingProviderError, got %v", err)
	}
}

func TestInstructionEmbedder_HealthCheck(t *testing.T) {
	down := errors.New("connection refused")
	emb := NewInstructionEmbedder(&stubEmbedder{healthErr: down}, "query: ")
	if err := emb.HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Errorf("expected inner health error, got %v", err)
	}

	if err := NewInstructionEmbedder(plainEmbedder{}, "query: ").HealthCheck(context.Background()); err != nil {
		t.Errorf("inner without health check must pass, got %v", err)
	}
}

func TestCheckDimensions(t *testing.T) {
	if err := CheckDimensions(384, 384); err != nil {
		t.Errorf("equal dims: %v", err)
	}
	if err := CheckDimensions(3, 0); err != nil {
		t.Errorf("unset want must accept any length: %v", err)
	}
	if err := CheckDimensions(3, 384); !errors.Is(err, ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}
