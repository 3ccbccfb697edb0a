package embedding

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/TheVirusNVGM/modcurator/internal/domain"
)

type mockEmbedder struct {
	result    domain.EmbeddingResult
	err       error
	healthErr error
	calls     atomic.Int32

	// gate, when set, blocks Embed until closed.
	gate chan struct{}
	mu   sync.Mutex
	seen []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.seen = append(m.seen, text)
	m.mu.Unlock()
	if m.gate != nil {
		<-m.gate
	}
	return m.result, m.err
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error {
	return m.healthErr
}

// plainEmbedder has no HealthCheck method.
type plainEmbedder struct{}

func (plainEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}
