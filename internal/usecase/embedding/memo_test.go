package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/TheVirusNVGM/modcurator/internal/domain"
)

func TestMemoEmbedder_HitAfterMiss(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "memo_test_total"}, []string{"layer", "result"})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5, 0.5}, TotalTokens: 3}}
	m, err := NewMemoEmbedder(inner, 10, counter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := m.Embed(context.Background(), "fps boost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TotalTokens != 3 {
		t.Fatalf("expected tokens from inner, got %d", first.TotalTokens)
	}

	second, err := m.Embed(context.Background(), "fps boost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.TotalTokens != 0 || len(second.Embedding) != 2 {
		t.Fatalf("expected memo hit, got %+v", second)
	}
	if got := inner.calls.Load(); got != 1 {
		t.Fatalf("expected 1 inner call, got %d", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("memo", "hit")); got != 1 {
		t.Fatalf("expected 1 memo hit, got %v", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("memo", "miss")); got != 1 {
		t.Fatalf("expected 1 memo miss, got %v", got)
	}
}

func TestMemoEmbedder_Eviction(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	m, err := NewMemoEmbedder(inner, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c"} {
		if _, err := m.Embed(ctx, text); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}
	// "a" was evicted and must be recomputed.
	if _, err := m.Embed(ctx, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := inner.calls.Load(); got != 4 {
		t.Fatalf("expected 4 inner calls, got %d", got)
	}
}

func TestMemoEmbedder_ErrorNotMemoized(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	m, err := NewMemoEmbedder(inner, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for range 2 {
		if _, err := m.Embed(context.Background(), "x"); err == nil {
			t.Fatal("expected error")
		}
	}
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("expected 2 inner calls, got %d", got)
	}
	if m.Len() != 0 {
		t.Fatalf("errors must not be memoized, got %d entries", m.Len())
	}
}

func TestMemoEmbedder_ConcurrentCallsShareInner(t *testing.T) {
	gate := make(chan struct{})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}, gate: gate}
	m, err := NewMemoEmbedder(inner, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Embed(context.Background(), "same"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	// Let the goroutines reach the in-flight call before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := inner.calls.Load(); got < 1 || got > 5 {
		t.Fatalf("unexpected inner call count %d", got)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 memo entry, got %d", m.Len())
	}
}
