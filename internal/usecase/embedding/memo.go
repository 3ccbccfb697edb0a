package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/TheVirusNVGM/modcurator/internal/domain"
)

// DefaultMemoSize is the number of query embeddings kept in process.
const DefaultMemoSize = 1000

const memoLayer = "memo"

// MemoEmbedder keeps recent query embeddings in an in-process LRU.
// Concurrent requests for the same text share a single inner call.
type MemoEmbedder struct {
	inner      domain.Embedder
	cache      *lru.Cache[string, []float32]
	group      singleflight.Group
	cacheTotal *prometheus.CounterVec
}

// NewMemoEmbedder wraps inner with an LRU of the given size (DefaultMemoSize when size <= 0).
func NewMemoEmbedder(inner domain.Embedder, size int, cacheTotal *prometheus.CounterVec) (*MemoEmbedder, error) {
	if size <= 0 {
		size = DefaultMemoSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding memo: %w", err)
	}
	return &MemoEmbedder{inner: inner, cache: cache, cacheTotal: cacheTotal}, nil
}

// Embed returns a memoized vector or delegates to the inner embedder.
// Memo hits report zero tokens.
func (m *MemoEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := memoKey(text)

	if vec, ok := m.cache.Get(key); ok {
		m.inc("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	m.inc("miss")

	v, err, _ := m.group.Do(key, func() (any, error) {
		res, err := m.inner.Embed(ctx, text)
		if err != nil {
			return domain.EmbeddingResult{}, err
		}
		if len(res.Embedding) > 0 {
			m.cache.Add(key, res.Embedding)
		}
		return res, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("memo embed: %w", err)
	}
	return v.(domain.EmbeddingResult), nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (m *MemoEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := m.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// Len returns the number of memoized vectors.
func (m *MemoEmbedder) Len() int {
	return m.cache.Len()
}

func (m *MemoEmbedder) inc(result string) {
	if m.cacheTotal != nil {
		m.cacheTotal.WithLabelValues(memoLayer, result).Inc()
	}
}

func memoKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
