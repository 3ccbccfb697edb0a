package retrieval

import (
	"context"
	"strings"
	"sync"

	"github.com/TheVirusNVGM/modcurator/internal/domain"
	"github.com/TheVirusNVGM/modcurator/internal/domain/category"
	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/platform"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/query"
)

// --- Mocks ---

type mockCatalog struct {
	mu sync.Mutex

	mods    []mod.Mod // rows served by text search
	hits    []mod.Hit
	vecErr  error
	textErr error

	lastTerms []string
	lastLimit int
	lastK     int
}

func (m *mockCatalog) SearchByVector(_ context.Context, _ []float32, k int) ([]mod.Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastK = k
	if m.vecErr != nil {
		return nil, m.vecErr
	}
	if len(m.hits) > k {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

// SearchByText mimics the catalog's OR-of-substrings predicate over name,
// summary and description.
func (m *mockCatalog) SearchByText(_ context.Context, terms []string, limit int) ([]mod.Mod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTerms = terms
	m.lastLimit = limit
	if m.textErr != nil {
		return nil, m.textErr
	}
	var out []mod.Mod
	for _, md := range m.mods {
		text := strings.ToLower(md.Name + " " + md.Summary + " " + md.Description)
		for _, t := range terms {
			if strings.Contains(text, t) {
				out = append(out, md)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

// --- Helpers ---

func testSynonyms() category.Synonyms {
	return category.NewSynonyms(map[string][]string{
		"optimization": {"performance", "fps", "lag"},
		"graphics":     {"shaders", "visual", "rendering"},
	})
}

func fabric121() platform.Platform {
	return platform.Platform{MCVersion: "1.21.1", Loader: mod.Fabric}
}

func mustQuery(t query.Type, text string, weight float64, limit int) query.Query {
	q, err := query.New(t, text, weight, limit)
	if err != nil {
		panic(err)
	}
	return q
}

func newMod(id string, downloads int64) mod.Mod {
	return mod.Mod{
		ID:         mod.ID(id),
		Slug:       id,
		Name:       id,
		Downloads:  downloads,
		MCVersions: []string{"1.21.1"},
		Loaders:    []mod.Loader{mod.Fabric},
	}
}

func newTestService(cat *mockCatalog, emb *mockEmbedder) *Service {
	return New(cat, emb, testSynonyms(), DefaultOptions(), nil)
}
