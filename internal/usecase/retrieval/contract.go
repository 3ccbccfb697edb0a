package retrieval

import (
	"context"

	"github.com/TheVirusNVGM/modcurator/internal/domain"
	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
)

// Catalog defines the read contract retrieval needs from the mod catalog.
type Catalog interface {
	SearchByVector(ctx context.Context, vector []float32, k int) ([]mod.Hit, error)
	SearchByText(ctx context.Context, terms []string, limit int) ([]mod.Mod, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
