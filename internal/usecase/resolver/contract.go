package resolver

import (
	"context"

	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
)

// Catalog fetches mods by id in one batched call. Missing ids are absent
// from the map; an error means the catalog is unavailable.
type Catalog interface {
	GetByIDs(ctx context.Context, ids []mod.ID) (map[mod.ID]mod.Mod, error)
}
