package resolver

import (
	"context"
	"slices"

	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/platform"
)

type mockCatalog struct {
	mods  map[mod.ID]mod.Mod
	err   error
	calls [][]mod.ID
}

func newCatalog(mods ...mod.Mod) *mockCatalog {
	c := &mockCatalog{mods: make(map[mod.ID]mod.Mod, len(mods))}
	for _, m := range mods {
		c.mods[m.ID] = m
	}
	return c
}

func (m *mockCatalog) GetByIDs(_ context.Context, ids []mod.ID) (map[mod.ID]mod.Mod, error) {
	m.calls = append(m.calls, slices.Clone(ids))
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[mod.ID]mod.Mod, len(ids))
	for _, id := range ids {
		if md, ok := m.mods[id]; ok {
			out[id] = md
		}
	}
	return out, nil
}

// --- Builders ---

func newMod(id string, downloads int64) mod.Mod {
	return mod.Mod{
		ID:        mod.ID(id),
		Slug:      id,
		Name:      id,
		Downloads: downloads,
		Loaders:   []mod.Loader{mod.Fabric, mod.Forge, mod.NeoForge},
	}
}

func requires(m mod.Mod, ids ...string) mod.Mod {
	if m.Dependencies == nil {
		m.Dependencies = map[mod.ID]mod.DependencyEdge{}
	}
	for _, id := range ids {
		m.Dependencies[mod.ID(id)] = mod.DependencyEdge{Type: mod.Required}
	}
	return m
}

func incompatible(m mod.Mod, id, reason string, loaders ...mod.Loader) mod.Mod {
	if m.Incompatibilities == nil {
		m.Incompatibilities = map[mod.ID]mod.IncompatibilityEdge{}
	}
	m.Incompatibilities[mod.ID(id)] = mod.IncompatibilityEdge{Reason: reason, Loaders: loaders}
	return m
}

func fabric121() platform.Platform {
	return platform.Platform{MCVersion: "1.21.1", Loader: mod.Fabric}
}

func forge121() platform.Platform {
	return platform.Platform{MCVersion: "1.21.1", Loader: mod.Forge}
}

func newTestService(c Catalog) *Service {
	return New(c, DefaultOptions(), nil)
}
