// Package platform describes the Minecraft target a mod set is built for.
package platform

import (
	"fmt"
	"strings"

	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
)

// Platform is the target a retrieval or resolution run is evaluated against.
type Platform struct {
	MCVersion string
	Loader    mod.Loader
	// FabricCompat accepts fabric mods on forge/neoforge through a bridge loader.
	FabricCompat bool
}

// New validates and creates a Platform.
func New(mcVersion, loader string, fabricCompat bool) (Platform, error) {
	mcVersion = strings.TrimSpace(mcVersion)
	if mcVersion == "" {
		return Platform{}, fmt.Errorf("mc version is required")
	}
	l, ok := mod.ParseLoader(loader)
	if !ok {
		return Platform{}, fmt.Errorf("unsupported loader %q", loader)
	}
	return Platform{MCVersion: mcVersion, Loader: l, FabricCompat: fabricCompat}, nil
}

// LoaderMatch is the outcome of a loader gate check.
type LoaderMatch struct {
	OK bool
	// Native is false when the mod was admitted only through bridging.
	Native bool
	Reason string
}

// CheckLoader gates m by loader. Mods without declared loaders pass natively.
// With FabricCompat off the target loader must be declared; with it on any of
// fabric, neoforge or forge is enough and only the target loader is native.
func (p Platform) CheckLoader(m *mod.Mod) LoaderMatch {
	if len(m.Loaders) == 0 {
		return LoaderMatch{OK: true, Native: true}
	}
	if mod.ContainsLoader(m.Loaders, p.Loader) {
		return LoaderMatch{OK: true, Native: true}
	}
	if p.FabricCompat {
		for _, l := range mod.BridgeLoaders() {
			if mod.ContainsLoader(m.Loaders, l) {
				return LoaderMatch{OK: true}
			}
		}
	}
	return LoaderMatch{Reason: fmt.Sprintf("Not available for %s (only for: %s)", p.Loader, joinLoaders(m.Loaders))}
}

// AdmitsVersion reports whether m declares the target version or its family.
func (p Platform) AdmitsVersion(m *mod.Mod) bool {
	return mod.VersionMatches(p.MCVersion, m.MCVersions)
}

func joinLoaders(ls []mod.Loader) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}
