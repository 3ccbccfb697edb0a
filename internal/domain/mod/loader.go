package mod

import "strings"

// Loader is the mod-loading runtime a mod targets.
type Loader string

// Supported loaders.
const (
	Fabric   Loader = "fabric"
	Forge    Loader = "forge"
	NeoForge Loader = "neoforge"
)

// bridgeLoaders are accepted in fabric compatibility mode regardless of the target.
var bridgeLoaders = []Loader{Fabric, NeoForge, Forge}

// ParseLoader normalizes s into a Loader. The boolean reports whether s names a
// supported loader; unsupported values are still returned lower-cased so that
// they survive a round-trip but never match a target.
func ParseLoader(s string) (Loader, bool) {
	l := Loader(strings.ToLower(strings.TrimSpace(s)))
	return l, l.IsValid()
}

// IsValid checks if the loader is one of the supported values.
func (l Loader) IsValid() bool {
	return l == Fabric || l == Forge || l == NeoForge
}

// BridgeLoaders returns the loaders reachable through cross-loader bridging.
func BridgeLoaders() []Loader {
	out := make([]Loader, len(bridgeLoaders))
	copy(out, bridgeLoaders)
	return out
}

// ContainsLoader reports whether loaders includes l.
func ContainsLoader(loaders []Loader, l Loader) bool {
	for _, x := range loaders {
		if x == l {
			return true
		}
	}
	return false
}
