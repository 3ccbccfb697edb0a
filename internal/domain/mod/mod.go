// Package mod holds the catalog entry model shared by retrieval and resolution.
package mod

// ID is an opaque, stable catalog identifier (Modrinth project id).
type ID string

// DependencyType distinguishes hard from soft dependencies.
type DependencyType string

// Dependency types.
const (
	Required DependencyType = "required"
	Optional DependencyType = "optional"
)

// ParseDependencyType maps a raw catalog value to a DependencyType.
// Anything other than "required" is treated as optional.
func ParseDependencyType(s string) DependencyType {
	if s == string(Required) {
		return Required
	}
	return Optional
}

// DependencyEdge is one declared dependency of a mod.
type DependencyEdge struct {
	Type     DependencyType
	Versions []string
}

// IsRequired reports whether the edge is a hard dependency.
func (e DependencyEdge) IsRequired() bool { return e.Type == Required }

// AdmitsVersion reports whether the edge applies to the target Minecraft version.
func (e DependencyEdge) AdmitsVersion(mcVersion string) bool {
	return VersionMatches(mcVersion, e.Versions)
}

// IncompatibilityEdge is one declared incompatibility of a mod.
// An empty Loaders list makes the incompatibility global.
type IncompatibilityEdge struct {
	Reason  string
	Loaders []Loader
}

// ActiveOn reports whether the incompatibility applies under loader.
func (e IncompatibilityEdge) ActiveOn(loader Loader) bool {
	return len(e.Loaders) == 0 || ContainsLoader(e.Loaders, loader)
}

// Mod is an immutable catalog snapshot. The engine never writes it back.
type Mod struct {
	ID                ID
	Slug              string
	Name              string
	Summary           string
	Description       string
	Capabilities      []string
	Tags              []string // curated tags, first one is the primary tag
	Categories        []string // catalog (Modrinth) categories
	MCVersions        []string
	Loaders           []Loader
	Downloads         int64
	Dependencies      map[ID]DependencyEdge
	Incompatibilities map[ID]IncompatibilityEdge
	OutdatedReports   int
}

// DisplayName returns the name, falling back to slug and id.
func (m *Mod) DisplayName() string {
	switch {
	case m.Name != "":
		return m.Name
	case m.Slug != "":
		return m.Slug
	default:
		return string(m.ID)
	}
}

// IncompatibleWith returns the incompatibility m declares against other, if
// it is active under loader. Only m's own declarations are consulted.
func (m *Mod) IncompatibleWith(other ID, loader Loader) (IncompatibilityEdge, bool) {
	e, ok := m.Incompatibilities[other]
	if !ok || !e.ActiveOn(loader) {
		return IncompatibilityEdge{}, false
	}
	return e, true
}

// RequiredDependencies returns the required edges in a deterministic id order.
func (m *Mod) RequiredDependencies() []ID {
	ids := make([]ID, 0, len(m.Dependencies))
	for id, e := range m.Dependencies {
		if e.IsRequired() {
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	return ids
}

// DependencyIDs returns every declared dependency id in a deterministic order.
func (m *Mod) DependencyIDs() []ID {
	ids := make([]ID, 0, len(m.Dependencies))
	for id := range m.Dependencies {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// AllCategories returns catalog categories followed by curated tags.
func (m *Mod) AllCategories() []string {
	out := make([]string, 0, len(m.Categories)+len(m.Tags))
	out = append(out, m.Categories...)
	return append(out, m.Tags...)
}

// PrimaryTag is the grouping key for diversity: first curated tag, then the
// first catalog category, then "other".
func (m *Mod) PrimaryTag() string {
	if len(m.Tags) > 0 && m.Tags[0] != "" {
		return m.Tags[0]
	}
	if len(m.Categories) > 0 && m.Categories[0] != "" {
		return m.Categories[0]
	}
	return "other"
}

// Hit is a nearest-neighbour match with its raw distance (lower is closer).
type Hit struct {
	Mod      Mod
	Distance float64
}
