package modcurator

// QueryType selects how a query is executed.
type QueryType string

// Query type constants.
const (
	QuerySemantic QueryType = "semantic"
	QueryKeyword  QueryType = "keyword"
)

// Dependency type constants.
const (
	DependencyRequired = "required"
	DependencyOptional = "optional"
)

// Platform is the Minecraft target of a run.
type Platform struct {
	MCVersion string
	Loader    string // fabric, forge, neoforge
	// FabricCompat admits fabric mods on forge/neoforge through a bridge loader.
	FabricCompat bool
}

// Query is one weighted retrieval query. Zero Weight means 1.0 and zero
// Limit means 100.
type Query struct {
	Type   QueryType
	Text   string
	Weight float64
	Limit  int
}

// Filters selects and boosts candidates after fusion.
type Filters struct {
	ExcludeIDs            []string // ids or slugs
	MinDownloads          int64
	CategoriesInclude     []string
	CategoriesPrefer      []string
	RequiredCapabilities  []string
	PreferredCapabilities []string
}

// Diversity caps candidates sharing a primary tag.
type Diversity struct {
	Enabled bool
	// MaxPerCategory defaults to 50.
	MaxPerCategory int
}

// RetrieveRequest is one retrieval run.
type RetrieveRequest struct {
	Queries   []Query
	Filters   Filters
	Platform  Platform
	Diversity Diversity
	// TargetCount truncates the result; zero uses the default of 100.
	TargetCount int
}

// Dependency is a declared dependency edge.
type Dependency struct {
	Type     string
	Versions []string // mc versions the edge applies to; empty means all
}

// Incompatibility is a declared incompatibility edge.
type Incompatibility struct {
	Reason  string
	Loaders []string // loaders it applies to; empty means all
}

// Mod is a catalog mod.
type Mod struct {
	ID                string
	Slug              string
	Name              string
	Summary           string
	Description       string
	Capabilities      []string
	Tags              []string
	Categories        []string
	MCVersions        []string
	Loaders           []string
	Downloads         int64
	Dependencies      map[string]Dependency
	Incompatibilities map[string]Incompatibility
	OutdatedReports   int
	// Embedding is only read by Import.
	Embedding []float32
}

// Candidate is one ranked retrieval result.
type Candidate struct {
	Mod           Mod
	SearchScore   float64
	CombinedScore float64
	SearchTypes   []QueryType
	ExactMatch    bool
	BridgedLoader bool
}

// QueryReport records how a single query contributed.
type QueryReport struct {
	Type QueryType
	Text string
	Hits int
	Err  error // set when the query failed or was skipped
}

// RetrieveResult is the ranked candidate list plus per-query reports.
type RetrieveResult struct {
	Candidates []Candidate
	Queries    []QueryReport
}

// Entry is a mod of the resolved set.
type Entry struct {
	Mod               Mod
	AddedAsDependency bool
	DependencyOf      string
	Depth             int
}

// Removal is a dropped mod with the reason.
type Removal struct {
	Mod    Mod
	Reason string
}

// ResolveResult is the consistent mod set of one resolution.
type ResolveResult struct {
	FinalMods          []Entry
	AddedDependencies  []Entry
	RemovedForConflict []Removal
	Filtered           []Removal
	Warnings           []string
}

// ImportResult reports a bulk import. Rejected is keyed by mod id, or by
// "#<index>" for documents without one.
type ImportResult struct {
	Imported int
	Rejected map[string]error
}
