package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/TheVirusNVGM/modcurator/internal/domain"
	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/platform"
	"github.com/TheVirusNVGM/modcurator/internal/domain/resolution"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/candidate"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/filter"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/query"
	retrievaluc "github.com/TheVirusNVGM/modcurator/internal/usecase/retrieval"
)

// maxRequestBytes bounds a decoded request body.
const maxRequestBytes = 8 << 20

// maxSelectedMods bounds a resolve request.
const maxSelectedMods = 1000

// ErrorResponse is the error body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	CodeBadRequest         = "bad_request"
	CodeUnauthorized       = "unauthorized"
	CodeNotFound           = "not_found"
	CodeCatalogUnavailable = "catalog_unavailable"
	CodeEmbeddingProvider  = "embedding_provider_error"
	CodeVectorDimMismatch  = "vector_dim_mismatch"
	CodeInternalError      = "internal_error"
)

// PlatformDTO is the target platform of a request.
type PlatformDTO struct {
	MCVersion    string `json:"mc_version"`
	Loader       string `json:"loader"`
	FabricCompat bool   `json:"fabric_compat_mode,omitempty"`
}

// QueryDTO is one weighted query. A missing weight means 1.0.
type QueryDTO struct {
	Type   string   `json:"type"`
	Text   string   `json:"text"`
	Weight *float64 `json:"weight,omitempty"`
	Limit  int      `json:"limit,omitempty"`
}

// FiltersDTO carries eligibility and boost criteria.
type FiltersDTO struct {
	ExcludeIDs            []string `json:"exclude_ids,omitempty"`
	MinDownloads          int64    `json:"min_downloads,omitempty"`
	CategoriesInclude     []string `json:"categories_include,omitempty"`
	CategoriesPrefer      []string `json:"categories_prefer,omitempty"`
	RequiredCapabilities  []string `json:"required_capabilities,omitempty"`
	PreferredCapabilities []string `json:"preferred_capabilities,omitempty"`
}

// DiversityDTO caps candidates per primary tag.
type DiversityDTO struct {
	Enabled        bool `json:"enabled"`
	MaxPerCategory int  `json:"max_per_category,omitempty"`
}

// RetrieveRequest is the body of POST /v1/retrieve.
type RetrieveRequest struct {
	Queries     []QueryDTO    `json:"queries"`
	Filters     FiltersDTO    `json:"filters"`
	Platform    PlatformDTO   `json:"platform"`
	Diversity   *DiversityDTO `json:"diversity,omitempty"`
	TargetCount int           `json:"target_count,omitempty"`
}

// DependencyDTO is one declared dependency.
type DependencyDTO struct {
	Type     string   `json:"type"`
	Versions []string `json:"versions,omitempty"`
}

// IncompatibilityDTO is one declared incompatibility.
type IncompatibilityDTO struct {
	Reason  string   `json:"reason,omitempty"`
	Loaders []string `json:"loaders,omitempty"`
}

// ModDTO is the wire shape of a catalog mod.
type ModDTO struct {
	ID                string                        `json:"id"`
	Slug              string                        `json:"slug,omitempty"`
	Name              string                        `json:"name,omitempty"`
	Summary           string                        `json:"summary,omitempty"`
	Description       string                        `json:"description,omitempty"`
	Capabilities      []string                      `json:"capabilities,omitempty"`
	Tags              []string                      `json:"tags,omitempty"`
	Categories        []string                      `json:"modrinth_categories,omitempty"`
	MCVersions        []string                      `json:"mc_versions,omitempty"`
	Loaders           []string                      `json:"loaders,omitempty"`
	Downloads         int64                         `json:"downloads"`
	Dependencies      map[string]DependencyDTO      `json:"dependencies,omitempty"`
	Incompatibilities map[string]IncompatibilityDTO `json:"incompatibilities,omitempty"`
	OutdatedReports   int                           `json:"outdated_reports,omitempty"`
}

// CandidateDTO is one ranked retrieval result.
type CandidateDTO struct {
	Mod           ModDTO   `json:"mod"`
	SearchScore   float64  `json:"search_score"`
	CombinedScore float64  `json:"combined_score"`
	SearchTypes   []string `json:"search_types"`
	ExactMatch    bool     `json:"exact_match,omitempty"`
	BridgedLoader bool     `json:"bridged_loader,omitempty"`
}

// QueryReportDTO reports one query's contribution.
type QueryReportDTO struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Hits  int    `json:"hits"`
	Error string `json:"error,omitempty"`
}

// RetrieveResponse is the body of a successful retrieval.
type RetrieveResponse struct {
	Candidates []CandidateDTO   `json:"candidates"`
	Queries    []QueryReportDTO `json:"queries"`
}

// ResolveRequest is the body of POST /v1/resolve. Mods are given inline,
// by id, or both; inline mods come first.
type ResolveRequest struct {
	Mods     []ModDTO    `json:"mods,omitempty"`
	ModIDs   []string    `json:"mod_ids,omitempty"`
	Platform PlatformDTO `json:"platform"`
}

// EntryDTO is a mod of the resolved set.
type EntryDTO struct {
	Mod               ModDTO `json:"mod"`
	AddedAsDependency bool   `json:"added_as_dependency"`
	DependencyOf      string `json:"dependency_of,omitempty"`
	Depth             int    `json:"depth"`
}

// RemovalDTO is a dropped mod with the reason.
type RemovalDTO struct {
	Mod    ModDTO `json:"mod"`
	Reason string `json:"reason"`
}

// ResolveResponse is the body of a successful resolution.
type ResolveResponse struct {
	FinalMods          []EntryDTO   `json:"final_mods"`
	AddedDependencies  []EntryDTO   `json:"added_dependencies"`
	RemovedForConflict []RemovalDTO `json:"removed_for_conflict"`
	Filtered           []RemovalDTO `json:"filtered"`
	Warnings           []string     `json:"warnings"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version,omitempty"`
}

// ModLookup fetches mods by id.
type ModLookup interface {
	GetByIDs(ctx context.Context, ids []mod.ID) (map[mod.ID]mod.Mod, error)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		return invalid("invalid request body: %v", err)
	}
	return nil
}

// DecodeRetrieveRequest parses and validates a retrieval request.
func DecodeRetrieveRequest(r io.Reader) (retrievaluc.Request, error) {
	var dto RetrieveRequest
	if err := decodeJSON(r, &dto); err != nil {
		return retrievaluc.Request{}, err
	}
	return dto.ToDomain()
}

// ToDomain validates the request and maps it into the engine request.
func (req *RetrieveRequest) ToDomain() (retrievaluc.Request, error) {
	p, err := req.Platform.toDomain()
	if err != nil {
		return retrievaluc.Request{}, err
	}

	queries := make([]query.Query, 0, len(req.Queries))
	for i, q := range req.Queries {
		weight := query.DefaultWeight
		if q.Weight != nil {
			weight = *q.Weight
		}
		parsed, err := query.New(query.Type(q.Type), q.Text, weight, q.Limit)
		if err != nil {
			return retrievaluc.Request{}, invalid("queries[%d]: %v", i, err)
		}
		queries = append(queries, parsed)
	}

	filters := filter.Filters{
		ExcludeIDs:            req.Filters.ExcludeIDs,
		MinDownloads:          req.Filters.MinDownloads,
		CategoriesInclude:     req.Filters.CategoriesInclude,
		CategoriesPrefer:      req.Filters.CategoriesPrefer,
		RequiredCapabilities:  req.Filters.RequiredCapabilities,
		PreferredCapabilities: req.Filters.PreferredCapabilities,
	}
	if err := filters.Validate(); err != nil {
		return retrievaluc.Request{}, invalid("filters: %v", err)
	}
	if req.TargetCount < 0 {
		return retrievaluc.Request{}, invalid("target_count must be >= 0, got %d", req.TargetCount)
	}

	out := retrievaluc.Request{
		Queries:     queries,
		Filters:     filters,
		Platform:    p,
		TargetCount: req.TargetCount,
	}
	if req.Diversity != nil {
		if req.Diversity.MaxPerCategory < 0 {
			return retrievaluc.Request{}, invalid("diversity.max_per_category must be >= 0")
		}
		out.Diversity = retrievaluc.Diversity{
			Enabled:        req.Diversity.Enabled,
			MaxPerCategory: req.Diversity.MaxPerCategory,
		}
	}
	return out, nil
}

func (p PlatformDTO) toDomain() (platform.Platform, error) {
	out, err := platform.New(p.MCVersion, p.Loader, p.FabricCompat)
	if err != nil {
		return platform.Platform{}, invalid("platform: %v", err)
	}
	return out, nil
}

// DecodeResolveRequest parses a resolution request. Mods named only by id are
// fetched in one batch; unknown ids are returned so the caller can report them.
func DecodeResolveRequest(
	ctx context.Context, r io.Reader, lookup ModLookup,
) ([]mod.Mod, platform.Platform, []string, error) {
	var dto ResolveRequest
	if err := decodeJSON(r, &dto); err != nil {
		return nil, platform.Platform{}, nil, err
	}
	return dto.ToDomain(ctx, lookup)
}

// ToDomain validates the request and resolves mod ids against the catalog.
func (req *ResolveRequest) ToDomain(
	ctx context.Context, lookup ModLookup,
) ([]mod.Mod, platform.Platform, []string, error) {
	p, err := req.Platform.toDomain()
	if err != nil {
		return nil, platform.Platform{}, nil, err
	}
	if n := len(req.Mods) + len(req.ModIDs); n > maxSelectedMods {
		return nil, platform.Platform{}, nil, invalid("too many mods (max %d)", maxSelectedMods)
	}

	selected := make([]mod.Mod, 0, len(req.Mods)+len(req.ModIDs))
	for i := range req.Mods {
		if req.Mods[i].ID == "" {
			return nil, platform.Platform{}, nil, invalid("mods[%d]: id is required", i)
		}
		selected = append(selected, req.Mods[i].toDomain())
	}

	var unknown []string
	if len(req.ModIDs) > 0 {
		if lookup == nil {
			return nil, platform.Platform{}, nil, invalid("mod_ids require a catalog")
		}
		ids := make([]mod.ID, 0, len(req.ModIDs))
		for _, id := range req.ModIDs {
			if id != "" {
				ids = append(ids, mod.ID(id))
			}
		}
		found, err := lookup.GetByIDs(ctx, ids)
		if err != nil {
			return nil, platform.Platform{}, nil, fmt.Errorf("lookup selected mods: %w", err)
		}
		for _, id := range ids {
			m, ok := found[id]
			if !ok {
				unknown = append(unknown, string(id))
				continue
			}
			selected = append(selected, m)
		}
	}
	return selected, p, unknown, nil
}

func (m *ModDTO) toDomain() mod.Mod {
	out := mod.Mod{
		ID:              mod.ID(m.ID),
		Slug:            m.Slug,
		Name:            m.Name,
		Summary:         m.Summary,
		Description:     m.Description,
		Capabilities:    m.Capabilities,
		Tags:            m.Tags,
		Categories:      m.Categories,
		MCVersions:      m.MCVersions,
		Downloads:       m.Downloads,
		OutdatedReports: m.OutdatedReports,
	}
	for _, l := range m.Loaders {
		if parsed, _ := mod.ParseLoader(l); parsed != "" {
			out.Loaders = append(out.Loaders, parsed)
		}
	}
	if len(m.Dependencies) > 0 {
		out.Dependencies = make(map[mod.ID]mod.DependencyEdge, len(m.Dependencies))
		for id, d := range m.Dependencies {
			out.Dependencies[mod.ID(id)] = mod.DependencyEdge{
				Type:     mod.ParseDependencyType(d.Type),
				Versions: d.Versions,
			}
		}
	}
	if len(m.Incompatibilities) > 0 {
		out.Incompatibilities = make(map[mod.ID]mod.IncompatibilityEdge, len(m.Incompatibilities))
		for id, inc := range m.Incompatibilities {
			e := mod.IncompatibilityEdge{Reason: inc.Reason}
			for _, l := range inc.Loaders {
				if parsed, _ := mod.ParseLoader(l); parsed != "" {
					e.Loaders = append(e.Loaders, parsed)
				}
			}
			out.Incompatibilities[mod.ID(id)] = e
		}
	}
	return out
}

func modToDTO(m *mod.Mod) ModDTO {
	out := ModDTO{
		ID:              string(m.ID),
		Slug:            m.Slug,
		Name:            m.Name,
		Summary:         m.Summary,
		Capabilities:    m.Capabilities,
		Tags:            m.Tags,
		Categories:      m.Categories,
		MCVersions:      m.MCVersions,
		Downloads:       m.Downloads,
		OutdatedReports: m.OutdatedReports,
	}
	if len(m.Loaders) > 0 {
		out.Loaders = make([]string, len(m.Loaders))
		for i, l := range m.Loaders {
			out.Loaders[i] = string(l)
		}
	}
	if len(m.Dependencies) > 0 {
		out.Dependencies = make(map[string]DependencyDTO, len(m.Dependencies))
		for id, d := range m.Dependencies {
			out.Dependencies[string(id)] = DependencyDTO{Type: string(d.Type), Versions: d.Versions}
		}
	}
	if len(m.Incompatibilities) > 0 {
		out.Incompatibilities = make(map[string]IncompatibilityDTO, len(m.Incompatibilities))
		for id, inc := range m.Incompatibilities {
			dto := IncompatibilityDTO{Reason: inc.Reason}
			for _, l := range inc.Loaders {
				dto.Loaders = append(dto.Loaders, string(l))
			}
			out.Incompatibilities[string(id)] = dto
		}
	}
	return out
}

// NewRetrieveResponse maps a retrieval outcome to its wire shape.
func NewRetrieveResponse(o *retrievaluc.Outcome) RetrieveResponse {
	resp := RetrieveResponse{
		Candidates: make([]CandidateDTO, len(o.Candidates)),
		Queries:    make([]QueryReportDTO, len(o.Queries)),
	}
	for i := range o.Candidates {
		resp.Candidates[i] = candidateToDTO(&o.Candidates[i])
	}
	for i, q := range o.Queries {
		r := QueryReportDTO{Type: string(q.Type), Text: q.Text, Hits: q.Hits}
		if q.Err != nil {
			r.Error = q.Err.Error()
		}
		resp.Queries[i] = r
	}
	return resp
}

func candidateToDTO(c *candidate.Candidate) CandidateDTO {
	types := make([]string, len(c.SearchTypes))
	for i, t := range c.SearchTypes {
		types[i] = string(t)
	}
	return CandidateDTO{
		Mod:           modToDTO(&c.Mod),
		SearchScore:   c.SearchScore,
		CombinedScore: c.CombinedScore,
		SearchTypes:   types,
		ExactMatch:    c.ExactMatch,
		BridgedLoader: c.BridgedLoader,
	}
}

// NewResolveResponse maps a resolution result to its wire shape. Unknown
// selected ids become leading warnings.
func NewResolveResponse(r *resolution.Result, unknown []string) ResolveResponse {
	resp := ResolveResponse{
		FinalMods:          entriesToDTO(r.FinalMods),
		AddedDependencies:  entriesToDTO(r.AddedDependencies),
		RemovedForConflict: removalsToDTO(r.RemovedForConflict),
		Filtered:           removalsToDTO(r.Filtered),
		Warnings:           make([]string, 0, len(unknown)+len(r.Warnings)),
	}
	for _, id := range unknown {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("Selected mod %s not found in catalog", id))
	}
	resp.Warnings = append(resp.Warnings, r.Warnings...)
	return resp
}

func entriesToDTO(entries []resolution.Entry) []EntryDTO {
	out := make([]EntryDTO, len(entries))
	for i := range entries {
		e := &entries[i]
		out[i] = EntryDTO{
			Mod:               modToDTO(&e.Mod),
			AddedAsDependency: e.AddedAsDependency,
			DependencyOf:      string(e.DependencyOf),
			Depth:             e.Depth,
		}
	}
	return out
}

func removalsToDTO(removals []resolution.Removal) []RemovalDTO {
	out := make([]RemovalDTO, len(removals))
	for i := range removals {
		out[i] = RemovalDTO{Mod: modToDTO(&removals[i].Mod), Reason: removals[i].Reason}
	}
	return out
}
