package modcurator

import (
	"encoding/json"
	"fmt"

	"github.com/TheVirusNVGM/modcurator/internal/domain"
	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/platform"
	"github.com/TheVirusNVGM/modcurator/internal/domain/resolution"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/candidate"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/filter"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/query"
	catalogrepo "github.com/TheVirusNVGM/modcurator/internal/repository/catalog"
	retrievaluc "github.com/TheVirusNVGM/modcurator/internal/usecase/retrieval"
)

// outdatedKey is the reserved incompatibility key carrying outdated reports.
const outdatedKey = "_OUTDATED_"

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func toInternalPlatform(p Platform) (platform.Platform, error) {
	out, err := platform.New(p.MCVersion, p.Loader, p.FabricCompat)
	if err != nil {
		return platform.Platform{}, invalid("platform: %v", err)
	}
	return out, nil
}

func toInternalRequest(req *RetrieveRequest) (retrievaluc.Request, error) {
	p, err := toInternalPlatform(req.Platform)
	if err != nil {
		return retrievaluc.Request{}, err
	}

	queries := make([]query.Query, 0, len(req.Queries))
	for i, q := range req.Queries {
		weight := q.Weight
		if weight == 0 {
			weight = query.DefaultWeight
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
		return retrievaluc.Request{}, invalid("target count must be >= 0, got %d", req.TargetCount)
	}
	if req.Diversity.MaxPerCategory < 0 {
		return retrievaluc.Request{}, invalid("diversity max per category must be >= 0")
	}

	return retrievaluc.Request{
		Queries:  queries,
		Filters:  filters,
		Platform: p,
		Diversity: retrievaluc.Diversity{
			Enabled:        req.Diversity.Enabled,
			MaxPerCategory: req.Diversity.MaxPerCategory,
		},
		TargetCount: req.TargetCount,
	}, nil
}

func fromOutcome(o *retrievaluc.Outcome) RetrieveResult {
	out := RetrieveResult{
		Candidates: make([]Candidate, len(o.Candidates)),
		Queries:    make([]QueryReport, len(o.Queries)),
	}
	for i := range o.Candidates {
		out.Candidates[i] = fromCandidate(&o.Candidates[i])
	}
	for i, r := range o.Queries {
		out.Queries[i] = QueryReport{Type: QueryType(r.Type), Text: r.Text, Hits: r.Hits, Err: r.Err}
	}
	return out
}

func fromCandidate(c *candidate.Candidate) Candidate {
	types := make([]QueryType, len(c.SearchTypes))
	for i, t := range c.SearchTypes {
		types[i] = QueryType(t)
	}
	return Candidate{
		Mod:           fromMod(&c.Mod),
		SearchScore:   c.SearchScore,
		CombinedScore: c.CombinedScore,
		SearchTypes:   types,
		ExactMatch:    c.ExactMatch,
		BridgedLoader: c.BridgedLoader,
	}
}

func toInternalMod(m *Mod) mod.Mod {
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
		Loaders:         toLoaders(m.Loaders),
		Downloads:       m.Downloads,
		OutdatedReports: m.OutdatedReports,
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
			out.Incompatibilities[mod.ID(id)] = mod.IncompatibilityEdge{
				Reason:  inc.Reason,
				Loaders: toLoaders(inc.Loaders),
			}
		}
	}
	return out
}

func toLoaders(ls []string) []mod.Loader {
	if len(ls) == 0 {
		return nil
	}
	out := make([]mod.Loader, 0, len(ls))
	for _, l := range ls {
		if parsed, _ := mod.ParseLoader(l); parsed != "" {
			out = append(out, parsed)
		}
	}
	return out
}

func fromLoaders(ls []mod.Loader) []string {
	if len(ls) == 0 {
		return nil
	}
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = string(l)
	}
	return out
}

func fromMod(m *mod.Mod) Mod {
	out := Mod{
		ID:              string(m.ID),
		Slug:            m.Slug,
		Name:            m.Name,
		Summary:         m.Summary,
		Description:     m.Description,
		Capabilities:    m.Capabilities,
		Tags:            m.Tags,
		Categories:      m.Categories,
		MCVersions:      m.MCVersions,
		Loaders:         fromLoaders(m.Loaders),
		Downloads:       m.Downloads,
		OutdatedReports: m.OutdatedReports,
	}
	if len(m.Dependencies) > 0 {
		out.Dependencies = make(map[string]Dependency, len(m.Dependencies))
		for id, d := range m.Dependencies {
			out.Dependencies[string(id)] = Dependency{Type: string(d.Type), Versions: d.Versions}
		}
	}
	if len(m.Incompatibilities) > 0 {
		out.Incompatibilities = make(map[string]Incompatibility, len(m.Incompatibilities))
		for id, inc := range m.Incompatibilities {
			out.Incompatibilities[string(id)] = Incompatibility{Reason: inc.Reason, Loaders: fromLoaders(inc.Loaders)}
		}
	}
	return out
}

func fromResult(r *resolution.Result, unknown []string) ResolveResult {
	out := ResolveResult{
		FinalMods:          fromEntries(r.FinalMods),
		AddedDependencies:  fromEntries(r.AddedDependencies),
		RemovedForConflict: fromRemovals(r.RemovedForConflict),
		Filtered:           fromRemovals(r.Filtered),
		Warnings:           make([]string, 0, len(unknown)+len(r.Warnings)),
	}
	for _, id := range unknown {
		out.Warnings = append(out.Warnings, fmt.Sprintf("Selected mod %s not found in catalog", id))
	}
	out.Warnings = append(out.Warnings, r.Warnings...)
	return out
}

func fromEntries(entries []resolution.Entry) []Entry {
	out := make([]Entry, len(entries))
	for i := range entries {
		e := &entries[i]
		out[i] = Entry{
			Mod:               fromMod(&e.Mod),
			AddedAsDependency: e.AddedAsDependency,
			DependencyOf:      string(e.DependencyOf),
			Depth:             e.Depth,
		}
	}
	return out
}

func fromRemovals(removals []resolution.Removal) []Removal {
	out := make([]Removal, len(removals))
	for i := range removals {
		out[i] = Removal{Mod: fromMod(&removals[i].Mod), Reason: removals[i].Reason}
	}
	return out
}

type dependencyDoc struct {
	Type     string   `json:"type"`
	Versions []string `json:"versions,omitempty"`
}

type incompatibilityDoc struct {
	Reason        string   `json:"reason,omitempty"`
	Loaders       []string `json:"loaders,omitempty"`
	ReportedCount int      `json:"reported_count,omitempty"`
}

// toDocument encodes m in the stored catalog shape.
func toDocument(m *Mod) (catalogrepo.Document, error) {
	doc := catalogrepo.Document{
		SourceID:     m.ID,
		Slug:         m.Slug,
		Name:         m.Name,
		Summary:      m.Summary,
		Description:  m.Description,
		Capabilities: m.Capabilities,
		Tags:         m.Tags,
		Categories:   m.Categories,
		MCVersions:   m.MCVersions,
		Loaders:      m.Loaders,
		Downloads:    m.Downloads,
		Embedding:    m.Embedding,
	}

	if len(m.Dependencies) > 0 {
		deps := make(map[string]dependencyDoc, len(m.Dependencies))
		for id, d := range m.Dependencies {
			deps[id] = dependencyDoc{Type: d.Type, Versions: d.Versions}
		}
		raw, err := json.Marshal(deps)
		if err != nil {
			return catalogrepo.Document{}, fmt.Errorf("encode dependencies: %w", err)
		}
		doc.Dependencies = raw
	}

	if len(m.Incompatibilities) > 0 || m.OutdatedReports > 0 {
		incs := make(map[string]incompatibilityDoc, len(m.Incompatibilities)+1)
		for id, inc := range m.Incompatibilities {
			incs[id] = incompatibilityDoc{Reason: inc.Reason, Loaders: inc.Loaders}
		}
		if m.OutdatedReports > 0 {
			incs[outdatedKey] = incompatibilityDoc{ReportedCount: m.OutdatedReports}
		}
		raw, err := json.Marshal(incs)
		if err != nil {
			return catalogrepo.Document{}, fmt.Errorf("encode incompatibilities: %w", err)
		}
		doc.Incompatibilities = raw
	}
	return doc, nil
}
