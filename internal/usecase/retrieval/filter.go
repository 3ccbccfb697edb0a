package retrieval

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/TheVirusNVGM/modcurator/internal/domain/category"
	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/platform"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/candidate"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/filter"
)

// Score multipliers applied to surviving candidates.
const (
	PreferBoost   = 1.2
	RequiredBoost = 1.5
)

// DefaultOutdatedThreshold is the report count at which a mod is treated as outdated.
const DefaultOutdatedThreshold = 3

// eligibility applies the ordered hard filters and the score boosts.
type eligibility struct {
	filters           *filter.Filters
	platform          platform.Platform
	synonyms          category.Synonyms
	outdatedThreshold int
	logger            *zap.Logger
}

// apply walks candidates in fused order. A candidate conflicting with one
// accepted earlier is dropped, so higher-ranked mods win.
func (e *eligibility) apply(cands []candidate.Candidate) []candidate.Candidate {
	threshold := e.outdatedThreshold
	if threshold <= 0 {
		threshold = DefaultOutdatedThreshold
	}
	preferCats := lowerSet(e.filters.CategoriesPrefer)
	requiredCaps := lowerSet(e.filters.RequiredCapabilities)
	preferredCaps := lowerSet(e.filters.PreferredCapabilities)

	accepted := make([]candidate.Candidate, 0, len(cands))
	for i := range cands {
		c := cands[i]
		m := &c.Mod

		if reason, skip := e.reject(m, accepted, threshold); skip {
			e.logger.Debug("Candidate filtered",
				zap.String("mod_id", string(m.ID)),
				zap.String("slug", m.Slug),
				zap.String("reason", reason),
			)
			continue
		}

		match := e.platform.CheckLoader(m)
		c.BridgedLoader = !match.Native

		if intersects(m.AllCategories(), preferCats) {
			c.CombinedScore *= PreferBoost
		}
		if intersects(m.Capabilities, requiredCaps) {
			c.CombinedScore *= RequiredBoost
		}
		if intersects(m.Capabilities, preferredCaps) {
			c.CombinedScore *= PreferBoost
		}
		accepted = append(accepted, c)
	}

	sortCandidates(accepted)
	return accepted
}

// reject returns the first failing filter, checked in a fixed order.
func (e *eligibility) reject(m *mod.Mod, accepted []candidate.Candidate, outdatedThreshold int) (string, bool) {
	if e.filters.Excludes(m) {
		return "excluded", true
	}
	if m.OutdatedReports >= outdatedThreshold {
		return "outdated", true
	}
	for i := range accepted {
		if _, ok := mod.FindConflict(m, &accepted[i].Mod, e.platform.Loader); ok {
			return "incompatible with " + string(accepted[i].Mod.ID), true
		}
	}
	if m.Downloads < e.filters.MinDownloads {
		return "low downloads", true
	}
	if !e.platform.AdmitsVersion(m) {
		return "mc version", true
	}
	if match := e.platform.CheckLoader(m); !match.OK {
		return match.Reason, true
	}
	if len(e.filters.CategoriesInclude) > 0 &&
		!e.synonyms.MatchesAny(e.filters.CategoriesInclude, m.AllCategories()) {
		return "category", true
	}
	return "", false
}

// sortCandidates orders by combined score, then native loader before
// bridged, then downloads.
func sortCandidates(cands []candidate.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := &cands[i], &cands[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		if a.BridgedLoader != b.BridgedLoader {
			return !a.BridgedLoader
		}
		return a.Mod.Downloads > b.Mod.Downloads
	})
}

func lowerSet(vs []string) map[string]struct{} {
	if len(vs) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}

func intersects(vs []string, set map[string]struct{}) bool {
	if len(set) == 0 {
		return false
	}
	for _, v := range vs {
		if _, ok := set[strings.ToLower(v)]; ok {
			return true
		}
	}
	return false
}
