// Package candidate holds a scored retrieval hit.
package candidate

import (
	"slices"

	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/query"
)

// Candidate is a catalog mod scored by one or more queries.
type Candidate struct {
	Mod mod.Mod
	// SearchScore is the weighted score of a single query hit; after fusion it
	// is the best one.
	SearchScore float64
	// CombinedScore accumulates SearchScore across queries and filter boosts.
	CombinedScore float64
	SearchTypes   []query.Type
	// ExactMatch is set when a keyword equals the slug or name.
	ExactMatch bool
	// BridgedLoader is set when the mod was admitted only through fabric
	// compatibility mode; such candidates lose ties to native ones.
	BridgedLoader bool
}

// HasSearchType reports whether t contributed to the candidate.
func (c *Candidate) HasSearchType(t query.Type) bool {
	return slices.Contains(c.SearchTypes, t)
}

// AddSearchType records t once.
func (c *Candidate) AddSearchType(t query.Type) {
	if !c.HasSearchType(t) {
		c.SearchTypes = append(c.SearchTypes, t)
	}
}
