package retrieval

import (
	"sort"

	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/candidate"
)

// fuse merges per-query hits into one candidate per mod.
// combined(m) = sum of the weighted scores of every hit on m. Input order
// breaks score ties, so the first query to surface a mod ranks it first.
func fuse(perQuery [][]candidate.Candidate) []candidate.Candidate {
	index := make(map[mod.ID]int)
	var fused []candidate.Candidate

	for _, hits := range perQuery {
		for i := range hits {
			h := &hits[i]
			key := modKey(&h.Mod)
			pos, ok := index[key]
			if !ok {
				index[key] = len(fused)
				fused = append(fused, candidate.Candidate{
					Mod:         h.Mod,
					SearchScore: h.SearchScore,
				})
				pos = len(fused) - 1
			}

			c := &fused[pos]
			c.CombinedScore += h.SearchScore
			if h.SearchScore > c.SearchScore {
				c.SearchScore = h.SearchScore
			}
			c.ExactMatch = c.ExactMatch || h.ExactMatch
			for _, t := range h.SearchTypes {
				c.AddSearchType(t)
			}
		}
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].CombinedScore > fused[j].CombinedScore
	})
	return fused
}
