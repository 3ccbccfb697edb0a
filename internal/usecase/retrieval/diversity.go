package retrieval

import (
	"strings"

	"github.com/TheVirusNVGM/modcurator/internal/domain/search/candidate"
)

// DefaultMaxPerCategory caps candidates sharing a primary tag.
const DefaultMaxPerCategory = 50

// Diversity controls the per-category cap.
type Diversity struct {
	MaxPerCategory int
	Enabled        bool
}

// diversify keeps at most maxPerCategory candidates per primary tag,
// preserving order.
func diversify(cands []candidate.Candidate, maxPerCategory int) []candidate.Candidate {
	if maxPerCategory <= 0 {
		maxPerCategory = DefaultMaxPerCategory
	}
	counts := make(map[string]int)
	out := make([]candidate.Candidate, 0, len(cands))
	for i := range cands {
		tag := cands[i].Mod.PrimaryTag()
		if counts[tag] >= maxPerCategory {
			continue
		}
		counts[tag]++
		out = append(out, cands[i])
	}
	return out
}

// narrowlyScoped reports whether the include list names an exempt category.
func narrowlyScoped(include, exempt []string) bool {
	for _, c := range include {
		c = strings.ToLower(strings.TrimSpace(c))
		for _, e := range exempt {
			if c == strings.ToLower(e) {
				return true
			}
		}
	}
	return false
}
