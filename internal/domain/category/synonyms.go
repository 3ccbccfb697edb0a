// Package category matches free-form mod categories against requested ones.
package category

import "strings"

// Synonyms maps a requested category to every catalog spelling that counts as it.
// The table is configuration, loaded at startup and passed in explicitly.
type Synonyms struct {
	table map[string][]string
}

// NewSynonyms builds a table; keys and values are lower-cased and the key is
// always included among its own synonyms.
func NewSynonyms(raw map[string][]string) Synonyms {
	table := make(map[string][]string, len(raw))
	for k, vs := range raw {
		key := normalize(k)
		if key == "" {
			continue
		}
		seen := map[string]struct{}{key: {}}
		list := []string{key}
		for _, v := range vs {
			n := normalize(v)
			if n == "" {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			list = append(list, n)
		}
		table[key] = list
	}
	return Synonyms{table: table}
}

// Expand returns the synonyms of c, or c itself when the table has no entry.
func (s Synonyms) Expand(c string) []string {
	key := normalize(c)
	if list, ok := s.table[key]; ok {
		return list
	}
	if key == "" {
		return nil
	}
	return []string{key}
}

// MatchesAny reports whether any of modCategories matches any requested
// category. A match is a substring relation in either direction between a
// mod category and a synonym of a requested category.
func (s Synonyms) MatchesAny(requested, modCategories []string) bool {
	for _, req := range requested {
		for _, syn := range s.Expand(req) {
			for _, mc := range modCategories {
				m := normalize(mc)
				if m == "" {
					continue
				}
				if strings.Contains(m, syn) || strings.Contains(syn, m) {
					return true
				}
			}
		}
	}
	return false
}

// Len returns the number of configured categories.
func (s Synonyms) Len() int { return len(s.table) }

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
