// Package filter holds the eligibility and boosting criteria of a retrieval request.
package filter

import (
	"fmt"

	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
)

// MaxListSize bounds every list-valued criterion.
const MaxListSize = 256

// Filters selects and boosts candidates after fusion. The zero value filters nothing.
type Filters struct {
	// ExcludeIDs drops mods whose id or slug is listed.
	ExcludeIDs   []string
	MinDownloads int64
	// CategoriesInclude is a strict content filter: a mod must match one of them.
	CategoriesInclude []string
	// CategoriesPrefer boosts matching mods without excluding others.
	CategoriesPrefer      []string
	RequiredCapabilities  []string
	PreferredCapabilities []string
}

// Validate checks list sizes and numeric bounds.
func (f *Filters) Validate() error {
	if f.MinDownloads < 0 {
		return fmt.Errorf("min_downloads must be >= 0, got %d", f.MinDownloads)
	}
	lists := []struct {
		name string
		v    []string
	}{
		{"exclude_ids", f.ExcludeIDs},
		{"categories_include", f.CategoriesInclude},
		{"categories_prefer", f.CategoriesPrefer},
		{"required_capabilities", f.RequiredCapabilities},
		{"preferred_capabilities", f.PreferredCapabilities},
	}
	for _, l := range lists {
		if len(l.v) > MaxListSize {
			return fmt.Errorf("too many %s (max %d)", l.name, MaxListSize)
		}
	}
	return nil
}

// Excludes reports whether m is listed by id or slug.
func (f *Filters) Excludes(m *mod.Mod) bool {
	for _, x := range f.ExcludeIDs {
		if x == "" {
			continue
		}
		if x == string(m.ID) || (m.Slug != "" && x == m.Slug) {
			return true
		}
	}
	return false
}
