// Package resolution holds the outcome of a dependency resolution run.
package resolution

import "github.com/TheVirusNVGM/modcurator/internal/domain/mod"

// Entry is a mod in the final set with its provenance.
type Entry struct {
	Mod               mod.Mod
	AddedAsDependency bool
	// DependencyOf is the mod whose required dependency pulled this one in.
	DependencyOf mod.ID
	// Depth is 0 for selected mods and the dependency distance otherwise.
	Depth int
}

// Removal is a mod dropped from the set, with the reason.
type Removal struct {
	Mod    mod.Mod
	Reason string
}

// Result is the complete, consistent mod set produced by one run.
type Result struct {
	FinalMods []Entry
	// AddedDependencies is the subset of FinalMods pulled in as dependencies.
	AddedDependencies  []Entry
	RemovedForConflict []Removal
	// Filtered lists selected mods dropped by the platform gate.
	Filtered []Removal
	Warnings []string
}

// IDs returns the final mod ids in order.
func (r *Result) IDs() []mod.ID {
	ids := make([]mod.ID, len(r.FinalMods))
	for i := range r.FinalMods {
		ids[i] = r.FinalMods[i].Mod.ID
	}
	return ids
}

// Contains reports whether id is in the final set.
func (r *Result) Contains(id mod.ID) bool {
	for i := range r.FinalMods {
		if r.FinalMods[i].Mod.ID == id {
			return true
		}
	}
	return false
}
