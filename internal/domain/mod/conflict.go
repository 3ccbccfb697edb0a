package mod

import "slices"

// Conflict describes an active incompatibility between two mods.
type Conflict struct {
	// Declarer is the mod whose incompatibility list names the other one.
	Declarer ID
	Reason   string
}

// FindConflict checks a and b in both directions under loader.
// A declaration on a takes precedence over one on b.
func FindConflict(a, b *Mod, loader Loader) (Conflict, bool) {
	if e, ok := a.IncompatibleWith(b.ID, loader); ok {
		return Conflict{Declarer: a.ID, Reason: reasonOrDefault(e.Reason)}, true
	}
	if e, ok := b.IncompatibleWith(a.ID, loader); ok {
		return Conflict{Declarer: b.ID, Reason: reasonOrDefault(e.Reason)}, true
	}
	return Conflict{}, false
}

func reasonOrDefault(r string) string {
	if r == "" {
		return "unknown incompatibility"
	}
	return r
}

func sortIDs(ids []ID) {
	slices.Sort(ids)
}
