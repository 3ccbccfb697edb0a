package mod

import "strings"

// VersionMatches reports whether a declared version list admits target.
// An empty list means the mod did not declare versions and is admitted.
// Otherwise target must equal a declared version or share a version family
// with it: "1.21" admits "1.21.1" and "1.21.1" admits "1.21", but "1.2" does
// not admit "1.21".
func VersionMatches(target string, declared []string) bool {
	if len(declared) == 0 {
		return true
	}
	for _, v := range declared {
		if v == target || sameFamily(v, target) || sameFamily(target, v) {
			return true
		}
	}
	return false
}

// sameFamily reports whether prefix is a dotted-component prefix of v.
func sameFamily(prefix, v string) bool {
	if prefix == "" || !strings.HasPrefix(v, prefix) {
		return false
	}
	return len(v) == len(prefix) || v[len(prefix)] == '.'
}
