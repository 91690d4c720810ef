package schema

import "strings"

func equalFoldTrim(s, want string) bool {
	return strings.EqualFold(strings.TrimSpace(s), want)
}

// IsWildcard reports whether label is one of the wildcard labels.
func IsWildcard(label string) bool {
	return equalFoldTrim(label, WildcardAll) || equalFoldTrim(label, WildcardGlobal)
}
