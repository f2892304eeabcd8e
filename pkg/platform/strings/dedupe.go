// Package strings normalizes the comma separated lists read from
// configuration.
package strings

import (
	"strings"
)

// DedupeAndTrim trims every element and drops empty and repeated values.
// Order of first appearance is preserved.
//
//	DedupeAndTrim([]string{" old-1 ", "old-2", "old-1", ""})
//	// []string{"old-1", "old-2"}
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// DedupeAndTrimUpper is DedupeAndTrim for case-insensitive codes such as
// two-letter jurisdictions, which are returned upper-cased.
func DedupeAndTrimUpper(values []string) []string {
	return dedupe(values, func(v string) string {
		return strings.ToUpper(strings.TrimSpace(v))
	})
}

func dedupe(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			result = append(result, n)
		}
	}
	return result
}
