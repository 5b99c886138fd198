// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
//	// Returns: []string{"foo", "bar"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// FirstField returns the first whitespace-separated token of s, or "".
func FirstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// FieldAfter returns the first token following sep in s. The boolean is
// false when sep is absent or nothing follows it.
//
// Example:
//
//	FieldAfter("Nespolehlivý plátce: NE (od 1.1.2020)", ":")
//	// Returns: "NE", true
func FieldAfter(s, sep string) (string, bool) {
	_, rest, found := strings.Cut(s, sep)
	if !found {
		return "", false
	}
	token := FirstField(rest)
	return token, token != ""
}
