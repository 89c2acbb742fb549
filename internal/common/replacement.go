// Package common holds configuration, logging and small helpers shared by the
// moutai binaries.
//
// Prompt templates use {name} placeholders:
//
//	Input:  "today is {date}"
//	Values: {"date": "2025-01-06"}
//	Output: "today is 2025-01-06"
//
// Replacement is case-sensitive. Unknown placeholders are left untouched and logged.
package common

import (
	"regexp"

	"github.com/ternarybob/arbor"
)

// placeholderPattern matches {name} references. Names allow letters, digits, hyphens and underscores.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// ReplacePlaceholders substitutes every {name} in input with values[name].
// logger may be nil.
func ReplacePlaceholders(input string, values map[string]string, logger arbor.ILogger) string {
	if input == "" {
		return input
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := values[name]; ok {
			return value
		}
		if logger != nil {
			logger.Warn().
				Str("reference", match).
				Str("key", name).
				Msg("Unresolved placeholder - left unchanged")
		}
		return match
	})
}

// FindPlaceholders returns the placeholder names referenced in input, in order of appearance.
func FindPlaceholders(input string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(input, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
