package graph

import (
	"strings"
	"unicode/utf8"
)

// MaxNodeDimensions caps how many dimensions a node can carry.
const MaxNodeDimensions = 5

// SanitizeDimensions trims names, drops empties, removes case-insensitive
// duplicates keeping the first casing seen, and caps the result at
// MaxNodeDimensions entries.
func SanitizeDimensions(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := fold(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
		if len(out) == MaxNodeDimensions {
			break
		}
	}
	return out
}

// likeEscaper escapes LIKE wildcards; queries use ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func prefixPattern(term string) string {
	return likeEscaper.Replace(term) + "%"
}

// Truncate shortens a string to at most max bytes with ellipsis, never
// cutting a multi-byte character in half.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
