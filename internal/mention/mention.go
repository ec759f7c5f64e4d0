// Package mention formats and parses inline node reference tokens.
//
// A reference to node 42 titled Foo is written [NODE:42:"Foo"]. Titles that
// contain a double quote are wrapped in single quotes instead, with any
// apostrophes inside them replaced by a typographic one so the token stays
// unambiguous.
package mention

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// typographicApostrophe replaces ' inside single-quoted titles.
const typographicApostrophe = "’"

// tokenPattern matches [NODE:<id>:"title"] and [NODE:<id>:'title'].
var tokenPattern = regexp.MustCompile(`\[NODE:(\d+):(?:"[^"]*"|'[^']*')\]`)

// Format renders the mention token for node id with the given title.
func Format(id int64, title string) string {
	if strings.Contains(title, `"`) {
		title = strings.ReplaceAll(title, "'", typographicApostrophe)
		return fmt.Sprintf("[NODE:%d:'%s']", id, title)
	}
	return fmt.Sprintf(`[NODE:%d:"%s"]`, id, title)
}

// Parse returns the distinct node ids referenced in text, in order of first
// appearance. References to self and non-positive ids are skipped.
func Parse(text string, self int64) []int64 {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(matches))
	var ids []int64
	for _, m := range matches {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || id <= 0 || id == self {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Insert replaces text[start:end] (a partially typed trigger such as "@fo")
// with the finished token for id. Offsets are byte offsets and must fall on
// character boundaries.
func Insert(text string, start, end int, id int64, title string) (string, error) {
	if start < 0 || end < start || end > len(text) {
		return "", fmt.Errorf("trigger range [%d,%d) outside content of length %d", start, end, len(text))
	}
	if !runeBoundary(text, start) || !runeBoundary(text, end) {
		return "", fmt.Errorf("trigger range [%d,%d) splits a multi-byte character", start, end)
	}
	return text[:start] + Format(id, title) + text[end:], nil
}

func runeBoundary(text string, i int) bool {
	return i == len(text) || utf8.RuneStart(text[i])
}
