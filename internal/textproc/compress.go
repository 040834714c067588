package textproc

import (
	"regexp"
	"strings"
)

// dedupPrefix is how many leading runes identify a repeated line.
const dedupPrefix = 50

var importantLine = regexp.MustCompile(strings.Join([]string{
	`第[一二三四五六七八九十\d]+[章节条]`,
	`\d+\.\d+`,
	`[≥≤><]`,
	`不得|必须|应当|应|禁止|要求`,
	`GB|JGJ|CJJ|标准`,
	`\d+%|\d+元|\d+天|\d+年`,
}, "|"))

// IsImportant reports whether a line carries numbering, requirements,
// standard references or quantities.
func IsImportant(line string) bool {
	return importantLine.MatchString(line)
}

// Compress drops blank lines and repeated unimportant lines, then forces the
// result under estimate(text)*ratio with structured truncation. A ratio of 1
// or more returns text unchanged.
//
// Lowering ratio never yields a larger output: when truncation would cost
// more than it removes (the omission marker outweighing a short dropped
// line) the deduplicated text is returned instead.
func Compress(text string, ratio float64) string {
	if ratio >= 1 {
		return text
	}

	seen := make(map[string]struct{})
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		key := prefixRunes(stripped, dedupPrefix)
		_, dup := seen[key]
		if IsImportant(stripped) || !dup {
			kept = append(kept, line)
			seen[key] = struct{}{}
		}
	}
	compressed := strings.Join(kept, "\n")

	target := int(float64(Estimate(text)) * ratio)
	if Estimate(compressed) <= target {
		return compressed
	}
	truncated := Truncate(compressed, target, true)
	if Estimate(truncated) < Estimate(compressed) {
		return truncated
	}
	return compressed
}

func prefixRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
