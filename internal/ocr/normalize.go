package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^[ \t]*[_\-—=|]{3,}[ \t]*$`)
)

// Normalize collapses noisy whitespace and drops ruling-line artifacts that
// recognizers emit for table borders. Line breaks are kept.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reBoxNoise.ReplaceAllString(s, "")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// joinWords concatenates recognized words of one line. Neighbouring CJK
// words are glued, anything else is separated by a space.
func joinWords(words []string) string {
	var b strings.Builder
	var prev rune
	for i, w := range words {
		if w == "" {
			continue
		}
		first := []rune(w)[0]
		if i > 0 && b.Len() > 0 && !(isWide(prev) && isWide(first)) {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		r := []rune(w)
		prev = r[len(r)-1]
	}
	return b.String()
}

// isWide covers CJK ideographs and fullwidth punctuation.
func isWide(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || (r >= 0x3000 && r <= 0x303F) || (r >= 0xFF00 && r <= 0xFFEF)
}
