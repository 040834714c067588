package textproc

import (
	"regexp"
	"strings"
)

const (
	// OmissionMarker replaces the lines dropped by structured truncation.
	OmissionMarker = "... (内容过长，已省略部分) ..."
	// MiddleOmissionMarker joins head and tail in simple truncation.
	MiddleOmissionMarker = "\n\n... (内容过长，已省略中间部分) ...\n\n"

	headShare = 0.7
	tailShare = 0.2
)

var structuralPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^#{1,6}\s+`),                 // markdown heading
	regexp.MustCompile(`^第[一二三四五六七八九十百\d]+[章节条]`), // 第X章 / 第X条
	regexp.MustCompile(`^\d+\.\d+`),                  // outline numbering
	regexp.MustCompile(`^【.*】`),                      // category tag
	regexp.MustCompile(`^==`),                        // banner
}

// IsStructural reports whether line is a heading, clause number, tag or
// banner that truncation must keep.
func IsStructural(line string) bool {
	s := strings.TrimSpace(line)
	for _, re := range structuralPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Truncate shrinks text to roughly maxTokens. Text already within budget is
// returned unchanged.
//
// With keepStructure, structural lines are always kept and their cost is
// reserved up front. Other lines are kept in order while the running cost
// stays within maxTokens; the first one that does not fit is replaced by
// OmissionMarker and from then on only structural lines are copied. Without
// keepStructure the result is the head and tail of text around
// MiddleOmissionMarker.
func Truncate(text string, maxTokens int, keepStructure bool) string {
	current := Estimate(text)
	if current <= maxTokens {
		return text
	}
	if keepStructure {
		return structuredTruncate(text, maxTokens)
	}
	return simpleTruncate(text, float64(maxTokens)/float64(current))
}

func structuredTruncate(text string, maxTokens int) string {
	lines := strings.Split(text, "\n")
	structural := make([]bool, len(lines))

	// every kept line is charged with its joining newline
	var used float64
	for i, line := range lines {
		if IsStructural(line) {
			structural[i] = true
			used += weight(line) + otherWeight
		}
	}

	budget := float64(maxTokens)
	out := make([]string, 0, len(lines))
	omitted := false
	for i, line := range lines {
		switch {
		case structural[i]:
			out = append(out, line)
		case omitted:
		case used+weight(line)+otherWeight <= budget:
			used += weight(line) + otherWeight
			out = append(out, line)
		default:
			out = append(out, OmissionMarker)
			omitted = true
		}
	}
	return strings.Join(out, "\n")
}

func simpleTruncate(text string, ratio float64) string {
	runes := []rune(text)
	n := float64(len(runes))
	head := clamp(int(n*ratio*headShare), len(runes))
	tail := clamp(int(n*ratio*tailShare), len(runes)-head)
	return string(runes[:head]) + MiddleOmissionMarker + string(runes[len(runes)-tail:])
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
