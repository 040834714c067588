// Package textproc sizes, truncates, compresses and batches extracted
// document text against a token budget. Every function is pure; budgets and
// ratios are supplied by the caller.
package textproc

// Per-class costs of the token heuristic. CJK text dominates the corpus and
// the weights lean high so budgets stay conservative.
const (
	cjkWeight   = 1.5
	wordWeight  = 1.3
	otherWeight = 0.5
)

// Estimate approximates the downstream token count of text: each CJK
// ideograph (U+4E00..U+9FFF) costs 1.5, each run of ASCII letters costs 1.3
// and every other rune costs 0.5. The sum is truncated to an int.
func Estimate(text string) int {
	return int(weight(text))
}

func weight(text string) float64 {
	var total float64
	inWord := false
	for _, r := range text {
		switch {
		case isCJK(r):
			total += cjkWeight
			inWord = false
		case isLatinLetter(r):
			if !inWord {
				total += wordWeight
			}
			inWord = true
		default:
			total += otherWeight
			inWord = false
		}
	}
	return total
}

func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
