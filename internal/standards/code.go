package standards

import (
	"path/filepath"
	"regexp"
	"strings"
)

// codeHeadRunes bounds how much of the content is searched for a code.
const codeHeadRunes = 1000

// Patterns are tried in order; the first match wins.
var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)GB(?:/?T)?\s*\d+[-—]\d{4}`),     // GB/T 50500-2013
	regexp.MustCompile(`(?i)GB(?:/?T)?\s*\d+`),              // GB 50500
	regexp.MustCompile(`(?i)JGJ\s*\d+[-—]\d{4}`),            // JGJ 59-2011
	regexp.MustCompile(`(?i)CJJ\s*\d+[-—]\d{4}`),            // CJJ 1-2008
	regexp.MustCompile(`(?i)JTG\s*[A-Z]\d+[-—]\d{4}`),       // JTG D50-2017
	regexp.MustCompile(`(?i)DB\d{2}(?:/?T)?\s*\d+[-—]\d{4}`), // DB11/T 695-2009
}

var codeReplacer = strings.NewReplacer("—", "-", "／", "/")

// ExtractCode looks for a standard code in the file name first and then in
// the head of the content. It returns "" when neither carries one.
func ExtractCode(fileName, content string) string {
	if code := matchCode(codeReplacer.Replace(fileName)); code != "" {
		return code
	}
	if content == "" {
		return ""
	}
	head := content
	if r := []rune(content); len(r) > codeHeadRunes {
		head = string(r[:codeHeadRunes])
	}
	return matchCode(codeReplacer.Replace(head))
}

func matchCode(s string) string {
	for _, re := range codePatterns {
		if m := re.FindString(s); m != "" {
			return codeReplacer.Replace(m)
		}
	}
	return ""
}

// SafeCode turns a code into a file name stem.
func SafeCode(code string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(code)
}

// stem is the base name without extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
