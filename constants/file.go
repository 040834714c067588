package constants

import "strings"

// Format is the extraction strategy chosen for an input file.
type Format string

// Stable values; they are also the "type" reported in document metadata.
const (
	PDF   Format = "PDF"
	Word  Format = "Word"
	Excel Format = "Excel"
)

// FileTypes holds every format the parser knows how to extract.
var FileTypes = []Format{PDF, Word, Excel}

// AllowedExtensions maps a normalized extension to its extraction format.
// Legacy .doc/.xls are routed to the same extractors as their XML successors;
// when the file is really in the old binary layout the extractor reports the
// failure in metadata instead of the caller getting an error.
var AllowedExtensions = map[string]Format{
	"pdf":  PDF,
	"docx": Word,
	"doc":  Word,
	"xlsx": Excel,
	"xls":  Excel,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns the format for ext, or "" when unsupported.
func MapExtToFormat(ext string) Format {
	return AllowedExtensions[NormalizeExt(ext)]
}

// SupportedExtensions returns the allowed extensions in a stable order.
func SupportedExtensions() []string {
	return []string{"pdf", "docx", "doc", "xlsx", "xls"}
}
