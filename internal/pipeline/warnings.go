package pipeline

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/bid-docs/internal/extract"
	"github.com/joseph-ayodele/bid-docs/internal/ocr"
)

// WarningKind classifies a non-blocking problem found in a parsed document.
type WarningKind string

const (
	WarnExtractionFailed WarningKind = "extraction_failed"
	WarnOCRDegraded      WarningKind = "ocr_degraded"
	WarnEmptyContent     WarningKind = "empty_content"
)

// Warning is surfaced to the user without stopping the request.
type Warning struct {
	Label    string      `json:"label,omitempty"`
	FileName string      `json:"file_name,omitempty"`
	Kind     WarningKind `json:"kind"`
	Message  string      `json:"message"`
	Pages    []int       `json:"pages,omitempty"`
}

func (w Warning) String() string {
	var b strings.Builder
	if w.Label != "" {
		fmt.Fprintf(&b, "[%s] ", w.Label)
	}
	if w.FileName != "" {
		fmt.Fprintf(&b, "%s: ", w.FileName)
	}
	b.WriteString(w.Message)
	return b.String()
}

// Warnings derives the non-blocking warnings of doc from its metadata.
func Warnings(doc extract.ParsedDocument) []Warning {
	md := doc.Metadata
	if md.Failed() {
		return []Warning{{
			FileName: md.FileName,
			Kind:     WarnExtractionFailed,
			Message:  "extraction failed: " + md.Error,
		}}
	}

	var out []Warning
	switch {
	case len(md.OCRFailedPages) > 0:
		out = append(out, Warning{
			FileName: md.FileName,
			Kind:     WarnOCRDegraded,
			Message:  fmt.Sprintf("OCR timed out or failed on pages %s; content may be missing", joinInts(md.OCRFailedPages)),
			Pages:    md.OCRFailedPages,
		})
	case ocr.IsFailureMarker(doc.Content):
		out = append(out, Warning{
			FileName: md.FileName,
			Kind:     WarnOCRDegraded,
			Message:  "content contains OCR failure markers",
		})
	}
	if strings.TrimSpace(doc.Content) == "" {
		out = append(out, Warning{
			FileName: md.FileName,
			Kind:     WarnEmptyContent,
			Message:  "no text extracted",
		})
	}
	return out
}

func labelled(label string, ws []Warning) []Warning {
	for i := range ws {
		ws[i].Label = label
	}
	return ws
}

func joinInts(xs []int) string {
	s := make([]string, len(xs))
	for i, x := range xs {
		s[i] = fmt.Sprint(x)
	}
	return strings.Join(s, ", ")
}
