package extract

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/bid-docs/constants"
)

// Extractor turns one file of a known format into text plus metadata.
type Extractor interface {
	Extract(ctx context.Context, path string) (ParsedDocument, error)
}

// ParsedDocument is the result of parsing one file. Format-internal failures
// leave Content empty and set Metadata.Error.
type ParsedDocument struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Metadata describes what was extracted. Fields that do not apply to a format
// are left zero and omitted from JSON.
type Metadata struct {
	Type     constants.Format `json:"type"`
	FileName string           `json:"file_name,omitempty"`

	// PDF
	Pages          int           `json:"pages,omitempty"`
	OCRPages       int           `json:"ocr_pages,omitempty"`
	OCRFailedPages []int         `json:"ocr_failed_pages,omitempty"`
	ImagePages     []int         `json:"image_pages,omitempty"`
	Tables         []TableRecord `json:"tables,omitempty"`

	// PDF and Word
	TablesCount int `json:"tables_count,omitempty"`

	// Word
	Paragraphs int `json:"paragraphs,omitempty"`

	// Excel
	Sheets     int      `json:"sheets,omitempty"`
	SheetNames []string `json:"sheet_names,omitempty"`
	TotalRows  int      `json:"total_rows,omitempty"`

	Error string `json:"error,omitempty"`
}

// Failed reports whether extraction was recovered from an internal error.
func (m Metadata) Failed() bool { return m.Error != "" }

// TableGrid is a detected table. Rows may differ in length.
type TableGrid [][]string

// Width returns the length of the longest row.
func (g TableGrid) Width() int {
	w := 0
	for _, row := range g {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// TableRecord ties a table to the 1-based page it was found on.
type TableRecord struct {
	Page int       `json:"page"`
	Data TableGrid `json:"data"`
}

const cellSeparator = " | "

// Flatten renders a grid as text: trimmed cells joined by " | ", one row per
// line.
func Flatten(g TableGrid) string {
	rows := make([]string, len(g))
	for i, row := range g {
		rows[i] = joinCells(row)
	}
	return strings.Join(rows, "\n")
}

func joinCells(row []string) string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}
	return strings.Join(cells, cellSeparator)
}
