package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/bid-docs/constants"
)

const (
	maxColWidth  = 100
	sheetBanner  = "=================================================="
	emptySheet   = "(空表)"
	clippedCell  = "..."
	columnSpacer = " "
)

// ExcelExtractor renders every sheet as a fixed-width text block. Cells are
// read as displayed strings, so "007" stays "007".
type ExcelExtractor struct {
	logger *slog.Logger
}

func NewExcelExtractor(logger *slog.Logger) *ExcelExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelExtractor{logger: logger}
}

func (x *ExcelExtractor) Extract(ctx context.Context, path string) (ParsedDocument, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ParsedDocument{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			x.logger.Warn("failed to close workbook", "path", path, "error", err)
		}
	}()

	sheets := f.GetSheetList()
	var (
		content   []string
		totalRows int
	)
	for _, name := range sheets {
		if err := ctx.Err(); err != nil {
			return ParsedDocument{}, err
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return ParsedDocument{}, fmt.Errorf("read sheet %q: %w", name, err)
		}
		rows = dropBlankRows(rows)

		content = append(content, "\n"+sheetBanner, "工作表: "+name, sheetBanner)
		if len(rows) < 2 {
			content = append(content, emptySheet)
			continue
		}
		content = append(content, renderSheet(rows))
		totalRows += len(rows) - 1
	}

	return ParsedDocument{
		Content: strings.Join(content, "\n"),
		Metadata: Metadata{
			Type:       constants.Excel,
			FileName:   filepath.Base(path),
			Sheets:     len(sheets),
			SheetNames: sheets,
			TotalRows:  totalRows,
		},
	}, nil
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// renderSheet lays rows out as right-aligned columns sized by display width.
// The first row is the header; blank header cells become "Unnamed: i".
func renderSheet(rows [][]string) string {
	width := TableGrid(rows).Width()

	grid := make([][]string, len(rows))
	for r, row := range rows {
		cells := make([]string, width)
		for c := 0; c < width; c++ {
			if c < len(row) {
				cells[c] = clipCell(row[c])
			}
			if r == 0 && strings.TrimSpace(cells[c]) == "" {
				cells[c] = fmt.Sprintf("Unnamed: %d", c)
			}
		}
		grid[r] = cells
	}

	colWidth := make([]int, width)
	for _, row := range grid {
		for c, cell := range row {
			if w := runewidth.StringWidth(cell); w > colWidth[c] {
				colWidth[c] = w
			}
		}
	}

	lines := make([]string, len(grid))
	for r, row := range grid {
		padded := make([]string, width)
		for c, cell := range row {
			padded[c] = strings.Repeat(" ", colWidth[c]-runewidth.StringWidth(cell)) + cell
		}
		lines[r] = strings.Join(padded, columnSpacer)
	}
	return strings.Join(lines, "\n")
}

// clipCell flattens line breaks and cuts cells longer than maxColWidth runes.
func clipCell(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	runes := []rune(s)
	if len(runes) <= maxColWidth {
		return s
	}
	return string(runes[:maxColWidth-len(clippedCell)]) + clippedCell
}
