package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/bid-docs/constants"
	"github.com/joseph-ayodele/bid-docs/internal/ocr"
)

// pdfDocument is the slice of a PDF engine the extractor needs. Page indexes
// are 0-based.
type pdfDocument interface {
	NumPage() int
	Text(i int) (string, error)
	HTML(i int) (string, error)
	RenderPNG(i int, dpi float64) ([]byte, error)
	Close() error
}

type (
	pdfOpener      func(path string) (pdfDocument, error)
	imageInspector func(path string) ([]int, error)
)

// PDFExtractor reads the native text layer page by page and falls back to OCR
// for pages that look scanned.
type PDFExtractor struct {
	opts    Options
	ocr     PageRecognizer
	open    pdfOpener
	inspect imageInspector
	logger  *slog.Logger
}

// NewPDFExtractor returns a MuPDF-backed extractor. A nil recognizer disables
// OCR regardless of opts.
func NewPDFExtractor(opts Options, recognizer PageRecognizer, logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{
		opts:    opts.withDefaults(),
		ocr:     recognizer,
		open:    openFitz,
		inspect: imagePagesPDFCPU,
		logger:  logger,
	}
}

func (x *PDFExtractor) Extract(ctx context.Context, path string) (ParsedDocument, error) {
	doc, err := x.open(path)
	if err != nil {
		return ParsedDocument{}, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = doc.Close() }()

	md := Metadata{
		Type:     constants.PDF,
		FileName: filepath.Base(path),
		Pages:    doc.NumPage(),
	}
	log := x.logger.With("path", path)

	// Image inspection parses the whole file again, so it runs only once a
	// page actually needs OCR.
	var (
		images            []int
		inspected, checked bool
	)

	var blocks []string
	for i := 0; i < md.Pages; i++ {
		if err := ctx.Err(); err != nil {
			return ParsedDocument{}, err
		}
		n := i + 1

		text, err := doc.Text(i)
		if err != nil {
			log.Debug("pdf text layer unreadable", "page", n, "error", err)
			text = ""
		}

		if x.isScanned(text) && x.ocrEnabled() {
			if !checked {
				images, inspected = x.imagePages(path)
				md.ImagePages = images
				checked = true
			}
			if inspected && !slices.Contains(images, n) {
				log.Debug("scanned page has no images, skipping ocr", "page", n)
			} else {
				res := x.ocr.RecognizePage(ctx, pdfPage{doc: doc, index: i})
				if res.Status == ocr.StatusOK {
					md.OCRPages++
				} else {
					md.OCRFailedPages = append(md.OCRFailedPages, n)
				}
				text = res.Text
			}
		}

		if x.opts.ExtractTables {
			for j, grid := range x.pageTables(doc, i) {
				md.Tables = append(md.Tables, TableRecord{Page: n, Data: grid})
				text += fmt.Sprintf("\n\n[表格 %d]\n%s", j+1, Flatten(grid))
			}
		}

		if strings.TrimSpace(text) != "" {
			blocks = append(blocks, fmt.Sprintf("--- 第 %d 页 ---\n%s", n, text))
		}
	}

	md.TablesCount = len(md.Tables)
	slices.Sort(md.OCRFailedPages)
	return ParsedDocument{Content: strings.Join(blocks, "\n\n"), Metadata: md}, nil
}

func (x *PDFExtractor) isScanned(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < x.opts.ScannedPageThreshold
}

func (x *PDFExtractor) ocrEnabled() bool {
	return x.opts.EnableOCR && x.ocr != nil
}

func (x *PDFExtractor) imagePages(path string) ([]int, bool) {
	if x.inspect == nil {
		return nil, false
	}
	pages, err := x.inspect(path)
	if err != nil {
		x.logger.Debug("pdf image inspection failed", "path", path, "error", err)
		return nil, false
	}
	return pages, true
}

// pageTables never fails: any error yields no tables.
func (x *PDFExtractor) pageTables(doc pdfDocument, i int) []TableGrid {
	page, err := doc.HTML(i)
	if err != nil {
		x.logger.Debug("pdf layout unavailable", "page", i+1, "error", err)
		return nil
	}
	tables, err := DetectTables(page)
	if err != nil {
		x.logger.Debug("table detection failed", "page", i+1, "error", err)
		return nil
	}
	return tables
}
