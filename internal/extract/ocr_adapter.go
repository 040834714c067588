package extract

import (
	"context"

	"github.com/joseph-ayodele/bid-docs/internal/ocr"
)

// PageRecognizer runs OCR on one page. *ocr.Engine satisfies it.
type PageRecognizer interface {
	RecognizePage(ctx context.Context, page ocr.Page) ocr.Result
}

var _ PageRecognizer = (*ocr.Engine)(nil)

// pdfPage exposes one page of an open PDF to the OCR engine.
type pdfPage struct {
	doc   pdfDocument
	index int // 0-based
}

func (p pdfPage) Number() int { return p.index + 1 }

func (p pdfPage) RenderPNG(dpi float64) ([]byte, error) {
	return p.doc.RenderPNG(p.index, dpi)
}
