package extract

import (
	"github.com/gen2brain/go-fitz"
)

// fitzDocument is the MuPDF-backed pdfDocument.
type fitzDocument struct {
	doc *fitz.Document
}

func openFitz(path string) (pdfDocument, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return fitzDocument{doc: doc}, nil
}

func (f fitzDocument) NumPage() int { return f.doc.NumPage() }

func (f fitzDocument) Text(i int) (string, error) { return f.doc.Text(i) }

func (f fitzDocument) HTML(i int) (string, error) { return f.doc.HTML(i, false) }

func (f fitzDocument) RenderPNG(i int, dpi float64) ([]byte, error) {
	return f.doc.ImagePNG(i, dpi)
}

func (f fitzDocument) Close() error { return f.doc.Close() }
