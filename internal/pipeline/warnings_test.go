package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bid-docs/constants"
	"github.com/joseph-ayodele/bid-docs/internal/extract"
	"github.com/joseph-ayodele/bid-docs/internal/ocr"
)

func TestWarnings(t *testing.T) {
	t.Run("clean document", func(t *testing.T) {
		assert.Empty(t, Warnings(extract.ParsedDocument{Content: "正文", Metadata: extract.Metadata{Type: constants.Word}}))
	})

	t.Run("extraction failure", func(t *testing.T) {
		ws := Warnings(extract.ParsedDocument{Metadata: extract.Metadata{Type: constants.Excel, FileName: "a.xls", Error: "bad"}})
		require.Len(t, ws, 1)
		assert.Equal(t, WarnExtractionFailed, ws[0].Kind)
		assert.Equal(t, "a.xls: extraction failed: bad", ws[0].String())
	})

	t.Run("ocr failed pages", func(t *testing.T) {
		ws := Warnings(extract.ParsedDocument{
			Content:  ocr.FailureMarker(1) + "\n" + ocr.TimeoutMarker(4),
			Metadata: extract.Metadata{Type: constants.PDF, OCRFailedPages: []int{1, 4}},
		})
		require.Len(t, ws, 1)
		assert.Equal(t, WarnOCRDegraded, ws[0].Kind)
		assert.Equal(t, []int{1, 4}, ws[0].Pages)
		assert.Contains(t, ws[0].Message, "1, 4")
	})

	t.Run("marker without metadata", func(t *testing.T) {
		ws := Warnings(extract.ParsedDocument{Content: ocr.TimeoutMarker(2), Metadata: extract.Metadata{Type: constants.PDF}})
		require.Len(t, ws, 1)
		assert.Equal(t, WarnOCRDegraded, ws[0].Kind)
	})

	t.Run("empty content", func(t *testing.T) {
		ws := Warnings(extract.ParsedDocument{Metadata: extract.Metadata{Type: constants.PDF, Pages: 3}})
		require.Len(t, ws, 1)
		assert.Equal(t, WarnEmptyContent, ws[0].Kind)
	})
}
