package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bid-docs/constants"
	"github.com/joseph-ayodele/bid-docs/internal/common"
)

type extractorFunc func(ctx context.Context, path string) (ParsedDocument, error)

func (f extractorFunc) Extract(ctx context.Context, path string) (ParsedDocument, error) {
	return f(ctx, path)
}

func touch(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		want constants.Format
	}{
		{"a.pdf", constants.PDF},
		{"B.PDF", constants.PDF},
		{"c.docx", constants.Word},
		{"d.doc", constants.Word},
		{"e.xlsx", constants.Excel},
		{"f.xls", constants.Excel},
	}
	for _, tt := range tests {
		got, err := Detect(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := Detect("notes.txt")
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
	_, err = Detect("README")
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestParseHardFailures(t *testing.T) {
	dir := t.TempDir()
	p := NewParser(Options{}, nil, nil)

	_, err := p.Parse(context.Background(), filepath.Join(dir, "missing.pdf"))
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.True(t, common.IsBlocking(err))

	txt := touch(t, dir, "notes.txt", []byte("hello"))
	_, err = p.Parse(context.Background(), txt)
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)

	_, err = p.Parse(context.Background(), dir)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParseRecoversExtractionFailures(t *testing.T) {
	dir := t.TempDir()
	p := NewParser(Options{}, nil, nil)

	tests := []struct {
		name string
		want constants.Format
	}{
		{"broken.xlsx", constants.Excel},
		{"legacy.xls", constants.Excel},
		{"broken.docx", constants.Word},
		{"legacy.doc", constants.Word},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := touch(t, dir, tt.name, []byte("definitely not an office file"))
			doc, err := p.Parse(context.Background(), path)
			require.NoError(t, err)
			assert.Empty(t, doc.Content)
			assert.Equal(t, tt.want, doc.Metadata.Type)
			assert.Equal(t, tt.name, doc.Metadata.FileName)
			assert.True(t, doc.Metadata.Failed())
		})
	}
}

func TestParseRecoversPanics(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "a.pdf", []byte("%PDF-1.4"))
	p := NewParser(Options{}, nil, nil, WithExtractor(constants.PDF, extractorFunc(
		func(ctx context.Context, path string) (ParsedDocument, error) { panic("cgo blew up") },
	)))

	doc, err := p.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, doc.Metadata.Error, "cgo blew up")
}

func TestParseCancelledContextIsReturned(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "a.pdf", []byte("%PDF-1.4"))
	p := NewParser(Options{}, nil, nil, WithExtractor(constants.PDF, extractorFunc(
		func(ctx context.Context, path string) (ParsedDocument, error) { return ParsedDocument{}, ctx.Err() },
	)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Parse(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseMaxFileSize(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "big.xlsx", make([]byte, 2048))
	p := NewParser(Options{MaxFileSize: 1024}, nil, nil)

	doc, err := p.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, doc.Metadata.Error, "exceeds limit")
}

func TestParseWorkbookEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "清单.xlsx")
	writeWorkbook(t, path)

	doc, err := NewParser(Options{}, nil, nil).Parse(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, doc.Metadata.Failed())
	assert.Contains(t, doc.Content, " 007 钢筋")
}
