package extract

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bid-docs/constants"
)

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>投标须知</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t xml:space="preserve">第一条 </w:t></w:r><w:r><w:t>总则</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t> 项目 </w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>金额</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>土建</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>1000</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:sectPr/>
</w:body>
</w:document>`

func writeDocx(t *testing.T, dir, name, documentXML string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestWordExtract(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "须知.docx", sampleDocumentXML)

	got, err := NewWordExtractor(nil).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "投标须知\n第一条 总则\n\n--- 表格内容 ---\n\n表格 1:\n项目 | 金额\n土建 | 1000", got.Content)
	assert.Equal(t, constants.Word, got.Metadata.Type)
	assert.Equal(t, "须知.docx", got.Metadata.FileName)
	assert.Equal(t, 3, got.Metadata.Paragraphs)
	assert.Equal(t, 1, got.Metadata.TablesCount)
}

func TestWordWithoutTables(t *testing.T) {
	xml := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>甲</w:t><w:tab/><w:t>乙</w:t></w:r></w:p></w:body></w:document>`
	path := writeDocx(t, t.TempDir(), "a.docx", xml)

	got, err := NewWordExtractor(nil).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "甲\t乙", got.Content)
	assert.Zero(t, got.Metadata.TablesCount)
}

func TestWordMissingDocumentPart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, zip.NewWriter(f).Close())
	require.NoError(t, f.Close())

	_, err = NewWordExtractor(nil).Extract(context.Background(), path)
	assert.ErrorContains(t, err, "word/document.xml not found")
}
