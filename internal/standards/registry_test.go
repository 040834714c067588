package standards

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bid-docs/constants"
	"github.com/joseph-ayodele/bid-docs/internal/common"
	"github.com/joseph-ayodele/bid-docs/internal/extract"
	"github.com/joseph-ayodele/bid-docs/internal/repository"
)

// stubParser returns the file's own bytes as content.
type stubParser struct{}

func (stubParser) Parse(_ context.Context, path string) (extract.ParsedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.ParsedDocument{}, err
	}
	return extract.ParsedDocument{
		Content:  string(data),
		Metadata: extract.Metadata{Type: constants.PDF, FileName: filepath.Base(path)},
	}, nil
}

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := repository.Open(context.Background(), common.DatabaseConfig{
		Driver: repository.DriverSQLite,
		DSN:    filepath.Join(dir, "standards.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	storage := filepath.Join(dir, "storage")
	return NewRegistry(repository.NewStandardRepository(db, nil), stubParser{}, storage, nil), storage
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistryAdd(t *testing.T) {
	ctx := context.Background()
	reg, storage := newTestRegistry(t)
	src := t.TempDir()

	path := writeFile(t, src, "50328-2014 建设工程文件归档规范.pdf", "GB/T 50328-2014\n"+strings.Repeat("条文", 400))
	std, err := reg.Add(ctx, path, "")
	require.NoError(t, err)

	assert.Equal(t, "GB/T 50328-2014", std.Code)
	assert.Equal(t, string(constants.NationalStandard), std.Category)
	assert.Equal(t, "50328-2014 建设工程文件归档规范", std.Name)
	assert.Equal(t, "PDF", std.FileType)
	assert.Equal(t, filepath.Join(storage, "GB_T 50328-2014.pdf"), std.StoredPath)
	assert.FileExists(t, std.StoredPath)
	assert.Len(t, []rune(std.Preview), PreviewRunes)
	assert.Len(t, std.FileHash, 64)

	got, err := reg.Get(ctx, std.ID)
	require.NoError(t, err)
	assert.Equal(t, std.Code, got.Code)

	content, err := reg.Content(ctx, std.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(content, "GB/T 50328-2014"))
}

func TestRegistryAddRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	src := t.TempDir()

	first := writeFile(t, src, "JGJ59-2011 安全检查标准.pdf", "检查标准正文")
	_, err := reg.Add(ctx, first, "")
	require.NoError(t, err)

	sameBytes := writeFile(t, src, "copy.pdf", "检查标准正文")
	_, err = reg.Add(ctx, sameBytes, "")
	require.ErrorIs(t, err, common.ErrDuplicate)
	assert.Contains(t, err.Error(), "文件已存在")

	sameCode := writeFile(t, src, "JGJ59-2011 修订版.docx", "不同内容")
	_, err = reg.Add(ctx, sameCode, "")
	require.ErrorIs(t, err, common.ErrDuplicate)
	assert.Contains(t, err.Error(), "标准编号已存在")
}

func TestRegistryAddFallsBackToStem(t *testing.T) {
	reg, _ := newTestRegistry(t)
	path := writeFile(t, t.TempDir(), "企业技术要求.xlsx", "无编号")

	std, err := reg.Add(context.Background(), path, "技术要求")
	require.NoError(t, err)
	assert.Equal(t, "企业技术要求", std.Code)
	assert.Equal(t, "技术要求", std.Name)
	assert.Equal(t, string(constants.OtherStandard), std.Category)
}

func TestRegistryAddErrors(t *testing.T) {
	reg, _ := newTestRegistry(t)
	dir := t.TempDir()

	_, err := reg.Add(context.Background(), writeFile(t, dir, "notes.txt", "x"), "")
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)

	_, err = reg.Add(context.Background(), filepath.Join(dir, "missing.pdf"), "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRegistryListAndDelete(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	src := t.TempDir()

	gb, err := reg.Add(ctx, writeFile(t, src, "GB50010-2010.pdf", "混凝土"), "")
	require.NoError(t, err)
	_, err = reg.Add(ctx, writeFile(t, src, "北京地标.pdf", "DB11/T 695-2009 北京"), "")
	require.NoError(t, err)

	all, err := reg.List(ctx, constants.AllCategoriesLabel)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	local, err := reg.List(ctx, "地标")
	require.NoError(t, err)
	require.Len(t, local, 1)
	assert.Equal(t, "DB11/T 695-2009", local[0].Code)

	_, err = reg.List(ctx, "unknown")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	stats, err := reg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByCategory[string(constants.LocalStandard)])
	assert.Equal(t, 0, stats.ByCategory[string(constants.IndustryStandard)])

	found, err := reg.Search(ctx, "50010")
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, reg.Delete(ctx, gb.ID))
	assert.NoFileExists(t, gb.StoredPath)
	assert.ErrorIs(t, reg.Delete(ctx, gb.ID), common.ErrNotFound)
}

func TestImportDirectory(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	root := t.TempDir()

	writeFile(t, root, "GB50010-2010.pdf", "混凝土结构")
	writeFile(t, root, "sub/JGJ3-2010.docx", "高层建筑")
	writeFile(t, root, "sub/dup.pdf", "混凝土结构")
	writeFile(t, root, "readme.txt", "ignored")
	writeFile(t, root, ".hidden/GB1-2000.pdf", "hidden")

	results, stats, err := reg.ImportDirectory(ctx, root, true)
	require.NoError(t, err)

	assert.Equal(t, uint32(4), stats.Scanned)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Duplicates)
	assert.Equal(t, uint32(0), stats.Failed)
	assert.Len(t, results, 3)

	_, _, err = reg.ImportDirectory(ctx, filepath.Join(root, "missing"), true)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
