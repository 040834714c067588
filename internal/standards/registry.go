// Package standards keeps a registry of national, industry and local
// specification documents that bid reviews are checked against.
package standards

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bid-docs/constants"
	"github.com/joseph-ayodele/bid-docs/internal/common"
	"github.com/joseph-ayodele/bid-docs/internal/extract"
	"github.com/joseph-ayodele/bid-docs/internal/repository"
)

// PreviewRunes is the length of the content preview kept per standard.
const PreviewRunes = 500

// DocumentParser turns a file into text.
type DocumentParser interface {
	Parse(ctx context.Context, path string) (extract.ParsedDocument, error)
}

// Stats summarizes the registry by category.
type Stats struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
}

// Registry registers standard files: it dedupes by content hash, derives
// the code and category, copies the file into storage and records it.
type Registry struct {
	repo       repository.StandardRepository
	parser     DocumentParser
	storageDir string
	logger     *slog.Logger

	// serializes the check-copy-insert sequence
	mu sync.Mutex
}

func NewRegistry(repo repository.StandardRepository, parser DocumentParser, storageDir string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		repo:       repo,
		parser:     parser,
		storageDir: storageDir,
		logger:     logger,
	}
}

// Add registers the file at path. name overrides the display name, which
// otherwise defaults to the file stem.
func (r *Registry) Add(ctx context.Context, path, name string) (*repository.Standard, error) {
	start := time.Now()
	format := constants.MapExtToFormat(filepath.Ext(path))
	if format == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, filepath.Ext(path))
	}

	hash, size, err := hashFile(path)
	if err != nil {
		return nil, err
	}
	if err := r.checkHash(ctx, hash); err != nil {
		return nil, err
	}

	doc, err := r.parser.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	if doc.Metadata.Failed() {
		r.logger.Warn("standard content could not be extracted", "path", path, "error", doc.Metadata.Error)
	}

	fileName := filepath.Base(path)
	code := ExtractCode(fileName, doc.Content)
	if code == "" {
		code = stem(fileName)
	}
	if strings.TrimSpace(name) == "" {
		name = stem(fileName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkHash(ctx, hash); err != nil {
		return nil, err
	}
	if _, err := r.repo.GetByCode(ctx, code); err == nil {
		return nil, fmt.Errorf("%w: 标准编号已存在: %s", common.ErrDuplicate, code)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	dest := filepath.Join(r.storageDir, SafeCode(code)+filepath.Ext(fileName))
	if err := copyFile(path, dest); err != nil {
		return nil, err
	}

	std := &repository.Standard{
		ID:         uuid.New(),
		Code:       code,
		Name:       name,
		Category:   string(constants.CategorizeCode(code)),
		FileName:   fileName,
		FileType:   string(format),
		StoredPath: dest,
		FileHash:   hash,
		FileSize:   size,
		Preview:    preview(doc.Content),
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.repo.Create(ctx, std); err != nil {
		if rmErr := os.Remove(dest); rmErr != nil {
			r.logger.Warn("failed to remove stored copy", "path", dest, "error", rmErr)
		}
		return nil, err
	}

	r.logger.Info("standards.add.ok",
		"id", std.ID, "code", std.Code, "category", std.Category,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return std, nil
}

func (r *Registry) checkHash(ctx context.Context, hash string) error {
	existing, err := r.repo.GetByHash(ctx, hash)
	if err == nil {
		return fmt.Errorf("%w: 文件已存在: %s - %s", common.ErrDuplicate, existing.Code, existing.Name)
	}
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}

// List returns standards in category; "" and the all-categories label list
// everything. Category synonyms such as "gb" or "行标" are accepted.
func (r *Registry) List(ctx context.Context, category string) ([]*repository.Standard, error) {
	category = strings.TrimSpace(category)
	if category == "" || category == constants.AllCategoriesLabel {
		return r.repo.List(ctx, "")
	}
	cat, ok := constants.Canonicalize(category)
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", common.ErrInvalidInput, category)
	}
	return r.repo.List(ctx, string(cat))
}

func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*repository.Standard, error) {
	return r.repo.GetByID(ctx, id)
}

func (r *Registry) Search(ctx context.Context, keyword string) ([]*repository.Standard, error) {
	return r.repo.Search(ctx, strings.TrimSpace(keyword))
}

// Content re-parses the stored copy and returns its full text.
func (r *Registry) Content(ctx context.Context, id uuid.UUID) (string, error) {
	std, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	doc, err := r.parser.Parse(ctx, std.StoredPath)
	if err != nil {
		return "", err
	}
	return doc.Content, nil
}

// Delete removes the record and its stored copy.
func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	std, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := os.Remove(std.StoredPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.logger.Error("failed to remove stored standard", "path", std.StoredPath, "error", err)
		return fmt.Errorf("remove %s: %w", std.StoredPath, err)
	}
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.logger.Info("standards.delete.ok", "id", id, "code", std.Code)
	return nil
}

func (r *Registry) Stats(ctx context.Context) (Stats, error) {
	counts, err := r.repo.CountByCategory(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{ByCategory: make(map[string]int)}
	for _, cat := range constants.AsStringSlice() {
		st.ByCategory[cat] = counts[cat]
		st.Total += counts[cat]
	}
	return st, nil
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", 0, fmt.Errorf("%w: %s", common.ErrNotFound, path)
		}
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// copyFile writes src to dst through a temp file in dst's directory.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func preview(content string) string {
	r := []rune(content)
	if len(r) <= PreviewRunes {
		return content
	}
	return string(r[:PreviewRunes])
}
