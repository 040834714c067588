package standards

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/bid-docs/constants"
	"github.com/joseph-ayodele/bid-docs/internal/common"
	"github.com/joseph-ayodele/bid-docs/internal/repository"
)

// ImportResult is the per-file outcome of a directory import.
type ImportResult struct {
	Path      string               `json:"path"`
	Standard  *repository.Standard `json:"standard,omitempty"`
	Duplicate bool                 `json:"duplicate,omitempty"`
	Err       string               `json:"error,omitempty"`
}

// DirStats summarizes a directory import.
type DirStats struct {
	Scanned    uint32 `json:"scanned"`
	Matched    uint32 `json:"matched"`
	Succeeded  uint32 `json:"succeeded"`
	Duplicates uint32 `json:"duplicates"`
	Failed     uint32 `json:"failed"`
}

// ImportDirectory walks root and registers every supported file. Per-file
// failures are recorded in the results; only a cancelled context or an
// unusable root stop the walk.
func (r *Registry) ImportDirectory(ctx context.Context, root string, skipHidden bool) ([]ImportResult, DirStats, error) {
	var (
		results []ImportResult
		stats   DirStats
	)
	if strings.TrimSpace(root) == "" {
		return nil, stats, fmt.Errorf("%w: root is required", common.ErrInvalidInput)
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Scanned++
			results = append(results, ImportResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if path != root && skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if constants.MapExtToFormat(filepath.Ext(path)) == "" {
			return nil
		}
		stats.Matched++

		std, err := r.Add(ctx, path, "")
		switch {
		case err == nil:
			results = append(results, ImportResult{Path: path, Standard: std})
			stats.Succeeded++
		case errors.Is(err, common.ErrDuplicate):
			results = append(results, ImportResult{Path: path, Duplicate: true, Err: err.Error()})
			stats.Duplicates++
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			results = append(results, ImportResult{Path: path, Err: err.Error()})
			stats.Failed++
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %v", common.ErrNotFound, err)
		}
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	r.logger.Info("standards.import.ok",
		"root", root, "matched", stats.Matched, "succeeded", stats.Succeeded,
		"duplicates", stats.Duplicates, "failed", stats.Failed,
	)
	return results, stats, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
