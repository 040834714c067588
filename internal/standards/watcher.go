package standards

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/bid-docs/constants"
	"github.com/joseph-ayodele/bid-docs/internal/common"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // emit files already present under the roots
	Debounce    time.Duration // coalesce rapid create/write bursts
}

// Watch emits paths of supported files that appear or change under the
// roots. Both channels are closed when ctx is done.
func Watch(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher start failed: no roots provided")
		return nil, nil, errors.New("no roots provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	pending := map[string]struct{}{}
	for _, root := range cfg.Roots {
		if err := addTree(w, root, cfg.InitialScan, pending); err != nil {
			logger.Error("failed to add root directory", "root", root, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	evCh := make(chan string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", "error", err)
			}
		}()

		flush := func() bool {
			for _, p := range slices.Sorted(maps.Keys(pending)) {
				delete(pending, p)
				select {
				case evCh <- p:
				case <-ctx.Done():
					return false
				}
			}
			return true
		}
		if !flush() {
			return
		}

		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
						// a moved-in directory may already hold files
						if err := addTree(w, e.Name, true, pending); err != nil {
							logger.Warn("failed to add new directory to watcher", "path", e.Name, "error", err)
						}
					}
				}
				if watchable(e.Name) && (e.Has(fsnotify.Create) || e.Has(fsnotify.Write) || e.Has(fsnotify.Rename)) {
					pending[e.Name] = struct{}{}
				}
				if len(pending) == 0 {
					continue
				}
				if cfg.Debounce <= 0 {
					if !flush() {
						return
					}
					continue
				}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					timer.Reset(cfg.Debounce)
				}
				timerC = timer.C
			case <-timerC:
				timerC = nil
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// addTree watches root and its subdirectories; with scan set, supported
// files found on the way are added to pending.
func addTree(w *fsnotify.Watcher, root string, scan bool, pending map[string]struct{}) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if scan && watchable(path) {
			pending[path] = struct{}{}
		}
		return nil
	})
}

// watchable skips hidden files such as editor locks and partial uploads.
func watchable(path string) bool {
	return !isHidden(path) && constants.MapExtToFormat(filepath.Ext(path)) != ""
}

// InboxHandler receives one discovered file.
type InboxHandler func(ctx context.Context, path string) error

// RunInbox feeds every path from events to handle until events closes or
// ctx is done. Handler errors are logged and do not stop the loop;
// duplicates are expected when a file is rewritten in place.
func RunInbox(ctx context.Context, events <-chan string, errs <-chan error, handle InboxHandler, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("inbox watcher error", "error", err)
		case path, ok := <-events:
			if !ok {
				return
			}
			if err := handle(ctx, path); err != nil {
				if errors.Is(err, common.ErrDuplicate) {
					logger.Info("inbox file already registered", "path", path)
					continue
				}
				logger.Error("inbox file failed", "path", path, "error", err)
			}
		}
	}
}
