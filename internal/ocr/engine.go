// Package ocr recognizes text on scanned pages. Every call is bounded by a
// deadline; failures never propagate and instead come back as marker text
// naming the page.
package ocr

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/joseph-ayodele/bid-docs/internal/common"
)

const baseDPI = 72.0

// Page is a document page that can be rasterized.
type Page interface {
	Number() int // 1-based
	RenderPNG(dpi float64) ([]byte, error)
}

// RecognizerFactory builds the recognizer on first use.
type RecognizerFactory func() (Recognizer, error)

type Config struct {
	Timeout       time.Duration // per page, default 30s
	RenderScale   float64       // upscale over 72 DPI, default 2
	MinConfidence float64       // fragments below are dropped; 0 keeps everything
	MaxConcurrent int64         // recognitions in flight, default 2
	Tesseract     TesseractConfig
}

// Result is the outcome of one page. On timeout or failure Text holds the
// matching marker.
type Result struct {
	Text    string
	Status  Status
	Elapsed time.Duration
}

// Engine owns one lazily built recognizer and bounds every call in time.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	factory RecognizerFactory
	sem     *semaphore.Weighted

	once   sync.Once
	rec    Recognizer
	recErr error
}

// NewEngine returns an engine backed by the tesseract CLI.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	tcfg := cfg.Tesseract
	return NewEngineWithFactory(cfg, func() (Recognizer, error) {
		return NewTesseract(tcfg, nil, logger)
	}, logger)
}

// NewEngineWithFactory returns an engine using a custom recognizer.
func NewEngineWithFactory(cfg Config, factory RecognizerFactory, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RenderScale <= 0 {
		cfg.RenderScale = 2
	}
	if cfg.MinConfidence < 0 {
		cfg.MinConfidence = 0
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	return &Engine{
		cfg:     cfg,
		logger:  logger,
		factory: factory,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// Recognize returns the page text, or a marker when recognition timed out or
// failed.
func (e *Engine) Recognize(ctx context.Context, page Page) string {
	return e.RecognizePage(ctx, page).Text
}

// RecognizePage renders page, runs the recognizer on its own goroutine and
// waits at most the configured timeout, counted from before the wait for a
// free slot. A late result is discarded, the worker's context is cancelled and
// its slot is handed back at once, so a recognizer that ignores cancellation
// cannot starve later pages.
func (e *Engine) RecognizePage(ctx context.Context, page Page) Result {
	start := time.Now()
	n := page.Number()
	log := e.logger.With("page", n)

	fail := func(msg string, err error) Result {
		log.Warn(msg, "error", err)
		return Result{Text: FailureMarker(n), Status: StatusFailed, Elapsed: time.Since(start)}
	}
	timedOut := func() Result {
		log.Warn("ocr timed out", "timeout", e.cfg.Timeout)
		return Result{Text: TimeoutMarker(n), Status: StatusTimeout, Elapsed: time.Since(start)}
	}

	rec, err := e.recognizer()
	if err != nil {
		return fail("ocr recognizer unavailable", err)
	}
	png, err := page.RenderPNG(baseDPI * e.cfg.RenderScale)
	if err != nil {
		return fail("ocr render failed", err)
	}

	waitCtx, stop := context.WithTimeout(ctx, e.cfg.Timeout)
	defer stop()
	if err := e.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return fail("ocr cancelled before start", ctx.Err())
		}
		return timedOut()
	}
	release := sync.OnceFunc(func() { e.sem.Release(1) })

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		frags []Fragment
		err   error
	}
	done := make(chan outcome, 1) // buffered so an abandoned worker never blocks
	go func() {
		defer release()
		frags, err := rec.Recognize(workCtx, png)
		done <- outcome{frags, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return fail("ocr failed", out.err)
		}
		text := e.assemble(out.frags)
		log.Debug("ocr ok", "fragments", len(out.frags), "chars", len([]rune(text)), "elapsed_ms", time.Since(start).Milliseconds())
		return Result{Text: text, Status: StatusOK, Elapsed: time.Since(start)}
	case <-waitCtx.Done():
		release()
		if ctx.Err() != nil {
			return fail("ocr cancelled", ctx.Err())
		}
		return timedOut()
	}
}

func (e *Engine) recognizer() (Recognizer, error) {
	e.once.Do(func() {
		e.rec, e.recErr = e.factory()
		if e.recErr == nil {
			e.logger.Info("ocr recognizer ready")
		}
	})
	return e.rec, e.recErr
}

func (e *Engine) assemble(frags []Fragment) string {
	var (
		lines []string
		words []string
		cur   = -1
	)
	flush := func() {
		if len(words) > 0 {
			lines = append(lines, joinWords(words))
			words = words[:0]
		}
	}
	for _, f := range frags {
		if f.Confidence < e.cfg.MinConfidence {
			continue
		}
		if f.Line != cur {
			flush()
			cur = f.Line
		}
		words = append(words, f.Text)
	}
	flush()
	return Normalize(strings.Join(lines, "\n"))
}

// ConfigFrom maps the application's OCR section onto engine settings.
func ConfigFrom(c common.OCRConfig) Config {
	return Config{
		Timeout:       c.Timeout,
		RenderScale:   c.RenderScale,
		MinConfidence: c.MinConfidence,
		MaxConcurrent: c.MaxConcurrent,
		Tesseract: TesseractConfig{
			Binary:      c.Tesseract,
			Lang:        c.TesseractLang,
			TessdataDir: c.TessdataDir,
			PSM:         c.PSM,
			OEM:         c.OEM,
		},
	}
}
