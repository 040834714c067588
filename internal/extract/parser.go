package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/bid-docs/constants"
	"github.com/joseph-ayodele/bid-docs/internal/common"
)

// Options tunes extraction. Zero values fall back to the defaults below.
type Options struct {
	EnableOCR            bool
	ExtractTables        bool
	ScannedPageThreshold int   // runes of native text under which a page is scanned; default 30
	MaxFileSize          int64 // bytes; 0 = unlimited
}

const defaultScannedPageThreshold = 30

func (o Options) withDefaults() Options {
	if o.ScannedPageThreshold <= 0 {
		o.ScannedPageThreshold = defaultScannedPageThreshold
	}
	return o
}

// OptionsFromConfig maps application config onto extraction options.
func OptionsFromConfig(cfg *common.Config) Options {
	return Options{
		EnableOCR:            cfg.OCR.Enabled,
		ExtractTables:        cfg.Extract.ExtractTables,
		ScannedPageThreshold: cfg.OCR.ScannedPageThreshold,
		MaxFileSize:          cfg.Extract.MaxFileSize,
	}
}

// Parser dispatches a file to the extractor for its format. Missing and
// unsupported files are errors; anything that goes wrong inside an extractor
// is reported through Metadata.Error instead.
type Parser struct {
	opts       Options
	extractors map[constants.Format]Extractor
	logger     *slog.Logger
}

type ParserOption func(*Parser)

// WithExtractor replaces the extractor used for format.
func WithExtractor(format constants.Format, x Extractor) ParserOption {
	return func(p *Parser) { p.extractors[format] = x }
}

// NewParser wires the PDF, Word and Excel extractors. recognizer may be nil
// when OCR is not available.
func NewParser(opts Options, recognizer PageRecognizer, logger *slog.Logger, options ...ParserOption) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	p := &Parser{
		opts: opts,
		extractors: map[constants.Format]Extractor{
			constants.PDF:   NewPDFExtractor(opts, recognizer, logger),
			constants.Word:  NewWordExtractor(logger),
			constants.Excel: NewExcelExtractor(logger),
		},
		logger: logger,
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Detect maps path's extension onto a format.
func Detect(path string) (constants.Format, error) {
	ext := filepath.Ext(path)
	format := constants.MapExtToFormat(ext)
	if format == "" {
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, constants.NormalizeExt(ext))
	}
	return format, nil
}

// Parse extracts path. It fails only for a missing file, an unsupported
// extension or a cancelled context.
func (p *Parser) Parse(ctx context.Context, path string) (ParsedDocument, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ParsedDocument{}, fmt.Errorf("%w: %s", common.ErrNotFound, path)
		}
		return ParsedDocument{}, fmt.Errorf("%w: %v", common.ErrNotFound, err)
	}
	if st.IsDir() {
		return ParsedDocument{}, fmt.Errorf("%w: %s is a directory", common.ErrInvalidInput, path)
	}
	format, err := Detect(path)
	if err != nil {
		return ParsedDocument{}, err
	}

	log := p.logger.With("path", path, "format", string(format))
	if p.opts.MaxFileSize > 0 && st.Size() > p.opts.MaxFileSize {
		err := fmt.Errorf("file size %d exceeds limit %d", st.Size(), p.opts.MaxFileSize)
		log.Warn("extract.parse.failed", "error", err)
		return failedDocument(format, path, err), nil
	}

	start := time.Now()
	doc, err := p.extract(ctx, p.extractors[format], path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ParsedDocument{}, ctxErr
		}
		log.Warn("extract.parse.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return failedDocument(format, path, err), nil
	}
	log.Info("extract.parse.ok",
		"chars", len([]rune(doc.Content)),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// extract runs x and turns a panic inside a format library into an error.
func (p *Parser) extract(ctx context.Context, x Extractor, path string) (doc ParsedDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return x.Extract(ctx, path)
}

func failedDocument(format constants.Format, path string, err error) ParsedDocument {
	return ParsedDocument{
		Metadata: Metadata{
			Type:     format,
			FileName: filepath.Base(path),
			Error:    err.Error(),
		},
	}
}
