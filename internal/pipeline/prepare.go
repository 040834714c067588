// Package pipeline is the caller side of extraction: it parses a set of
// labelled files, reports degraded results as warnings and fits the text
// into token-bounded batches.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/bid-docs/internal/common"
	"github.com/joseph-ayodele/bid-docs/internal/extract"
	"github.com/joseph-ayodele/bid-docs/internal/textproc"
)

// DocumentParser is satisfied by *extract.Parser.
type DocumentParser interface {
	Parse(ctx context.Context, path string) (extract.ParsedDocument, error)
}

// Input names one file by the category label it fills, e.g. "招标文件".
type Input struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Budget bounds what leaves the pipeline.
type Budget struct {
	CompressionRatio  float64 `json:"compression_ratio"`    // (0,1) compresses, anything else leaves text as is
	MaxTokensPerBatch int     `json:"max_tokens_per_batch"` // > 0
}

// BudgetFromConfig reads the budget section of the application config.
func BudgetFromConfig(cfg *common.Config) Budget {
	return Budget{
		CompressionRatio:  cfg.Budget.CompressionRatio,
		MaxTokensPerBatch: cfg.Budget.MaxTokensPerBatch,
	}
}

// Document is one parsed input.
type Document struct {
	Label  string                 `json:"label"`
	Path   string                 `json:"path"`
	Parsed extract.ParsedDocument `json:"parsed"`
	Tokens int                    `json:"tokens"`
}

// Prepared is the result of Prepare.
type Prepared struct {
	Documents   []Document       `json:"documents"`
	Batches     []textproc.Batch `json:"batches"`
	Warnings    []Warning        `json:"warnings,omitempty"`
	TotalTokens int              `json:"total_tokens"`
}

// Processor parses inputs concurrently and prepares them for a
// token-limited consumer.
type Processor struct {
	parser  DocumentParser
	workers int
	logger  *slog.Logger
}

type Option func(*Processor)

func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

func NewProcessor(parser DocumentParser, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{parser: parser, workers: 4, logger: logger}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ParseAll parses every input, up to the configured number at a time, and
// returns documents in input order. A missing or unsupported file aborts the
// whole call.
func (p *Processor) ParseAll(ctx context.Context, inputs []Input) ([]Document, error) {
	if err := validateInputs(inputs); err != nil {
		return nil, err
	}

	docs := make([]Document, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, in := range inputs {
		g.Go(func() error {
			parsed, err := p.parser.Parse(gctx, in.Path)
			if err != nil {
				return fmt.Errorf("%s: %w", in.Label, err)
			}
			docs[i] = Document{
				Label:  in.Label,
				Path:   in.Path,
				Parsed: parsed,
				Tokens: textproc.Estimate(parsed.Content),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Prepare parses inputs, collects warnings, compresses when the budget asks
// for it and splits the non-empty contents into batches.
func (p *Processor) Prepare(ctx context.Context, inputs []Input, budget Budget) (Prepared, error) {
	if budget.MaxTokensPerBatch <= 0 {
		return Prepared{}, fmt.Errorf("%w: max tokens per batch must be positive", common.ErrInvalidInput)
	}
	ctx, reqID := common.EnsureRequestID(ctx)
	log := p.logger.With("request_id", reqID)
	start := time.Now()

	docs, err := p.ParseAll(ctx, inputs)
	if err != nil {
		log.Error("pipeline.parse.failed", "error", err)
		return Prepared{}, err
	}
	log.Info("pipeline.parse.ok", "documents", len(docs), "elapsed_ms", time.Since(start).Milliseconds())

	out := Prepared{Documents: docs}
	var entries []textproc.Entry
	for i := range docs {
		d := &docs[i]
		out.Warnings = append(out.Warnings, labelled(d.Label, Warnings(d.Parsed))...)

		content := d.Parsed.Content
		if budget.CompressionRatio > 0 && budget.CompressionRatio < 1 && content != "" {
			content = textproc.Compress(content, budget.CompressionRatio)
			log.Debug("pipeline.compress", "label", d.Label, "before", d.Tokens, "after", textproc.Estimate(content))
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		entries = append(entries, textproc.Entry{Label: d.Label, Content: content})
	}

	batches, err := textproc.Split(entries, budget.MaxTokensPerBatch)
	if err != nil {
		return Prepared{}, err
	}
	out.Batches = batches
	for _, b := range batches {
		out.TotalTokens += b.Tokens
	}

	log.Info("pipeline.prepare.ok",
		"batches", len(batches),
		"total_tokens", out.TotalTokens,
		"warnings", len(out.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func validateInputs(inputs []Input) error {
	v := common.NewValidator()
	seen := make(map[string]struct{}, len(inputs))
	for i, in := range inputs {
		v.Field(fmt.Sprintf("inputs[%d].label", i), in.Label, common.Required)
		v.Field(fmt.Sprintf("inputs[%d].path", i), in.Path, common.Required)
		if _, dup := seen[in.Label]; dup && in.Label != "" {
			v.Field(fmt.Sprintf("inputs[%d].label", i), in.Label, func(field string, value interface{}) *common.ValidationError {
				return &common.ValidationError{Field: field, Value: value, Message: "is duplicated"}
			})
		}
		seen[in.Label] = struct{}{}
	}
	if v.HasErrors() {
		return fmt.Errorf("%w: %s", common.ErrInvalidInput, v.ErrorMessage())
	}
	return nil
}
