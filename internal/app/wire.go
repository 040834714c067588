// Package app assembles the components shared by the binaries from the
// loaded configuration.
package app

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/bid-docs/internal/common"
	"github.com/joseph-ayodele/bid-docs/internal/extract"
	"github.com/joseph-ayodele/bid-docs/internal/ocr"
	"github.com/joseph-ayodele/bid-docs/internal/pipeline"
	"github.com/joseph-ayodele/bid-docs/internal/repository"
	"github.com/joseph-ayodele/bid-docs/internal/standards"
)

// NewParser builds the document parser, with an OCR engine when enabled.
func NewParser(cfg *common.Config, logger *slog.Logger) *extract.Parser {
	var recognizer extract.PageRecognizer
	if cfg.OCR.Enabled {
		recognizer = ocr.NewEngine(ocr.ConfigFrom(cfg.OCR), logger)
	}
	return extract.NewParser(extract.OptionsFromConfig(cfg), recognizer, logger)
}

// NewProcessor builds the batch preparation pipeline over parser.
func NewProcessor(cfg *common.Config, parser pipeline.DocumentParser, logger *slog.Logger) *pipeline.Processor {
	return pipeline.NewProcessor(parser, logger, pipeline.WithWorkers(cfg.Pipeline.Workers))
}

// OpenRegistry opens the standards database and returns the registry with
// the database handle the caller must close.
func OpenRegistry(ctx context.Context, cfg *common.Config, parser standards.DocumentParser, logger *slog.Logger) (*standards.Registry, *repository.DB, error) {
	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.HealthCheck(ctx, cfg.Database.DialTimeout); err != nil {
		db.Close()
		return nil, nil, err
	}
	repo := repository.NewStandardRepository(db, logger)
	return standards.NewRegistry(repo, parser, cfg.Standards.StorageDir, logger), db, nil
}
