// Package server exposes parsing, batching and the standards registry over
// gRPC with a JSON codec.
package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/bid-docs/internal/common"
	"github.com/joseph-ayodele/bid-docs/internal/pipeline"
	"github.com/joseph-ayodele/bid-docs/internal/repository"
	"github.com/joseph-ayodele/bid-docs/internal/textproc"
)

// StandardsRegistry is the part of *standards.Registry the service uses.
type StandardsRegistry interface {
	Add(ctx context.Context, path, name string) (*repository.Standard, error)
	List(ctx context.Context, category string) ([]*repository.Standard, error)
	Search(ctx context.Context, keyword string) ([]*repository.Standard, error)
}

type IngestService struct {
	parser    pipeline.DocumentParser
	processor *pipeline.Processor
	registry  StandardsRegistry
	budget    pipeline.Budget
	logger    *slog.Logger
}

// NewIngestService wires the service. registry may be nil, in which case
// the standards methods report Unavailable.
func NewIngestService(parser pipeline.DocumentParser, processor *pipeline.Processor, registry StandardsRegistry, budget pipeline.Budget, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		parser:    parser,
		processor: processor,
		registry:  registry,
		budget:    budget,
		logger:    logger,
	}
}

var _ IngestServer = (*IngestService)(nil)

func (s *IngestService) Parse(ctx context.Context, req *ParseRequest) (*ParseResponse, error) {
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return nil, common.InvalidArgumentError("path is required")
	}
	doc, err := s.parser.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	warnings := pipeline.Warnings(doc)
	for i := range warnings {
		warnings[i].Label = req.Label
	}
	return &ParseResponse{
		Document: doc,
		Tokens:   textproc.Estimate(doc.Content),
		Warnings: warnings,
	}, nil
}

func (s *IngestService) Prepare(ctx context.Context, req *PrepareRequest) (*PrepareResponse, error) {
	if len(req.Documents) == 0 {
		return nil, common.InvalidArgumentError("documents are required")
	}
	budget := s.budget
	if req.Budget != nil {
		budget = *req.Budget
	}
	prepared, err := s.processor.Prepare(ctx, req.Documents, budget)
	if err != nil {
		return nil, err
	}
	return &PrepareResponse{Prepared: prepared}, nil
}

func (s *IngestService) Estimate(ctx context.Context, req *EstimateRequest) (*EstimateResponse, error) {
	text := req.Text
	if text == "" {
		path := strings.TrimSpace(req.Path)
		if path == "" {
			return nil, common.InvalidArgumentError("text or path is required")
		}
		doc, err := s.parser.Parse(ctx, path)
		if err != nil {
			return nil, err
		}
		text = doc.Content
	}
	return &EstimateResponse{Tokens: textproc.Estimate(text)}, nil
}

func (s *IngestService) ListStandards(ctx context.Context, req *ListStandardsRequest) (*ListStandardsResponse, error) {
	if s.registry == nil {
		return nil, unavailable("standards registry")
	}
	var (
		list []*repository.Standard
		err  error
	)
	if kw := strings.TrimSpace(req.Keyword); kw != "" {
		list, err = s.registry.Search(ctx, kw)
	} else {
		list, err = s.registry.List(ctx, req.Category)
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*repository.Standard{}
	}
	return &ListStandardsResponse{Standards: list}, nil
}

func (s *IngestService) AddStandard(ctx context.Context, req *AddStandardRequest) (*AddStandardResponse, error) {
	if s.registry == nil {
		return nil, unavailable("standards registry")
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return nil, common.InvalidArgumentError("path is required")
	}
	std, err := s.registry.Add(ctx, path, req.Name)
	if err != nil {
		return nil, err
	}
	return &AddStandardResponse{Standard: std}, nil
}
