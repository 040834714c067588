package server

import (
	"github.com/joseph-ayodele/bid-docs/internal/extract"
	"github.com/joseph-ayodele/bid-docs/internal/pipeline"
	"github.com/joseph-ayodele/bid-docs/internal/repository"
)

type ParseRequest struct {
	Path  string `json:"path"`
	Label string `json:"label,omitempty"`
}

type ParseResponse struct {
	Document extract.ParsedDocument `json:"document"`
	Tokens   int                    `json:"tokens"`
	Warnings []pipeline.Warning     `json:"warnings,omitempty"`
}

type PrepareRequest struct {
	Documents []pipeline.Input `json:"documents"`
	// Budget falls back to the server's configured budget when nil.
	Budget *pipeline.Budget `json:"budget,omitempty"`
}

type PrepareResponse struct {
	pipeline.Prepared
}

// EstimateRequest counts Text, or the parsed content of Path when Text is empty.
type EstimateRequest struct {
	Text string `json:"text,omitempty"`
	Path string `json:"path,omitempty"`
}

type EstimateResponse struct {
	Tokens int `json:"tokens"`
}

type ListStandardsRequest struct {
	Category string `json:"category,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
}

type ListStandardsResponse struct {
	Standards []*repository.Standard `json:"standards"`
}

type AddStandardRequest struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

type AddStandardResponse struct {
	Standard *repository.Standard `json:"standard"`
}
