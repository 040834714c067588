// Package manifest loads batch manifests: a JSON file naming the documents
// of one review and the token budget to prepare them under.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/bid-docs/internal/common"
	"github.com/joseph-ayodele/bid-docs/internal/pipeline"
)

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["documents"],
  "properties": {
    "max_tokens_per_batch": {"type": "integer", "minimum": 1},
    "compression_ratio": {"type": "number", "minimum": 0, "maximum": 1},
    "documents": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["label", "path"],
        "properties": {
          "label": {"type": "string", "minLength": 1},
          "path": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("manifest.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("manifest.json")
})

type Document struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

type Manifest struct {
	MaxTokensPerBatch int        `json:"max_tokens_per_batch,omitempty"`
	CompressionRatio  *float64   `json:"compression_ratio,omitempty"`
	Documents         []Document `json:"documents"`
}

// Load reads and validates the manifest at path. Relative document paths
// are resolved against the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: manifest %s", common.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse validates data against the manifest schema and decodes it.
func Parse(data []byte, baseDir string) (*Manifest, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, common.NewAppError("MANIFEST_ERROR", "invalid json", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	if err := schema.Validate(v); err != nil {
		return nil, common.NewAppError("MANIFEST_ERROR", "manifest does not match schema", fmt.Errorf("%w: %v", common.ErrValidation, err))
	}

	var m Manifest
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		return nil, common.NewAppError("MANIFEST_ERROR", "decode manifest", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	for i := range m.Documents {
		if baseDir != "" && !filepath.IsAbs(m.Documents[i].Path) {
			m.Documents[i].Path = filepath.Join(baseDir, m.Documents[i].Path)
		}
	}
	return &m, nil
}

// Inputs converts the document list for the pipeline.
func (m *Manifest) Inputs() []pipeline.Input {
	out := make([]pipeline.Input, len(m.Documents))
	for i, d := range m.Documents {
		out[i] = pipeline.Input{Label: d.Label, Path: d.Path}
	}
	return out
}

// Budget overlays the manifest's budget on defaults.
func (m *Manifest) Budget(defaults pipeline.Budget) pipeline.Budget {
	b := defaults
	if m.MaxTokensPerBatch > 0 {
		b.MaxTokensPerBatch = m.MaxTokensPerBatch
	}
	if m.CompressionRatio != nil {
		b.CompressionRatio = *m.CompressionRatio
	}
	return b
}
