package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bid-docs/internal/common"
	"github.com/joseph-ayodele/bid-docs/internal/pipeline"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "review.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"max_tokens_per_batch": 8000,
		"compression_ratio": 0.6,
		"documents": [
			{"label": "招标文件", "path": "tender.pdf"},
			{"label": "投标文件", "path": "/srv/bids/bid.docx"}
		]
	}`), 0o644))

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []pipeline.Input{
		{Label: "招标文件", Path: filepath.Join(dir, "tender.pdf")},
		{Label: "投标文件", Path: "/srv/bids/bid.docx"},
	}, m.Inputs())

	b := m.Budget(pipeline.Budget{CompressionRatio: 1, MaxTokensPerBatch: 60000})
	assert.Equal(t, pipeline.Budget{CompressionRatio: 0.6, MaxTokensPerBatch: 8000}, b)
}

func TestBudgetKeepsDefaults(t *testing.T) {
	m, err := Parse([]byte(`{"documents":[{"label":"a","path":"a.pdf"}]}`), "")
	require.NoError(t, err)
	defaults := pipeline.Budget{CompressionRatio: 1, MaxTokensPerBatch: 60000}
	assert.Equal(t, defaults, m.Budget(defaults))
	assert.Equal(t, "a.pdf", m.Documents[0].Path)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"not json", `{`, common.ErrInvalidInput},
		{"no documents", `{"documents": []}`, common.ErrValidation},
		{"ratio out of range", `{"compression_ratio": 1.5, "documents":[{"label":"a","path":"a.pdf"}]}`, common.ErrValidation},
		{"zero budget", `{"max_tokens_per_batch": 0, "documents":[{"label":"a","path":"a.pdf"}]}`, common.ErrValidation},
		{"empty label", `{"documents":[{"label":"","path":"a.pdf"}]}`, common.ErrValidation},
		{"unknown field", `{"documents":[{"label":"a","path":"a.pdf"}], "extra": true}`, common.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorIs(t, err, common.ErrNotFound)
}
