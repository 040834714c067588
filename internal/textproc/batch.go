package textproc

import (
	"fmt"

	"github.com/joseph-ayodele/bid-docs/internal/common"
)

// preTruncateShare is the fraction of the batch limit a single entry may use
// before it is truncated.
const preTruncateShare = 0.8

// Entry is one labelled document content, e.g. a category name and the text
// parsed from its file.
type Entry struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// Batch is an ordered group of entries sent downstream in one call.
type Batch struct {
	Entries []Entry `json:"entries"`
	Tokens  int     `json:"tokens"`
}

// Labels returns the entry labels in batch order.
func (b Batch) Labels() []string {
	labels := make([]string, len(b.Entries))
	for i, e := range b.Entries {
		labels[i] = e.Label
	}
	return labels
}

// Split groups entries, in the given order, into batches whose estimated
// tokens stay within maxTokensPerBatch. Entries above 80% of the limit are
// truncated first. A batch holding a single entry may still exceed the limit
// when that entry's structural lines alone do.
func Split(entries []Entry, maxTokensPerBatch int) ([]Batch, error) {
	if maxTokensPerBatch <= 0 {
		return nil, fmt.Errorf("%w: max tokens per batch must be positive, got %d", common.ErrInvalidInput, maxTokensPerBatch)
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Label]; ok {
			return nil, fmt.Errorf("%w: duplicate label %q", common.ErrInvalidInput, e.Label)
		}
		seen[e.Label] = struct{}{}
	}

	ceiling := int(float64(maxTokensPerBatch) * preTruncateShare)
	var (
		batches []Batch
		current Batch
	)
	for _, e := range entries {
		tokens := Estimate(e.Content)
		if tokens > ceiling {
			e.Content = Truncate(e.Content, ceiling, true)
			tokens = Estimate(e.Content)
		}
		if current.Tokens+tokens > maxTokensPerBatch && len(current.Entries) > 0 {
			batches = append(batches, current)
			current = Batch{}
		}
		current.Entries = append(current.Entries, e)
		current.Tokens += tokens
	}
	if len(current.Entries) > 0 {
		batches = append(batches, current)
	}
	return batches, nil
}
