package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"cjk", "投标文件", 6},
		{"words", "hello world", 3}, // 1.3 + 0.5 + 1.3
		{"digits and punctuation", "123.4%", 3},
		{"mixed", "第3章 GB50010", 7}, // 1.5+0.5+1.5+0.5+1.3+5*0.5
		{"fullwidth punctuation is other", "，。", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.text))
		})
	}
}

func TestEstimateMonotonicUnderConcatenation(t *testing.T) {
	parts := []string{"", "abc", "def", " ", "招标", "1.2", "x", "【资格】", "\n", "GB/T 50328-2014"}
	for _, a := range parts {
		for _, b := range parts {
			assert.GreaterOrEqual(t, Estimate(a+b), Estimate(a), "a=%q b=%q", a, b)
		}
	}
}
