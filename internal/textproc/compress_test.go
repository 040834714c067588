package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func repetitiveDoc() string {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "本项目位于城市中心区域，交通便利，周边配套设施齐全。", "")
		lines = append(lines, "投标人必须提供近三年的财务审计报告。")
	}
	lines = append(lines, "第五章 评标办法", "工期不超过180天", "参照GB 50300执行")
	return strings.Join(lines, "\n")
}

func TestCompressIdentityAtRatioOne(t *testing.T) {
	text := repetitiveDoc()
	assert.Equal(t, text, Compress(text, 1.0))
	assert.Equal(t, text, Compress(text, 1.5))
}

func TestCompressDedupKeepsImportant(t *testing.T) {
	out := Compress(repetitiveDoc(), 0.99)

	assert.Equal(t, 1, strings.Count(out, "本项目位于城市中心区域"))
	assert.Equal(t, 30, strings.Count(out, "投标人必须提供"))
	assert.NotContains(t, out, "\n\n")
	assert.Contains(t, out, "第五章 评标办法")
	assert.Contains(t, out, "工期不超过180天")
}

func TestCompressMonotonicInRatio(t *testing.T) {
	text := repetitiveDoc()
	prev := Estimate(Compress(text, 1.0))
	for _, r := range []float64{0.9, 0.7, 0.5, 0.3, 0.2, 0.1, 0.05, 0} {
		got := Estimate(Compress(text, r))
		assert.LessOrEqual(t, got, prev, "ratio %v", r)
		prev = got
	}
}

func TestIsImportant(t *testing.T) {
	for _, line := range []string{"第三条", "见3.2节", "温度≥25", "不得转包", "依据JGJ 59", "税率13%", "保证金5000元", "质保期2年"} {
		assert.True(t, IsImportant(line), line)
	}
	assert.False(t, IsImportant("普通描述性文字"))
}
