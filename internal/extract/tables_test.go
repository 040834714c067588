package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTables(t *testing.T) {
	page := `<div>
<p style="top:10pt;left:10pt">标题</p>
<p style="top:30pt;left:120pt">单价</p>
<p style="top:30pt;left:10pt">名称</p>
<p style="top:30pt;left:220pt">数量</p>
<p style="top:48pt;left:10pt">钢筋</p>
<p style="top:49pt;left:120pt">4200</p>
<p style="top:70pt;left:10pt">正文段落</p>
<p style="top:90pt;left:10pt">A</p><p style="top:90pt;left:60pt">B</p>
<p style="top:110pt;left:10pt">C</p><p style="top:110pt;left:60pt">D</p>
<p style="top:130pt;left:10pt">   </p>
</div>`

	tables, err := DetectTables(page)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, TableGrid{{"名称", "单价", "数量"}, {"钢筋", "4200"}}, tables[0])
	assert.Equal(t, 3, tables[0].Width())
	assert.Equal(t, TableGrid{{"A", "B"}, {"C", "D"}}, tables[1])
}

func TestDetectTablesNoLayout(t *testing.T) {
	tables, err := DetectTables(`<p>no style</p><p style="top:1pt;left:1pt">one cell</p>`)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestFlatten(t *testing.T) {
	g := TableGrid{{" 项目 ", "金额"}, {"土建"}}
	assert.Equal(t, "项目 | 金额\n土建", Flatten(g))
	assert.Equal(t, "", Flatten(nil))
}
