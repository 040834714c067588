package extract

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// rowTolerance is how far apart (in points) two line tops may be and still
// belong to the same table row.
const rowTolerance = 2.0

var (
	reTop  = regexp.MustCompile(`top:\s*(-?[\d.]+)pt`)
	reLeft = regexp.MustCompile(`left:\s*(-?[\d.]+)pt`)
)

type positionedLine struct {
	top, left float64
	text      string
}

// DetectTables finds tables in the positioned HTML MuPDF produces for a page.
// Text lines sharing a top coordinate form a row; two or more consecutive
// rows with at least two cells each form a table.
func DetectTables(pageHTML string) ([]TableGrid, error) {
	root, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}
	rows := groupRows(collectLines(root))

	var (
		tables []TableGrid
		run    TableGrid
	)
	closeRun := func() {
		if len(run) >= 2 {
			tables = append(tables, run)
		}
		run = nil
	}
	for _, row := range rows {
		if len(row) < 2 {
			closeRun()
			continue
		}
		run = append(run, row)
	}
	closeRun()
	return tables, nil
}

func collectLines(root *html.Node) []positionedLine {
	var lines []positionedLine
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			if l, ok := lineFromNode(n); ok {
				lines = append(lines, l)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return lines
}

func lineFromNode(n *html.Node) (positionedLine, bool) {
	var style string
	for _, a := range n.Attr {
		if a.Key == "style" {
			style = a.Val
		}
	}
	top, ok1 := styleNumber(reTop, style)
	left, ok2 := styleNumber(reLeft, style)
	text := strings.TrimSpace(textContent(n))
	if !ok1 || !ok2 || text == "" {
		return positionedLine{}, false
	}
	return positionedLine{top: top, left: left, text: text}, true
}

func styleNumber(re *regexp.Regexp, style string) (float64, bool) {
	m := re.FindStringSubmatch(style)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	return v, err == nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

// groupRows orders lines top to bottom and merges those within rowTolerance
// into rows whose cells run left to right.
func groupRows(lines []positionedLine) [][]string {
	slices.SortStableFunc(lines, func(a, b positionedLine) int {
		if a.top != b.top {
			if a.top < b.top {
				return -1
			}
			return 1
		}
		if a.left < b.left {
			return -1
		}
		if a.left > b.left {
			return 1
		}
		return 0
	})

	var rows [][]string
	var current []positionedLine
	flush := func() {
		if len(current) == 0 {
			return
		}
		slices.SortStableFunc(current, func(a, b positionedLine) int {
			switch {
			case a.left < b.left:
				return -1
			case a.left > b.left:
				return 1
			}
			return 0
		})
		cells := make([]string, len(current))
		for i, l := range current {
			cells[i] = l.text
		}
		rows = append(rows, cells)
		current = nil
	}
	for _, l := range lines {
		if len(current) > 0 && math.Abs(l.top-current[0].top) > rowTolerance {
			flush()
		}
		current = append(current, l)
	}
	flush()
	return rows
}
