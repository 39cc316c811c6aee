package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestToHTML_SynthesizedHeader(t *testing.T) {
	tbl := Table{Headers: []string{"A", "B"}, Rows: []Row{NewRow("A", "1", "B", "2")}}
	out := ToHTML(tbl, nil)

	assert.Contains(t, out, "<thead>\n<tr><th>A</th><th>B</th></tr>\n</thead>")
	assert.Contains(t, out, "<td>1</td><td>2</td>")
	assert.True(t, strings.HasPrefix(out, "<table>"))
	assert.True(t, strings.HasSuffix(out, "</table>"))
}

func TestToHTML_GridSpans(t *testing.T) {
	grid := HeaderGrid{
		{{Label: "Name", RowSpan: 2}, {Label: "Dues", ColSpan: 2, RowSpan: 0}},
		{{Label: "Jan", ColSpan: -1}, {Label: "Feb"}},
	}
	tbl := Table{Headers: []string{"Name", "Jan", "Feb"}}
	out := ToHTML(tbl, grid)

	assert.Contains(t, out, `<tr><th rowspan="2">Name</th><th colspan="2">Dues</th></tr>`)
	assert.Contains(t, out, `<tr><th>Jan</th><th>Feb</th></tr>`)
	assert.NotContains(t, out, "<th>Name</th>")
}

func TestToHTML_ZebraRows(t *testing.T) {
	tbl := Table{Headers: []string{"A"}}
	for iter := 0; iter < 4; iter++ {
		tbl.Rows = append(tbl.Rows, NewRow("A", "x"))
	}
	out := ToHTML(tbl, nil)

	assert.Equal(t, 2, strings.Count(out, evenRowColor))
	assert.Equal(t, 2, strings.Count(out, oddRowColor))
	first := strings.Index(out, evenRowColor)
	second := strings.Index(out, oddRowColor)
	assert.Less(t, first, second)
}

func TestToHTML_MissingCellsRenderEmpty(t *testing.T) {
	tbl := Table{Headers: []string{"A", "B"}, Rows: []Row{NewRow("B", "NaN")}}
	assert.Contains(t, ToHTML(tbl, nil), "<td></td><td></td>")
}

func TestToHTML_EscapesEverything(t *testing.T) {
	hostile := []string{
		`<script>alert('x')</script>`,
		`"><img src=x onerror=alert(1)>`,
		`Tom & Jerry's`,
	}
	grid := HeaderGrid{{{Label: hostile[0]}, {Label: hostile[1]}}}
	tbl := Table{
		Headers: []string{hostile[0], hostile[2]},
		Rows:    []Row{NewRow(hostile[0], hostile[1], hostile[2], hostile[0])},
	}

	for _, out := range []string{ToHTML(tbl, nil), ToHTML(tbl, grid)} {
		assert.NotContains(t, out, "<script")
		assert.NotContains(t, out, "<img")
		assert.NotContains(t, out, "'")
		assert.NotContains(t, out, "& ")

		doc, err := html.Parse(strings.NewReader(out))
		require.NoError(t, err)
		texts := cellTexts(doc)
		assert.Contains(t, texts, hostile[0])
		assert.Contains(t, texts, hostile[1])
	}
}

// cellTexts returns the decoded text of every th and td element.
func cellTexts(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "th" || n.Data == "td") {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			out = append(out, b.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}
