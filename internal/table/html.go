package table

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Zebra tones for body rows, by row parity.
const (
	evenRowColor = "#ffffff"
	oddRowColor  = "#f3f4f6"
)

// ToHTML renders t as an HTML table. When grid is non-empty its rows become the
// <thead>, spans as declared; otherwise a single header row is built from
// t.Headers. Every label and value is sanitized and escaped.
func ToHTML(t Table, grid HeaderGrid) string {
	var b strings.Builder
	b.WriteString("<table>\n<thead>\n")
	if len(grid) > 0 {
		for _, row := range grid {
			b.WriteString("<tr>")
			for _, cell := range row {
				b.WriteString("<th")
				writeSpan(&b, "colspan", cell.Cols())
				writeSpan(&b, "rowspan", cell.Rows())
				b.WriteByte('>')
				b.WriteString(escape(cell.Label))
				b.WriteString("</th>")
			}
			b.WriteString("</tr>\n")
		}
	} else {
		b.WriteString("<tr>")
		for _, h := range t.Headers {
			b.WriteString("<th>")
			b.WriteString(escape(h))
			b.WriteString("</th>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</thead>\n<tbody>\n")

	for i, row := range t.Rows {
		color := evenRowColor
		if i%2 == 1 {
			color = oddRowColor
		}
		b.WriteString(`<tr style="background-color:`)
		b.WriteString(color)
		b.WriteString(`">`)
		for _, h := range t.Headers {
			b.WriteString("<td>")
			b.WriteString(escape(row.Value(h)))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>")
	return b.String()
}

func writeSpan(b *strings.Builder, attr string, n int) {
	if n <= 1 {
		return
	}
	b.WriteByte(' ')
	b.WriteString(attr)
	b.WriteString(`="`)
	b.WriteString(strconv.Itoa(n))
	b.WriteByte('"')
}

func escape(s string) string {
	return html.EscapeString(Sanitize(s))
}
