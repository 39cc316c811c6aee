package table

import "fmt"

// SpanIssueKind classifies a header span inconsistency.
type SpanIssueKind string

const (
	// SpanWidth means a header row does not cover exactly the table's columns.
	SpanWidth SpanIssueKind = "width"
	// SpanOverflow means a row span reaches below the last header row.
	SpanOverflow SpanIssueKind = "row_span_overflow"
)

// SpanIssue describes one structural problem in a header grid.
type SpanIssue struct {
	Kind    SpanIssueKind `json:"kind" yaml:"kind"`
	Row     int           `json:"row" yaml:"row"`
	Width   int           `json:"width,omitempty" yaml:"width,omitempty"`
	Columns int           `json:"columns,omitempty" yaml:"columns,omitempty"`
	Label   string        `json:"label,omitempty" yaml:"label,omitempty"`
}

func (s SpanIssue) String() string {
	switch s.Kind {
	case SpanWidth:
		return fmt.Sprintf("header row %d covers %d columns, want %d", s.Row+1, s.Width, s.Columns)
	case SpanOverflow:
		return fmt.Sprintf("header %q in row %d spans past the last header row", s.Label, s.Row+1)
	}
	return string(s.Kind)
}

// ValidateSpans checks that every header row, together with cells still open from
// row spans above, covers exactly columns columns. When columns <= 0 the width of
// the first row is used. The check is advisory; rendering follows the grid as given.
func ValidateSpans(grid HeaderGrid, columns int) []SpanIssue {
	if len(grid) == 0 {
		return nil
	}
	var issues []SpanIssue
	// open[i] is the number of further rows column i stays occupied.
	var open []int

	for r, row := range grid {
		occupied := make([]bool, len(open))
		for i, n := range open {
			occupied[i] = n > 0
		}
		col := 0
		for _, cell := range row {
			for col < len(occupied) && occupied[col] {
				col++
			}
			for k := 0; k < cell.Cols(); k++ {
				i := col + k
				for len(occupied) <= i {
					occupied = append(occupied, false)
					open = append(open, 0)
				}
				occupied[i] = true
				open[i] = cell.Rows()
			}
			col += cell.Cols()
			if r+cell.Rows() > len(grid) {
				issues = append(issues, SpanIssue{Kind: SpanOverflow, Row: r, Label: cell.Label})
			}
		}

		width := 0
		for _, o := range occupied {
			if o {
				width++
			}
		}
		if r == 0 && columns <= 0 {
			columns = width
		}
		if width != columns {
			issues = append(issues, SpanIssue{Kind: SpanWidth, Row: r, Width: width, Columns: columns})
		}

		for i := range open {
			if open[i] > 0 {
				open[i]--
			}
		}
	}
	return issues
}
