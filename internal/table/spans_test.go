package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoLevelGrid() HeaderGrid {
	return HeaderGrid{
		{{Label: "Name", RowSpan: 2}, {Label: "Dues", ColSpan: 2}},
		{{Label: "Jan"}, {Label: "Feb"}},
	}
}

func TestValidateSpans_Consistent(t *testing.T) {
	assert.Empty(t, ValidateSpans(twoLevelGrid(), 3))
	assert.Empty(t, ValidateSpans(twoLevelGrid(), 0))
	assert.Empty(t, ValidateSpans(nil, 4))
}

func TestValidateSpans_WidthMismatch(t *testing.T) {
	grid := twoLevelGrid()
	grid[1] = grid[1][:1]

	issues := ValidateSpans(grid, 3)
	require.Len(t, issues, 1)
	assert.Equal(t, SpanIssue{Kind: SpanWidth, Row: 1, Width: 2, Columns: 3}, issues[0])
	assert.Equal(t, "header row 2 covers 2 columns, want 3", issues[0].String())
}

func TestValidateSpans_DeclaredColumnCount(t *testing.T) {
	issues := ValidateSpans(twoLevelGrid(), 4)
	require.Len(t, issues, 2)
	assert.Equal(t, 0, issues[0].Row)
	assert.Equal(t, 1, issues[1].Row)
}

func TestValidateSpans_RowSpanOverflow(t *testing.T) {
	grid := twoLevelGrid()
	grid[0][0].RowSpan = 3

	issues := ValidateSpans(grid, 3)
	require.Len(t, issues, 1)
	assert.Equal(t, SpanOverflow, issues[0].Kind)
	assert.Equal(t, "Name", issues[0].Label)
}

func TestLeafLabels(t *testing.T) {
	assert.Equal(t, []string{"Name", "Jan", "Feb"}, twoLevelGrid().LeafLabels())

	grid := HeaderGrid{
		{{Label: "A"}, {Label: "Group", ColSpan: 2}, {Label: "D", RowSpan: 2}},
		{{Label: "A1"}, {Label: "B"}, {Label: "C"}},
	}
	assert.Equal(t, []string{"A1", "B", "C", "D"}, grid.LeafLabels())
	assert.Empty(t, HeaderGrid(nil).LeafLabels())
}

func TestHeaderCell_Spans(t *testing.T) {
	assert.Equal(t, 1, HeaderCell{}.Cols())
	assert.Equal(t, 1, HeaderCell{RowSpan: -2}.Rows())
	assert.Equal(t, 3, HeaderCell{ColSpan: 3}.Cols())
}
