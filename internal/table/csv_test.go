package table

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCSV_Quoting(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{" leading space", " leading space"},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"two\nlines", "\"two\nlines\""},
		{"cr\rhere", "\"cr\rhere\""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tbl := Table{Headers: []string{"H", "X"}, Rows: []Row{NewRow("H", tt.in, "X", "1")}}
			assert.Equal(t, "H,X\n"+tt.want+",1", ToCSV(tbl))
		})
	}
}

func TestToCSV_SanitizesValues(t *testing.T) {
	tbl := Table{
		Headers: []string{"A", "B", "C", "D"},
		Rows: []Row{
			NewRow("A", "NaN", "B", "undefined", "C", "-Infinity", "D", "Infinity"),
			NewRow("B", "ok"),
		},
	}
	assert.Equal(t, "A,B,C,D\n,,,\n,ok,,", ToCSV(tbl))
}

func TestToCSV_ColumnOrderFollowsHeaders(t *testing.T) {
	tbl := Table{
		Headers: []string{"A", "B", "C"},
		Rows:    []Row{NewRow("C", "3", "A", "1", "B", "2")},
	}
	assert.Equal(t, "A,B,C\n1,2,3", ToCSV(tbl))
}

func TestToCSV_EmptyTable(t *testing.T) {
	assert.Empty(t, ToCSV(Table{}))
	assert.Equal(t, "A,B", ToCSV(Table{Headers: []string{"A", "B"}}))
}

func TestCSVDownload_PrefixesBOM(t *testing.T) {
	tbl := Table{Headers: []string{"A"}, Rows: []Row{NewRow("A", "1")}}
	out := CSVDownload(tbl)
	assert.True(t, strings.HasPrefix(out, "\xef\xbb\xbf"))
	assert.Equal(t, ToCSV(tbl), strings.TrimPrefix(out, BOM))
}

func TestToCSV_RoundTrip(t *testing.T) {
	tbl := Table{
		Headers: []string{"No", "Name, full", "Note", "Dues"},
		Rows: []Row{
			NewRow("No", "1", "Name, full", `Ann "Annie" Lee`, "Note", "paid\nlate", "Dues", "12.50"),
			NewRow("No", "2", "Dues", "NaN"),
			NewRow("Name, full", " spaced ", "Note", "<b>&'"),
			NewRow(),
		},
	}

	records, err := csv.NewReader(strings.NewReader(ToCSV(tbl))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(tbl.Rows)+1)
	assert.Equal(t, tbl.Headers, records[0])

	for i, row := range tbl.Rows {
		want := make([]string, len(tbl.Headers))
		for j, h := range tbl.Headers {
			want[j] = Sanitize(row.Value(h))
		}
		assert.Equal(t, want, records[i+1], "row %d", i)
	}
}

func TestToCSV_SingleEmptyColumnSurvivesReader(t *testing.T) {
	tbl := Table{Headers: []string{"A"}, Rows: []Row{NewRow(), NewRow("A", "x")}}
	out := ToCSV(tbl)
	assert.Equal(t, "A\n\"\"\nx", out)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}, {""}, {"x"}}, records)
}

func TestSanitize(t *testing.T) {
	for _, s := range []string{"NaN", "undefined", "Infinity", "-Infinity", "+Infinity", " NaN "} {
		assert.Empty(t, Sanitize(s), s)
	}
	for _, s := range []string{"nan bread", "0", "Infinity Pool", "", " x "} {
		assert.Equal(t, s, Sanitize(s), s)
	}
}
