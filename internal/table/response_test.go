package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "column_headers": [
    {"label": "Name", "index": 1},
    {"key": "member_no", "index": "0"},
    {"label": "Dues", "index": 2}
  ],
  "header_rows": [
    [{"label": "No", "row_span": 2}, {"label": "Name", "row_span": "2"}, {"label": "Dues"}],
    [null, {"label": "Jan", "col_span": 1}]
  ],
  "data_rows": [
    {"cells": [{"col_index": 0, "text": "1"}, {"col_index": "1", "text": "Ann"}, {"col_index": 2, "text": 12.50}]},
    {"member_no": "2", "confidence": 0.8, "Dues": 7, "paid": true, "memo": null},
    [{"col_index": 1, "text": "Bo"}, {"label": "Extra", "text": "x"}],
    "garbage"
  ],
  "totals_row": {"cells": [{"col_index": 2, "text": "19.50"}, {"text": "no index"}]}
}`

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse([]byte(sampleResponse))
	require.NoError(t, err)

	require.Len(t, resp.ColumnHeaders, 3)
	assert.Equal(t, ColumnHeader{Key: "member_no", Index: 0, HasIndex: true}, resp.ColumnHeaders[1])

	require.Len(t, resp.HeaderRows, 2)
	assert.Equal(t, HeaderCell{Label: "Name", ColSpan: 1, RowSpan: 2}, resp.HeaderRows[0][1])
	assert.Len(t, resp.HeaderRows[1], 1, "null header cells are skipped")

	require.Len(t, resp.DataRows, 4)
	first := resp.DataRows[0]
	assert.True(t, first.HasCells)
	assert.Equal(t, DataCell{ColIndex: 1, Text: "Ann"}, first.Cells[1])
	assert.Equal(t, "12.50", first.Cells[2].Text)

	flat := resp.DataRows[1]
	assert.False(t, flat.HasCells)
	assert.Equal(t, []Field{
		{Key: "member_no", Value: "2"},
		{Key: "confidence", Value: "0.8"},
		{Key: "Dues", Value: "7"},
		{Key: "paid", Value: "true"},
	}, flat.Fields)

	arr := resp.DataRows[2]
	assert.True(t, arr.HasCells)
	assert.Equal(t, DataCell{ColIndex: -1, Label: "Extra", Text: "x"}, arr.Cells[1])

	assert.Equal(t, DataRow{}, resp.DataRows[3])
	assert.Equal(t, []ExtractedTotal{{ColIndex: 2, Text: "19.50"}}, resp.Totals)
}

func TestParseResponse_Malformed(t *testing.T) {
	_, err := ParseResponse([]byte(`{"data_rows": [`))
	assert.Error(t, err)

	_, err = DecodeResponse(strings.NewReader("not json"))
	assert.ErrorContains(t, err, "decode response")
}

func TestParseResponse_EmptyAndNull(t *testing.T) {
	for _, in := range []string{`{}`, `null`, `{"column_headers": null, "totals_row": "n/a"}`} {
		resp, err := ParseResponse([]byte(in))
		require.NoError(t, err, in)
		assert.Empty(t, resp.BaseHeaders(), in)
		assert.Empty(t, resp.DataRows, in)
		assert.Empty(t, resp.Totals, in)
	}
}

func TestParseResponse_WrongShapesDegrade(t *testing.T) {
	cases := map[string]string{
		"headers as string":   `{"column_headers": "A"}`,
		"header row object":   `{"header_rows": [{"label": "x"}, [{"label": "A"}]], "data_rows": [{"A": "1"}]}`,
		"data rows object":    `{"data_rows": {"a": 1}}`,
		"cells as number":     `{"data_rows": [{"cells": 5}]}`,
		"totals cells object": `{"totals_row": {"cells": {"col_index": 0}}}`,
		"top level array":     `[1, 2]`,
		"top level string":    `"table"`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResponse([]byte(in))
			require.NoError(t, err)
		})
	}

	resp, err := ParseResponse([]byte(cases["header row object"]))
	require.NoError(t, err)
	require.Len(t, resp.HeaderRows, 1)
	assert.Equal(t, []string{"A"}, resp.BaseHeaders())
	require.Len(t, resp.DataRows, 1)
	assert.Equal(t, []Field{{Key: "A", Value: "1"}}, resp.DataRows[0].Fields)

	resp, err = ParseResponse([]byte(`{"column_headers": "A", "data_rows": [{"B": "2"}]}`))
	require.NoError(t, err)
	assert.Empty(t, resp.ColumnHeaders)
	assert.Len(t, resp.DataRows, 1)

	resp, err = ParseResponse([]byte(cases["cells as number"]))
	require.NoError(t, err)
	require.Len(t, resp.DataRows, 1)
	assert.True(t, resp.DataRows[0].HasCells)
	assert.Empty(t, resp.DataRows[0].Cells)
}

func TestIntOf(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{`3`, 3, true},
		{`"3"`, 3, true},
		{`" 12 "`, 12, true},
		{`"010"`, 10, true},
		{`"08"`, 8, true},
		{`2.0`, 2, true},
		{`"2.0"`, 2, true},
		{`-1`, -1, true},
		{`2.5`, 0, false},
		{`"1,5"`, 0, false},
		{`"abc"`, 0, false},
		{`""`, 0, false},
		{`true`, 0, false},
		{`null`, 0, false},
		{`[1]`, 0, false},
	}
	for _, tt := range tests {
		got, ok := intOf([]byte(tt.in))
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseResponse_LeadingZeroColumnIndex(t *testing.T) {
	resp, err := ParseResponse([]byte(`{
	  "column_headers": ["A","B","C","D","E","F","G","H","I","J"],
	  "data_rows": [{"cells": [{"col_index": "010", "text": "x"}, {"col_index": "08", "text": "y"}]}]
	}`))
	require.NoError(t, err)

	tbl := Reconstruct(resp.HeaderRows, resp.BaseHeaders(), resp.DataRows)
	assert.Equal(t, "x", tbl.Rows[0].Value("Column 11"))
	assert.Equal(t, "y", tbl.Rows[0].Value("I"))
	assert.Empty(t, tbl.Rows[0].Value("H"))
}

func TestResponse_BaseHeaders(t *testing.T) {
	resp, err := ParseResponse([]byte(sampleResponse))
	require.NoError(t, err)
	assert.Equal(t, []string{"member_no", "Name", "Dues"}, resp.BaseHeaders())
}

func TestResponse_BaseHeadersNormalization(t *testing.T) {
	resp := Response{ColumnHeaders: []ColumnHeader{
		{Label: "  Mitglied   Nr. "},
		{},
		{Label: "Café"},
		{Label: "Dues"},
		{Key: "Dues"},
		{Label: "Column 2"},
	}}
	assert.Equal(t, []string{"Mitglied Nr.", "Column 2", "Café", "Dues", "Dues (2)", "Column 2 (2)"}, resp.BaseHeaders())
}

func TestResponse_BaseHeadersFromGrid(t *testing.T) {
	resp := Response{HeaderRows: twoLevelGrid()}
	assert.Equal(t, []string{"Name", "Jan", "Feb"}, resp.BaseHeaders())
}

func TestDecodeColumnHeader_BareString(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"column_headers": ["A", "B"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, resp.BaseHeaders())
}
