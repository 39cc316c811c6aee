package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"
)

// ColumnHeader is a column declared by the OCR backend.
type ColumnHeader struct {
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
	Key      string `json:"key,omitempty" yaml:"key,omitempty"`
	Index    int    `json:"index,omitempty" yaml:"index,omitempty"`
	HasIndex bool   `json:"-" yaml:"-"`
}

// Response is the table fragment of an OCR backend response.
type Response struct {
	ColumnHeaders []ColumnHeader
	HeaderRows    HeaderGrid
	DataRows      []DataRow
	Totals        []ExtractedTotal
}

// DecodeResponse reads a response fragment. Only malformed JSON is an error;
// unexpected shapes inside the document degrade to empty values.
func DecodeResponse(r io.Reader) (Response, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return ParseResponse(data)
}

// ParseResponse decodes a response fragment from data.
func ParseResponse(data []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// UnmarshalJSON decodes the fragment leniently. Members of the wrong shape are
// treated as absent.
func (r *Response) UnmarshalJSON(data []byte) error {
	obj, _ := decodeObject(data)

	out := Response{}
	for _, msg := range decodeArray(obj["column_headers"]) {
		out.ColumnHeaders = append(out.ColumnHeaders, decodeColumnHeader(msg))
	}
	for _, rawRow := range decodeArray(obj["header_rows"]) {
		if !isArray(rawRow) {
			continue
		}
		row := HeaderRow{}
		for _, msg := range decodeArray(rawRow) {
			if cell, ok := decodeHeaderCell(msg); ok {
				row = append(row, cell)
			}
		}
		out.HeaderRows = append(out.HeaderRows, row)
	}
	for _, msg := range decodeArray(obj["data_rows"]) {
		out.DataRows = append(out.DataRows, decodeDataRow(msg))
	}
	out.Totals = decodeTotals(obj["totals_row"])

	*r = out
	return nil
}

// BaseHeaders returns the normalized column names in declared column order: label,
// else key, else "Column n". Names are NFC-normalized and made unique. When no
// columns are declared the leaf labels of the header grid are used, normalized the
// same way.
func (r Response) BaseHeaders() []string {
	type positioned struct {
		pos  int
		name string
	}
	cols := make([]positioned, 0, len(r.ColumnHeaders))
	for i, h := range r.ColumnHeaders {
		pos := i
		if h.HasIndex {
			pos = h.Index
		}
		name := cleanLabel(h.Label)
		if name == "" {
			name = cleanLabel(h.Key)
		}
		cols = append(cols, positioned{pos: pos, name: name})
	}
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].pos < cols[j].pos })

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	if len(names) == 0 {
		return leafHeaders(r.HeaderRows)
	}
	return uniqueNames(names)
}

// leafHeaders returns the normalized, unique leaf labels of grid.
func leafHeaders(grid HeaderGrid) []string {
	leaves := grid.LeafLabels()
	names := make([]string, len(leaves))
	for i, l := range leaves {
		names[i] = cleanLabel(l)
	}
	return uniqueNames(names)
}

// uniqueNames names blank entries "Column n" and suffixes repeats with " (2)",
// " (3)" and so on. names is modified in place.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		if name == "" {
			name = columnName(i + 1)
		}
		base := name
		for n := 2; ; n++ {
			if _, dup := seen[name]; !dup {
				break
			}
			name = base + " (" + strconv.Itoa(n) + ")"
		}
		seen[name] = struct{}{}
		names[i] = name
	}
	return names
}

// cleanLabel NFC-normalizes s and collapses runs of whitespace.
func cleanLabel(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func columnName(n int) string {
	return "Column " + strconv.Itoa(n)
}

func decodeColumnHeader(msg json.RawMessage) ColumnHeader {
	obj, ok := decodeObject(msg)
	if !ok {
		// A bare string names the column.
		return ColumnHeader{Label: textOf(msg)}
	}
	h := ColumnHeader{
		Label: textOf(obj["label"]),
		Key:   textOf(obj["key"]),
	}
	if idx, ok := intOf(obj["index"]); ok && idx >= 0 {
		h.Index = idx
		h.HasIndex = true
	}
	return h
}

func decodeHeaderCell(msg json.RawMessage) (HeaderCell, bool) {
	obj, ok := decodeObject(msg)
	if !ok {
		if isNull(msg) {
			return HeaderCell{}, false
		}
		return HeaderCell{Label: textOf(msg), ColSpan: 1, RowSpan: 1}, true
	}
	cell := HeaderCell{Label: textOf(obj["label"]), ColSpan: 1, RowSpan: 1}
	if n, ok := intOf(obj["col_span"]); ok {
		cell.ColSpan = n
	}
	if n, ok := intOf(obj["row_span"]); ok {
		cell.RowSpan = n
	}
	return cell, true
}

func decodeDataRow(msg json.RawMessage) DataRow {
	trimmed := bytes.TrimSpace(msg)
	if isArray(trimmed) {
		return DataRow{Cells: decodeCells(trimmed), HasCells: true}
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return DataRow{}
	}

	entries, err := orderedEntries(trimmed)
	if err != nil {
		return DataRow{}
	}
	for _, e := range entries {
		if e.key == "cells" && !isNull(e.raw) {
			return DataRow{Cells: decodeCells(e.raw), HasCells: true}
		}
	}

	row := DataRow{}
	for _, e := range entries {
		if isNull(e.raw) {
			continue
		}
		row.Fields = append(row.Fields, Field{Key: e.key, Value: textOf(e.raw)})
	}
	return row
}

func decodeCells(msg json.RawMessage) []DataCell {
	raws := decodeArray(msg)
	cells := make([]DataCell, 0, len(raws))
	for _, raw := range raws {
		obj, ok := decodeObject(raw)
		if !ok {
			continue
		}
		cell := DataCell{
			ColIndex: -1,
			Key:      textOf(obj["key"]),
			Label:    textOf(obj["label"]),
			Text:     textOf(obj["text"]),
		}
		if idx, ok := intOf(obj["col_index"]); ok {
			cell.ColIndex = idx
		}
		cells = append(cells, cell)
	}
	return cells
}

func decodeTotals(msg json.RawMessage) []ExtractedTotal {
	obj, ok := decodeObject(msg)
	if !ok {
		return nil
	}
	var totals []ExtractedTotal
	for _, raw := range decodeArray(obj["cells"]) {
		cell, ok := decodeObject(raw)
		if !ok {
			continue
		}
		idx, ok := intOf(cell["col_index"])
		if !ok {
			continue
		}
		totals = append(totals, ExtractedTotal{ColIndex: idx, Text: textOf(cell["text"])})
	}
	return totals
}

func decodeObject(msg json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// decodeArray returns the elements of msg, or nil when msg is not an array.
func decodeArray(msg json.RawMessage) []json.RawMessage {
	if !isArray(msg) {
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(msg, &raws); err != nil {
		return nil
	}
	return raws
}

func isArray(msg json.RawMessage) bool {
	trimmed := bytes.TrimSpace(msg)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isNull(msg json.RawMessage) bool {
	trimmed := bytes.TrimSpace(msg)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// scalarOf decodes msg keeping numbers as written.
func scalarOf(msg json.RawMessage) (interface{}, bool) {
	if isNull(msg) {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// textOf renders any JSON value as cell text. Numbers keep their written form,
// null is "", and objects or arrays are kept as compact JSON.
func textOf(msg json.RawMessage) string {
	v, ok := scalarOf(msg)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case map[string]interface{}, []interface{}:
		var b bytes.Buffer
		if err := json.Compact(&b, msg); err != nil {
			return ""
		}
		return b.String()
	case json.Number:
		return t.String()
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// intOf reads a base-10 integer that may have been sent as a number or a numeric
// string. Integral floats such as 2.0 are accepted.
func intOf(msg json.RawMessage) (int, bool) {
	v, ok := scalarOf(msg)
	if !ok {
		return 0, false
	}
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return 0, false
	}
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

type entry struct {
	key string
	raw json.RawMessage
}

// orderedEntries splits a JSON object into its members in document order.
func orderedEntries(data []byte) ([]entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("expected JSON object")
	}
	var out []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, entry{key: key, raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeOrderedObject decodes an object into fields in document order.
func decodeOrderedObject(data []byte) ([]Field, error) {
	entries, err := orderedEntries(data)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(entries))
	for _, e := range entries {
		fields = append(fields, Field{Key: e.key, Value: textOf(e.raw)})
	}
	return fields, nil
}
