// Package table rebuilds ledger tables from the sparse description returned by the
// OCR backend and derives the CSV, HTML and totals views of them.
package table

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// HeaderCell is one visual header cell. Spans below 1 are treated as 1.
type HeaderCell struct {
	Label   string `json:"label" yaml:"label"`
	ColSpan int    `json:"col_span,omitempty" yaml:"col_span,omitempty"`
	RowSpan int    `json:"row_span,omitempty" yaml:"row_span,omitempty"`
}

// Cols returns the effective column span.
func (c HeaderCell) Cols() int {
	if c.ColSpan < 1 {
		return 1
	}
	return c.ColSpan
}

// Rows returns the effective row span.
func (c HeaderCell) Rows() int {
	if c.RowSpan < 1 {
		return 1
	}
	return c.RowSpan
}

// HeaderRow is an ordered list of header cells.
type HeaderRow []HeaderCell

// HeaderGrid is the header rows, top to bottom.
type HeaderGrid []HeaderRow

// LeafLabels returns, for every column, the label of the lowest header cell covering
// it. Cells still open from row spans above keep their label.
func (g HeaderGrid) LeafLabels() []string {
	var leaves []string
	// open[i] is the remaining row count of the cell occupying column i.
	var open []int
	for _, row := range g {
		col := 0
		next := func() {
			for col < len(open) && open[col] > 0 {
				open[col]--
				col++
			}
		}
		next()
		for _, cell := range row {
			for k := 0; k < cell.Cols(); k++ {
				i := col + k
				for len(open) <= i {
					open = append(open, 0)
					leaves = append(leaves, "")
				}
				open[i] = cell.Rows() - 1
				leaves[i] = cell.Label
			}
			col += cell.Cols()
			next()
		}
		// Columns to the right of the last cell may still be open.
		for ; col < len(open); col++ {
			if open[col] > 0 {
				open[col]--
			}
		}
	}
	return leaves
}

// DataCell is one OCR-recognized cell. ColIndex is -1 when the backend could not
// assign the cell to a column.
type DataCell struct {
	ColIndex int    `json:"col_index" yaml:"col_index"`
	Key      string `json:"key,omitempty" yaml:"key,omitempty"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
	Text     string `json:"text" yaml:"text"`
}

// Field is one key/value pair of a row delivered as a flat object.
type Field struct {
	Key   string
	Value string
}

// DataRow is one OCR row. Rows normally carry Cells; rows decoded from a flat
// object carry Fields instead and have HasCells false.
type DataRow struct {
	Cells    []DataCell
	HasCells bool
	Fields   []Field
}

// CellRow builds a row from cells.
func CellRow(cells ...DataCell) DataRow {
	return DataRow{Cells: cells, HasCells: true}
}

// FlatRow builds a row from alternating key, value strings.
func FlatRow(kv ...string) DataRow {
	row := DataRow{}
	for i := 0; i+1 < len(kv); i += 2 {
		row.Fields = append(row.Fields, Field{Key: kv[i], Value: kv[i+1]})
	}
	return row
}

// ExtractedTotal is a column total as read by OCR from the ledger's totals row.
type ExtractedTotal struct {
	ColIndex int    `json:"col_index" yaml:"col_index"`
	Text     string `json:"text" yaml:"text"`
}

// Row is a sparse, insertion-ordered mapping from column name to cell text.
// Only cells that were actually populated are stored.
type Row struct {
	keys   []string
	values map[string]string
}

// NewRow builds a row from alternating key, value strings; later duplicates are ignored.
func NewRow(kv ...string) Row {
	var r Row
	for i := 0; i+1 < len(kv); i += 2 {
		r.setFirst(kv[i], kv[i+1])
	}
	return r
}

// setFirst stores value under key unless key is already set. It reports whether
// the value was stored.
func (r *Row) setFirst(key, value string) bool {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; ok {
		return false
	}
	r.keys = append(r.keys, key)
	r.values[key] = value
	return true
}

// Value returns the value under key, or "" when the cell is absent.
func (r Row) Value(key string) string {
	return r.values[key]
}

// Keys returns the populated keys in insertion order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// restrict drops keys not in allowed.
func (r Row) restrict(allowed map[string]struct{}) Row {
	var out Row
	for _, k := range r.keys {
		if _, ok := allowed[k]; ok {
			out.setFirst(k, r.values[k])
		}
	}
	return out
}

// MarshalJSON encodes the row as an object in insertion order.
func (r Row) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON decodes an object, keeping key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	fields, err := decodeOrderedObject(data)
	if err != nil {
		return err
	}
	*r = Row{}
	for _, f := range fields {
		r.setFirst(f.Key, f.Value)
	}
	return nil
}

// MarshalYAML encodes the row as a mapping in insertion order.
func (r Row) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range r.keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r.values[k]},
		)
	}
	return node, nil
}

// Table is the canonical reconstruction of one OCR response.
type Table struct {
	Headers []string `json:"headers" yaml:"headers"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}
