package table

import "strings"

// bookkeepingKeys are row-level fields of flat rows that are not table columns.
var bookkeepingKeys = map[string]struct{}{
	"cells":          {},
	"confidence":     {},
	"row_confidence": {},
	"row_index":      {},
	"rowIndex":       {},
	"_index":         {},
	"_id":            {},
}

// headerSet is an ordered set of column names.
type headerSet struct {
	names []string
	index map[string]struct{}
}

func newHeaderSet(capacity int) *headerSet {
	return &headerSet{
		names: make([]string, 0, capacity),
		index: make(map[string]struct{}, capacity),
	}
}

// add appends name unless it is blank or already present.
func (h *headerSet) add(name string) {
	if isBlank(name) {
		return
	}
	if _, ok := h.index[name]; ok {
		return
	}
	h.index[name] = struct{}{}
	h.names = append(h.names, name)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Reconstruct builds the canonical table.
//
// Headers start with base in declared order; cells whose column index falls
// outside base contribute fallback headers in the order they are first met. Within
// a row the first value written to a column wins. When base is empty the leaf
// labels of grid stand in for it, normalized like Response.BaseHeaders. Rows are processed in order and the result is
// independent of any prior call.
func Reconstruct(grid HeaderGrid, base []string, rows []DataRow) Table {
	if len(base) == 0 && len(grid) > 0 {
		base = leafHeaders(grid)
	}

	headers := newHeaderSet(len(base))
	for _, name := range base {
		headers.add(name)
	}

	out := make([]Row, 0, len(rows))
	for _, dr := range rows {
		var row Row
		if dr.HasCells {
			for _, cell := range dr.Cells {
				name := baseName(base, cell.ColIndex)
				if name == "" {
					name = fallbackLabel(cell, len(headers.names))
					headers.add(name)
				}
				row.setFirst(name, cell.Text)
			}
		} else {
			for _, f := range dr.Fields {
				if _, skip := bookkeepingKeys[f.Key]; skip || isBlank(f.Key) {
					continue
				}
				headers.add(f.Key)
				row.setFirst(f.Key, f.Value)
			}
		}
		out = append(out, row)
	}

	// Rows can only hold names that made it into the header set.
	for i := range out {
		out[i] = out[i].restrict(headers.index)
	}

	return Table{Headers: headers.names, Rows: out}
}

// baseName returns the base header for idx, or "" when idx does not address a
// usable base column.
func baseName(base []string, idx int) string {
	if idx < 0 || idx >= len(base) || isBlank(base[idx]) {
		return ""
	}
	return base[idx]
}

// fallbackLabel names a cell that has no base column.
func fallbackLabel(cell DataCell, headerCount int) string {
	if l := cleanLabel(cell.Label); l != "" {
		return l
	}
	if k := cleanLabel(cell.Key); k != "" {
		return k
	}
	if cell.ColIndex >= 0 {
		return columnName(cell.ColIndex + 1)
	}
	return columnName(headerCount + 1)
}
