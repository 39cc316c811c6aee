package table

import (
	"fmt"
	"math"
	"sort"
)

// TotalStatus is the outcome of comparing one column's declared total.
type TotalStatus string

const (
	// Match means the declared total agrees with the recomputed sum.
	Match TotalStatus = "match"
	// Mismatch means the two differ by more than the tolerance.
	Mismatch TotalStatus = "mismatch"
	// Unverified means no usable total was declared for the column.
	Unverified TotalStatus = "unverified"
)

// ColumnTotal is the cross-validation result of one column.
type ColumnTotal struct {
	Column       int         `json:"column" yaml:"column"`
	Header       string      `json:"header" yaml:"header"`
	Computed     float64     `json:"computed" yaml:"computed"`
	Declared     float64     `json:"declared,omitempty" yaml:"declared,omitempty"`
	DeclaredText string      `json:"declared_text,omitempty" yaml:"declared_text,omitempty"`
	Status       TotalStatus `json:"status" yaml:"status"`
}

// Validator recomputes column sums and compares them with OCR-declared totals.
type Validator struct {
	// IdentityColumns leading columns (member number, name) are not summed.
	IdentityColumns int
	// Tolerance is the largest difference still reported as Match.
	Tolerance float64
}

// DefaultValidator skips two identity columns and allows a difference of 0.01.
func DefaultValidator() Validator {
	return Validator{IdentityColumns: 2, Tolerance: 0.01}
}

// Validate applies DefaultValidator.
func Validate(t Table, declared []ExtractedTotal) map[int]ColumnTotal {
	return DefaultValidator().Validate(t, declared)
}

// Validate returns one entry per summed column, keyed by column index. Cell text
// that does not parse counts as zero. The result is advisory; t is not changed.
func (v Validator) Validate(t Table, declared []ExtractedTotal) map[int]ColumnTotal {
	first := max(v.IdentityColumns, 0)
	out := make(map[int]ColumnTotal, max(len(t.Headers)-first, 0))

	for col := first; col < len(t.Headers); col++ {
		h := t.Headers[col]
		sum := 0.0
		for _, row := range t.Rows {
			sum += numberOrZero(row.Value(h))
		}
		out[col] = ColumnTotal{Column: col, Header: h, Computed: sum, Status: Unverified}
	}

	seen := make(map[int]bool, len(declared))
	for _, d := range declared {
		ct, ok := out[d.ColIndex]
		if !ok || seen[d.ColIndex] {
			continue
		}
		seen[d.ColIndex] = true
		ct.DeclaredText = d.Text

		value, err := ParseNumber(d.Text)
		if err == nil {
			ct.Declared = value
			ct.Status = Match
			if math.Abs(value-ct.Computed) > v.Tolerance {
				ct.Status = Mismatch
			}
		}
		out[d.ColIndex] = ct
	}
	return out
}

// Check reports unusable settings.
func (v Validator) Check() error {
	if v.IdentityColumns < 0 {
		return fmt.Errorf("identity columns must not be negative: %d", v.IdentityColumns)
	}
	if v.Tolerance < 0 || math.IsNaN(v.Tolerance) {
		return fmt.Errorf("tolerance must not be negative: %v", v.Tolerance)
	}
	return nil
}

// SortedTotals returns the totals ordered by column.
func SortedTotals(totals map[int]ColumnTotal) []ColumnTotal {
	out := make([]ColumnTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Column < out[j].Column })
	return out
}

// Mismatches returns the columns whose declared total disagrees, ordered by column.
func Mismatches(totals map[int]ColumnTotal) []ColumnTotal {
	var out []ColumnTotal
	for _, ct := range SortedTotals(totals) {
		if ct.Status == Mismatch {
			out = append(out, ct)
		}
	}
	return out
}
