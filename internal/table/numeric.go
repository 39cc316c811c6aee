package table

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// ErrNotNumeric is returned by ParseNumber when no number can be recovered.
var ErrNotNumeric = errors.New("not numeric")

// ParseNumber recovers a number from OCR cell text. Full-width characters are folded
// to ASCII, then everything except digits, '.' and '-' is dropped ("1,234.50 €"
// reads as 1234.5).
func ParseNumber(s string) (float64, error) {
	folded := width.Fold.String(s)
	var b strings.Builder
	for _, r := range folded {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, ErrNotNumeric
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	return f, nil
}

// numberOrZero is ParseNumber with failures collapsed to zero.
func numberOrZero(s string) float64 {
	f, err := ParseNumber(s)
	if err != nil {
		return 0
	}
	return f
}
