package table

import "strings"

// unrenderable are cell texts produced by lossy upstream serialization that stand
// for a missing or non-finite value.
var unrenderable = map[string]struct{}{
	"NaN":       {},
	"undefined": {},
	"Infinity":  {},
	"+Infinity": {},
	"-Infinity": {},
}

// Sanitize canonicalizes a cell value before it is serialized. Missing and
// non-finite values become "". CSV and HTML output both go through it.
func Sanitize(s string) string {
	if _, bad := unrenderable[strings.TrimSpace(s)]; bad {
		return ""
	}
	return s
}
