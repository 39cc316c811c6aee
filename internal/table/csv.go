package table

import "strings"

// BOM is the UTF-8 byte order mark prepended to downloadable CSV.
const BOM = "\uFEFF"

// ToCSV renders t as CSV: a header line followed by one line per row, columns in
// t.Headers order. Lines are joined by "\n" with no trailing terminator. A field
// is quoted only when it contains a comma, a double quote, CR or LF.
func ToCSV(t Table) string {
	if len(t.Headers) == 0 {
		return ""
	}
	lines := make([]string, 0, len(t.Rows)+1)
	lines = append(lines, csvLine(t.Headers))

	fields := make([]string, len(t.Headers))
	for _, row := range t.Rows {
		for i, h := range t.Headers {
			fields[i] = row.Value(h)
		}
		lines = append(lines, csvLine(fields))
	}
	return strings.Join(lines, "\n")
}

// CSVDownload is ToCSV prefixed with a BOM so spreadsheet tools detect UTF-8.
func CSVDownload(t Table) string {
	return BOM + ToCSV(t)
}

func csvLine(fields []string) string {
	if len(fields) == 1 && Sanitize(fields[0]) == "" {
		// A lone empty field would otherwise be an empty line, which readers skip.
		return `""`
	}
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(csvField(Sanitize(f)))
	}
	return b.String()
}

func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
