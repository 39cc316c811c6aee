package table

// BuildOptions controls Build.
type BuildOptions struct {
	Validator     Validator
	ValidateSpans bool
	// BOM prefixes the CSV with a byte order mark for download.
	BOM bool
}

// DefaultBuildOptions validates totals with DefaultValidator and checks spans.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Validator: DefaultValidator(), ValidateSpans: true}
}

// Result is the reconstructed table together with its derived views.
type Result struct {
	Headers    []string      `json:"headers" yaml:"headers"`
	Rows       []Row         `json:"rows" yaml:"rows"`
	CSV        string        `json:"csv" yaml:"csv"`
	HTML       string        `json:"html" yaml:"html"`
	RowCount   int           `json:"row_count" yaml:"row_count"`
	ColCount   int           `json:"col_count" yaml:"col_count"`
	Totals     []ColumnTotal `json:"totals" yaml:"totals"`
	SpanIssues []SpanIssue   `json:"span_issues,omitempty" yaml:"span_issues,omitempty"`
}

// Mismatches returns the totals flagged for review.
func (r Result) Mismatches() []ColumnTotal {
	var out []ColumnTotal
	for _, ct := range r.Totals {
		if ct.Status == Mismatch {
			out = append(out, ct)
		}
	}
	return out
}

// Build reconstructs resp and derives every view of it. Calling it twice with the
// same input gives identical results.
func Build(resp Response, opts BuildOptions) Result {
	base := resp.BaseHeaders()
	t := Reconstruct(resp.HeaderRows, base, resp.DataRows)

	csv := ToCSV(t)
	if opts.BOM {
		csv = CSVDownload(t)
	}

	res := Result{
		Headers:  t.Headers,
		Rows:     t.Rows,
		CSV:      csv,
		HTML:     ToHTML(t, resp.HeaderRows),
		RowCount: len(t.Rows),
		ColCount: len(t.Headers),
		Totals:   SortedTotals(opts.Validator.Validate(t, resp.Totals)),
	}
	if opts.ValidateSpans {
		res.SpanIssues = ValidateSpans(resp.HeaderRows, len(base))
	}
	return res
}
