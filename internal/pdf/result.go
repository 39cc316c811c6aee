package pdf

import "github.com/MeKo-Tech/ledgerscan/internal/quality"

// PageResult is the gate outcome for one PDF page.
type PageResult struct {
	PageNumber int           `json:"page_number" yaml:"page_number"`
	Accepted   bool          `json:"accepted" yaml:"accepted"`
	Images     []ImageResult `json:"images" yaml:"images"`
}

// ImageResult is the gate outcome for one image of a page.
type ImageResult struct {
	ImageIndex int             `json:"image_index" yaml:"image_index"`
	Width      int             `json:"width" yaml:"width"`
	Height     int             `json:"height" yaml:"height"`
	Metrics    quality.Metrics `json:"metrics" yaml:"metrics"`
	Verdict    quality.Verdict `json:"verdict" yaml:"verdict"`
}

// DocumentResult is the gate outcome for a PDF document.
type DocumentResult struct {
	Filename   string         `json:"filename" yaml:"filename"`
	TotalPages int            `json:"total_pages" yaml:"total_pages"`
	Pages      []PageResult   `json:"pages" yaml:"pages"`
	Processing ProcessingInfo `json:"processing" yaml:"processing"`
}

// ProcessingInfo contains timing information.
type ProcessingInfo struct {
	ExtractionTimeMs int64 `json:"extraction_time_ms" yaml:"extraction_time_ms"`
	AnalysisTimeMs   int64 `json:"analysis_time_ms" yaml:"analysis_time_ms"`
	TotalTimeMs      int64 `json:"total_time_ms" yaml:"total_time_ms"`
}

// Accepted reports whether every gated page was accepted. A document without page
// images is not accepted.
func (d *DocumentResult) Accepted() bool {
	if len(d.Pages) == 0 {
		return false
	}
	for _, p := range d.Pages {
		if !p.Accepted {
			return false
		}
	}
	return true
}

// RejectedPages returns the page numbers that failed the gate.
func (d *DocumentResult) RejectedPages() []int {
	var out []int
	for _, p := range d.Pages {
		if !p.Accepted {
			out = append(out, p.PageNumber)
		}
	}
	return out
}
