package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/MeKo-Tech/ledgerscan/internal/quality"
)

// Processor runs the page images of PDF documents through the capture gate.
type Processor struct {
	analyzer    *quality.Analyzer
	policy      quality.Policy
	credentials *Credentials
}

// NewProcessor creates a processor with the given analyzer and policy.
func NewProcessor(analyzer *quality.Analyzer, policy quality.Policy) *Processor {
	if analyzer == nil {
		analyzer = quality.NewAnalyzer(quality.DefaultAnalyzerOptions())
	}
	return &Processor{analyzer: analyzer, policy: policy}
}

// WithCredentials sets the passwords used to open encrypted documents.
func (p *Processor) WithCredentials(creds *Credentials) *Processor {
	p.credentials = creds
	return p
}

// ProcessFile gates every image on the selected pages of filename.
func (p *Processor) ProcessFile(ctx context.Context, filename, pageRange string) (*DocumentResult, error) {
	start := time.Now()

	images, err := ExtractPageImages(filename, pageRange, p.credentials)
	if err != nil {
		return nil, err
	}
	extracted := time.Now()

	total, err := api.PageCountFile(filename)
	if err != nil {
		slog.Debug("Page count unavailable", "file", filename, "error", err)
		total = 0
	}

	doc := &DocumentResult{Filename: filename, TotalPages: total}
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("processing %s: %w", filename, err)
		}

		metrics := p.analyzer.AnalyzeImage(img.Image)
		verdict := p.policy.Evaluate(metrics)
		b := img.Image.Bounds()

		if n := len(doc.Pages); n == 0 || doc.Pages[n-1].PageNumber != img.Page {
			doc.Pages = append(doc.Pages, PageResult{PageNumber: img.Page, Accepted: true})
		}
		page := &doc.Pages[len(doc.Pages)-1]
		page.Images = append(page.Images, ImageResult{
			ImageIndex: img.Index,
			Width:      b.Dx(),
			Height:     b.Dy(),
			Metrics:    metrics,
			Verdict:    verdict,
		})
		page.Accepted = page.Accepted && verdict.Accepted
	}

	end := time.Now()
	doc.Processing = ProcessingInfo{
		ExtractionTimeMs: extracted.Sub(start).Milliseconds(),
		AnalysisTimeMs:   end.Sub(extracted).Milliseconds(),
		TotalTimeMs:      end.Sub(start).Milliseconds(),
	}

	slog.Debug("PDF gated", "file", filename, "pages", len(doc.Pages), "accepted", doc.Accepted())
	return doc, nil
}
