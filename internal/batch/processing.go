package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/ledgerscan/internal/pdf"
	"github.com/MeKo-Tech/ledgerscan/internal/quality"
	"github.com/MeKo-Tech/ledgerscan/internal/utils"
)

// Kinds of gated files.
const (
	KindImage = "image"
	KindPDF   = "pdf"
)

// FileResult is the gate outcome for one discovered file. Images carry Metrics and
// Verdict, PDFs carry Document. Error is set instead when the file could not be
// gated and the run continued.
type FileResult struct {
	Path       string              `json:"path" yaml:"path"`
	Kind       string              `json:"kind" yaml:"kind"`
	Width      int                 `json:"width,omitempty" yaml:"width,omitempty"`
	Height     int                 `json:"height,omitempty" yaml:"height,omitempty"`
	Metrics    *quality.Metrics    `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Verdict    *quality.Verdict    `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	Messages   []string            `json:"messages,omitempty" yaml:"messages,omitempty"`
	Document   *pdf.DocumentResult `json:"document,omitempty" yaml:"document,omitempty"`
	Error      string              `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMs int64               `json:"duration_ms" yaml:"duration_ms"`
}

// Accepted reports whether the file passed the gate.
func (f FileResult) Accepted() bool {
	switch {
	case f.Error != "":
		return false
	case f.Verdict != nil:
		return f.Verdict.Accepted
	case f.Document != nil:
		return f.Document.Accepted()
	}
	return false
}

// verdicts returns every verdict the file produced.
func (f FileResult) verdicts() []quality.Verdict {
	if f.Verdict != nil {
		return []quality.Verdict{*f.Verdict}
	}
	if f.Document == nil {
		return nil
	}
	var out []quality.Verdict
	for _, p := range f.Document.Pages {
		for _, img := range p.Images {
			out = append(out, img.Verdict)
		}
	}
	return out
}

// gater gates single files with a shared analyzer.
type gater struct {
	analyzer *quality.Analyzer
	policy   quality.Policy
	config   *Config
	pdf      *pdf.Processor
}

func newGater(config *Config) *gater {
	analyzer := quality.NewAnalyzer(config.Analyzer)
	return &gater{
		analyzer: analyzer,
		policy:   config.Policy,
		config:   config,
		pdf:      pdf.NewProcessor(analyzer, config.Policy),
	}
}

// gateFile gates one file. The returned error is the per-file failure.
func (g *gater) gateFile(ctx context.Context, path string) (FileResult, error) {
	start := time.Now()
	var (
		res FileResult
		err error
	)
	if isPDF(path) {
		res, err = g.gatePDF(ctx, path)
	} else {
		res, err = g.gateImage(path)
	}
	res.Path = path
	res.DurationMs = time.Since(start).Milliseconds()
	return res, err
}

func (g *gater) gateImage(path string) (FileResult, error) {
	res := FileResult{Kind: KindImage}
	if !utils.IsSupportedImage(path) {
		return res, fmt.Errorf("unsupported file format: %s", path)
	}

	img, meta, err := utils.LoadImage(path)
	if err != nil {
		return res, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if err := utils.ValidateImageConstraints(img, utils.DefaultImageConstraints()); err != nil {
		slog.Warn("image does not meet constraints", "file", path, "error", err)
	}
	img = utils.Rotate(img, g.config.Rotate)

	start := time.Now()
	metrics := g.analyzer.AnalyzeImage(img)
	verdict := g.policy.Evaluate(metrics)
	if g.config.Observer != nil {
		g.config.Observer.ObserveCapture(verdict, time.Since(start))
	}

	b := img.Bounds()
	res.Width, res.Height = b.Dx(), b.Dy()
	res.Metrics = &metrics
	res.Verdict = &verdict
	res.Messages = verdict.Messages()

	slog.Debug("Image gated", "file", path, "format", meta.Format, "accepted", verdict.Accepted)
	return res, nil
}

func (g *gater) gatePDF(ctx context.Context, path string) (FileResult, error) {
	res := FileResult{Kind: KindPDF}
	doc, err := g.pdf.ProcessFile(ctx, path, g.config.PageRange)
	if err != nil {
		return res, fmt.Errorf("failed to gate %s: %w", path, err)
	}
	res.Document = doc
	if g.config.Observer != nil {
		verdicts := res.verdicts()
		perImage := time.Duration(doc.Processing.AnalysisTimeMs) * time.Millisecond
		if len(verdicts) > 0 {
			perImage /= time.Duration(len(verdicts))
		}
		for _, v := range verdicts {
			g.config.Observer.ObserveCapture(v, perImage)
		}
	}
	return res, nil
}
