package batch

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MeKo-Tech/ledgerscan/internal/quality"
)

// Observer receives one call per gated image. The metrics recorder implements it.
type Observer interface {
	ObserveCapture(verdict quality.Verdict, elapsed time.Duration)
}

// Config holds all configuration for a batch gate run.
type Config struct {
	// Gate settings
	Analyzer quality.AnalyzerOptions
	Policy   quality.Policy
	// Rotate turns every image clockwise before analysis (multiples of 90).
	Rotate int
	// PageRange selects PDF pages, e.g. "1-3,5". Empty means all pages.
	PageRange string

	// Parallel processing settings
	Workers         int
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Output settings
	Format     string
	OutputFile string

	// Progress and instrumentation
	Progress ProgressCallback
	Observer Observer
}

// DefaultConfig returns the settings used by the batch command.
func DefaultConfig() *Config {
	return &Config{
		Analyzer:        quality.DefaultAnalyzerOptions(),
		Policy:          quality.DefaultPolicy(),
		ContinueOnError: true,
		Format:          "text",
	}
}

// Result holds the result of a batch run. Files is in discovery order.
type Result struct {
	Files       []FileResult  `json:"files" yaml:"files"`
	Duration    time.Duration `json:"-" yaml:"-"`
	WorkerCount int           `json:"-" yaml:"-"`
}

// FormatResults formats the results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r, format)
}

// SaveResults writes the formatted results to outputFile, or to w when outputFile
// is empty.
func (r *Result) SaveResults(w io.Writer, format, outputFile string) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprint(w, output)
	return err
}

// Stats summarizes a run.
type Stats struct {
	TotalFiles       int            `json:"total_files" yaml:"total_files"`
	Accepted         int            `json:"accepted" yaml:"accepted"`
	Rejected         int            `json:"rejected" yaml:"rejected"`
	Failed           int            `json:"failed" yaml:"failed"`
	IssueCounts      map[string]int `json:"issue_counts" yaml:"issue_counts"`
	WorkerCount      int            `json:"worker_count" yaml:"worker_count"`
	TotalDuration    time.Duration  `json:"total_duration_ns" yaml:"total_duration_ns"`
	AveragePerFile   time.Duration  `json:"average_per_file_ns" yaml:"average_per_file_ns"`
	ThroughputPerSec float64        `json:"throughput_per_sec" yaml:"throughput_per_sec"`
}

// Stats calculates summary statistics. Issues are counted once per gated image.
func (r *Result) Stats() Stats {
	s := Stats{
		TotalFiles:    len(r.Files),
		IssueCounts:   make(map[string]int),
		WorkerCount:   r.WorkerCount,
		TotalDuration: r.Duration,
	}
	for _, f := range r.Files {
		switch {
		case f.Error != "":
			s.Failed++
		case f.Accepted():
			s.Accepted++
		default:
			s.Rejected++
		}
		for _, v := range f.verdicts() {
			for _, issue := range v.Issues {
				s.IssueCounts[issue.String()]++
			}
		}
	}
	if processed := s.Accepted + s.Rejected; processed > 0 && r.Duration > 0 {
		s.AveragePerFile = r.Duration / time.Duration(processed)
		s.ThroughputPerSec = float64(processed) / r.Duration.Seconds()
	}
	return s
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer) {
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total files: %d\n", stats.TotalFiles)
	_, _ = fmt.Fprintf(w, "  Accepted: %d\n", stats.Accepted)
	_, _ = fmt.Fprintf(w, "  Rejected: %d\n", stats.Rejected)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.Failed)
	for _, issue := range quality.AllIssues {
		if n := stats.IssueCounts[issue.String()]; n > 0 {
			_, _ = fmt.Fprintf(w, "  %s: %d\n", issue, n)
		}
	}
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", stats.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.TotalDuration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per file: %v\n", stats.AveragePerFile.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f files/sec\n", stats.ThroughputPerSec)
}
