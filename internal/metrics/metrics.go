// Package metrics records gate and table outcomes as Prometheus metrics. A Recorder
// owns its registry so runs do not share state; WriteTextfile exports it in the
// node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MeKo-Tech/ledgerscan/internal/quality"
	"github.com/MeKo-Tech/ledgerscan/internal/table"
)

// Verdict label values.
const (
	VerdictAccepted = "accepted"
	VerdictRejected = "rejected"
)

// Recorder collects ledgerscan metrics.
type Recorder struct {
	registry *prometheus.Registry

	capturesTotal    *prometheus.CounterVec
	issuesTotal      *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	tablesTotal      prometheus.Counter
	tableRows        prometheus.Histogram
	columnTotals     *prometheus.CounterVec
}

// NewRecorder creates a recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		capturesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerscan_captures_total",
				Help: "Total number of gated captures",
			},
			[]string{"verdict"}, // verdict: accepted, rejected
		),

		issuesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerscan_capture_issues_total",
				Help: "Total number of quality issues raised by the gate",
			},
			[]string{"issue"},
		),

		analysisDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ledgerscan_analysis_duration_seconds",
				Help:    "Time spent computing metrics and evaluating the gate for one capture",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),

		tablesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledgerscan_tables_total",
				Help: "Total number of reconstructed tables",
			},
		),

		tableRows: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ledgerscan_table_rows",
				Help:    "Number of data rows per reconstructed table",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),

		columnTotals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerscan_column_totals_total",
				Help: "Column total checks by outcome",
			},
			[]string{"status"}, // status: match, mismatch, unverified
		),
	}
}

// Registry returns the registry the recorder writes to.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCapture records one gate verdict and the time it took.
func (r *Recorder) ObserveCapture(verdict quality.Verdict, elapsed time.Duration) {
	label := VerdictRejected
	if verdict.Accepted {
		label = VerdictAccepted
	}
	r.capturesTotal.WithLabelValues(label).Inc()
	for _, issue := range verdict.Issues {
		r.issuesTotal.WithLabelValues(issue.String()).Inc()
	}
	r.analysisDuration.Observe(elapsed.Seconds())
}

// ObserveTable records one reconstructed table.
func (r *Recorder) ObserveTable(res table.Result) {
	r.tablesTotal.Inc()
	r.tableRows.Observe(float64(res.RowCount))
	for _, t := range res.Totals {
		r.columnTotals.WithLabelValues(string(t.Status)).Inc()
	}
}

// WriteTextfile writes the current metrics to path in the textfile collector format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
