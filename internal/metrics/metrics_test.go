package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/ledgerscan/internal/quality"
	"github.com/MeKo-Tech/ledgerscan/internal/table"
)

func TestRecorder_ObserveCapture(t *testing.T) {
	r := NewRecorder()

	r.ObserveCapture(quality.Verdict{Accepted: true}, 5*time.Millisecond)
	r.ObserveCapture(quality.Verdict{Issues: []quality.Issue{quality.Blurred, quality.Shadowed}}, 10*time.Millisecond)
	r.ObserveCapture(quality.Verdict{Issues: []quality.Issue{quality.Blurred}}, time.Millisecond)

	assert.InDelta(t, 1, promtestutil.ToFloat64(r.capturesTotal.WithLabelValues(VerdictAccepted)), 0)
	assert.InDelta(t, 2, promtestutil.ToFloat64(r.capturesTotal.WithLabelValues(VerdictRejected)), 0)
	assert.InDelta(t, 2, promtestutil.ToFloat64(r.issuesTotal.WithLabelValues("blurred")), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(r.issuesTotal.WithLabelValues("shadowed")), 0)
	assert.Equal(t, 1, promtestutil.CollectAndCount(r.analysisDuration))
}

func TestRecorder_ObserveTable(t *testing.T) {
	r := NewRecorder()

	r.ObserveTable(table.Result{RowCount: 3, Totals: []table.ColumnTotal{
		{Header: "Jan", Status: table.Match},
		{Header: "Feb", Status: table.Mismatch},
		{Header: "Mar", Status: table.Unverified},
		{Header: "Apr", Status: table.Match},
	}})
	r.ObserveTable(table.Result{})

	assert.InDelta(t, 2, promtestutil.ToFloat64(r.tablesTotal), 0)
	assert.InDelta(t, 2, promtestutil.ToFloat64(r.columnTotals.WithLabelValues("match")), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(r.columnTotals.WithLabelValues("mismatch")), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(r.columnTotals.WithLabelValues("unverified")), 0)
}

func TestRecorder_RegistriesAreIndependent(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.ObserveCapture(quality.Verdict{Accepted: true}, time.Millisecond)

	assert.InDelta(t, 1, promtestutil.ToFloat64(a.capturesTotal.WithLabelValues(VerdictAccepted)), 0)
	assert.InDelta(t, 0, promtestutil.ToFloat64(b.capturesTotal.WithLabelValues(VerdictAccepted)), 0)
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveCapture(quality.Verdict{Issues: []quality.Issue{quality.NarrowAngle}}, 2*time.Millisecond)
	r.ObserveTable(table.Result{RowCount: 2})

	path := filepath.Join(t.TempDir(), "ledgerscan.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path) //nolint:gosec // G304: test output path
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `ledgerscan_captures_total{verdict="rejected"} 1`)
	assert.Contains(t, out, `ledgerscan_capture_issues_total{issue="narrow_angle"} 1`)
	assert.Contains(t, out, "ledgerscan_tables_total 1")
	assert.Contains(t, out, "ledgerscan_table_rows_count 1")
	assert.Contains(t, out, "ledgerscan_analysis_duration_seconds_bucket")
}

func TestRecorder_WriteTextfileBadPath(t *testing.T) {
	r := NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write metrics file")
}
