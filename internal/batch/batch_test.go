package batch

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/ledgerscan/internal/quality"
	"github.com/MeKo-Tech/ledgerscan/internal/testutil"
	"github.com/MeKo-Tech/ledgerscan/internal/utils"
)

type countingObserver struct {
	mu       sync.Mutex
	accepted int
	rejected int
}

func (o *countingObserver) ObserveCapture(v quality.Verdict, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if v.Accepted {
		o.accepted++
	} else {
		o.rejected++
	}
}

type recordingProgress struct {
	started, completed bool
	last, total        int
	errors             int
}

func (p *recordingProgress) OnStart(total int) {
	p.started = true
	p.total = total
}

func (p *recordingProgress) OnProgress(current, _ int) {
	p.last = current
}

func (p *recordingProgress) OnComplete() {
	p.completed = true
}

func (p *recordingProgress) OnError(int, error) {
	p.errors++
}

func captureDir(t *testing.T) (string, map[string]string) {
	t.Helper()
	dir := t.TempDir()
	paths := map[string]string{
		"good":   filepath.Join(dir, "a_good.png"),
		"skewed": filepath.Join(dir, "b_skewed.png"),
	}
	testutil.SaveImage(t, testutil.GoodCapture(), paths["good"])
	testutil.SaveImage(t, testutil.SkewedCapture(), paths["skewed"])
	return dir, paths
}

func TestRun_GatesDirectoryInOrder(t *testing.T) {
	dir, paths := captureDir(t)

	obs := &countingObserver{}
	progress := &recordingProgress{}
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.Observer = obs
	cfg.Progress = progress

	res, err := Run(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Files, 2)

	good, skewed := res.Files[0], res.Files[1]
	assert.Equal(t, paths["good"], good.Path)
	assert.Equal(t, KindImage, good.Kind)
	assert.True(t, good.Accepted())
	assert.Equal(t, 480, good.Width)
	assert.Equal(t, 360, good.Height)

	assert.Equal(t, paths["skewed"], skewed.Path)
	assert.False(t, skewed.Accepted())
	require.NotNil(t, skewed.Verdict)
	assert.True(t, skewed.Verdict.Has(quality.NarrowAngle))
	assert.NotEmpty(t, skewed.Messages)

	assert.Equal(t, 1, obs.accepted)
	assert.Equal(t, 1, obs.rejected)

	assert.True(t, progress.started)
	assert.True(t, progress.completed)
	assert.Equal(t, 2, progress.total)
	assert.Equal(t, 2, progress.last)
	assert.Equal(t, 0, progress.errors)

	stats := res.Stats()
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 1, stats.IssueCounts["narrow_angle"])
	assert.Equal(t, 2, stats.WorkerCount)
}

func TestRun_RotateTurnsCaptures(t *testing.T) {
	_, paths := captureDir(t)

	cfg := DefaultConfig()
	cfg.Rotate = 90
	res, err := Run(context.Background(), []string{paths["good"]}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, 360, res.Files[0].Width)
	assert.Equal(t, 480, res.Files[0].Height)
}

func TestRun_ContinueOnErrorKeepsFailures(t *testing.T) {
	dir, _ := captureDir(t)
	broken := testutil.WriteFile(t, dir, "c_broken.png", []byte("not a png"))
	notes := testutil.WriteFile(t, t.TempDir(), "notes.txt", []byte("hello"))

	progress := &recordingProgress{}
	cfg := DefaultConfig()
	cfg.Progress = progress
	res, err := Run(context.Background(), []string{dir, notes}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Files, 4)

	assert.Equal(t, broken, res.Files[2].Path)
	assert.Contains(t, res.Files[2].Error, "failed to load")
	assert.False(t, res.Files[2].Accepted())

	assert.Equal(t, notes, res.Files[3].Path)
	assert.Contains(t, res.Files[3].Error, "unsupported file format")

	assert.Equal(t, 2, progress.errors)
	assert.Equal(t, 2, res.Stats().Failed)
}

func TestRun_StopsOnErrorWhenNotContinuing(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "broken.png", []byte("not a png"))

	cfg := DefaultConfig()
	cfg.ContinueOnError = false
	cfg.Workers = 1
	res, err := Run(context.Background(), []string{dir}, cfg)
	require.Error(t, err)
	assert.Nil(t, res)

	var imgErr *utils.ImageProcessingError
	require.ErrorAs(t, err, &imgErr)
	assert.Equal(t, "decode", imgErr.Operation)
}

func TestRun_NoInputs(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "notes.txt", []byte("hello"))

	_, err := Run(context.Background(), []string{dir}, nil)
	require.ErrorIs(t, err, ErrNoInputs)
}

func TestRun_MissingPath(t *testing.T) {
	_, err := Run(context.Background(), []string{"/nonexistent/scans"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to discover files")
}

func TestRun_CanceledContext(t *testing.T) {
	dir, _ := captureDir(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, []string{dir}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestResult_SaveResults(t *testing.T) {
	dir, _ := captureDir(t)
	res, err := Run(context.Background(), []string{dir}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.SaveResults(&buf, "text", ""))
	assert.Contains(t, buf.String(), "accepted")

	out := filepath.Join(t.TempDir(), "gate.json")
	buf.Reset()
	require.NoError(t, res.SaveResults(&buf, "json", out))
	assert.Empty(t, buf.String())
	assert.True(t, testutil.FileExists(out))

	require.Error(t, res.SaveResults(&buf, "xml", ""))
}

func TestResult_PrintStats(t *testing.T) {
	dir, _ := captureDir(t)
	res, err := Run(context.Background(), []string{dir}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	res.PrintStats(&buf)
	out := buf.String()
	assert.Contains(t, out, "Total files: 2")
	assert.Contains(t, out, "Accepted: 1")
	assert.Contains(t, out, "Rejected: 1")
	assert.Contains(t, out, "narrow_angle: 1")
}
