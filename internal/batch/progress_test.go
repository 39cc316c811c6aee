package batch

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsoleProgressCallback(&buf, "Gating ").WithUpdateInterval(0)

	p.OnStart(4)
	p.OnProgress(2, 4)
	p.OnError(3, errors.New("failed to load c.png"))
	p.OnProgress(4, 4)
	p.OnComplete()

	out := buf.String()
	assert.Contains(t, out, "Gating 0/4 (0.0%)")
	assert.Contains(t, out, "2/4 (50.0%)")
	assert.Contains(t, out, "Error at file 3: failed to load c.png")
	assert.Contains(t, out, "4/4 (100.0%)")
	assert.Contains(t, out, "Gating Completed in")
}

func TestConsoleProgressCallback_ThrottlesRedraws(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsoleProgressCallback(&buf, "").WithUpdateInterval(1 << 62)

	p.OnStart(100)
	for i := 1; i < 100; i++ {
		p.OnProgress(i, 100)
	}
	p.OnProgress(100, 100)

	out := buf.String()
	// The first update and the final one are always drawn.
	assert.Equal(t, 2, strings.Count(out, "\r"))
	assert.Contains(t, out, "100/100")
}

func TestLogProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewLogProgressCallback(logger, slog.LevelInfo).WithInterval(5)

	p.OnStart(12)
	for i := 1; i <= 12; i++ {
		p.OnProgress(i, 12)
	}
	p.OnError(7, errors.New("boom"))
	p.OnComplete()

	out := buf.String()
	assert.Contains(t, out, "Starting batch")
	// Logged at 5, 10 and the final 12.
	assert.Equal(t, 3, strings.Count(out, "Batch progress"))
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "Batch completed")
}

func TestNewLogProgressCallback_DefaultsLogger(t *testing.T) {
	p := NewLogProgressCallback(nil, slog.LevelDebug).WithInterval(0)
	assert.NotNil(t, p.logger)
	assert.Equal(t, 1, p.interval)
}
