// Package batch gates many captures at once: it discovers image and PDF files,
// runs them through the capture-quality gate in a bounded worker pool and formats
// the outcome.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"
)

// ErrNoInputs is returned when discovery finds nothing to gate.
var ErrNoInputs = errors.New("no image or PDF files found")

// Run discovers the files under paths and gates them with the given configuration.
func Run(ctx context.Context, paths []string, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig()
	}

	files, err := discoverFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoInputs
	}

	g := newGater(config)

	startTime := time.Now()
	results, err := gateFilesParallel(ctx, g, files, config.Workers, config.ContinueOnError, config.Progress)
	duration := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Result{
		Files:       results,
		Duration:    duration,
		WorkerCount: min(workers, len(files)),
	}, nil
}
