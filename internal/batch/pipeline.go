package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// fileJob is a single file to gate.
type fileJob struct {
	index int
	path  string
}

// fileResult is the outcome of gating a single file.
type fileResult struct {
	index  int
	result FileResult
	err    error
}

// gateFilesParallel gates paths in a bounded worker pool and returns results in
// the order of paths. Without continueOnError the first failing file, in input
// order, aborts the run.
func gateFilesParallel(ctx context.Context, g *gater, paths []string, workers int,
	continueOnError bool, progress ProgressCallback) ([]FileResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(paths))

	if progress != nil {
		progress.OnStart(len(paths))
		defer progress.OnComplete()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan fileJob, len(paths))
	results := make(chan fileResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker(ctx, g, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, path := range paths {
			select {
			case jobs <- fileJob{index: i, path: path}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]FileResult, len(paths))
	errs := make([]error, len(paths))
	done := make([]bool, len(paths))
	processed := 0
	for r := range results {
		ordered[r.index] = r.result
		errs[r.index] = r.err
		done[r.index] = true
		processed++

		if r.err != nil {
			if progress != nil {
				progress.OnError(processed, r.err)
			}
			if !continueOnError {
				cancel()
			}
		}
		if progress != nil {
			progress.OnProgress(processed, len(paths))
		}
	}

	for i := range paths {
		if errs[i] == nil {
			continue
		}
		if !continueOnError {
			return nil, fmt.Errorf("file %s: %w", paths[i], errs[i])
		}
		ordered[i].Path = paths[i]
		ordered[i].Error = errs[i].Error()
	}

	// Only cancellation by the caller leaves files unprocessed here.
	for i := range paths {
		if !done[i] {
			return nil, fmt.Errorf("batch canceled: %w", ctx.Err())
		}
	}
	return ordered, nil
}

// worker gates files from the jobs channel.
func worker(ctx context.Context, g *gater, jobs <-chan fileJob, results chan<- fileResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := ctx.Err(); err != nil {
				return
			}

			res, err := g.gateFile(ctx, job.path)

			select {
			case results <- fileResult{index: job.index, result: res, err: err}:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
