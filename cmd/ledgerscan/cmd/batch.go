package cmd

import (
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/ledgerscan/internal/batch"
	"github.com/MeKo-Tech/ledgerscan/internal/metrics"
)

func newBatchCommand(c *cli) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch [directory|file...]",
		Short: "Gate many captures and PDFs in parallel",
		Long: `Check every image and PDF found in the given files and directories against the
capture-quality gate, using a pool of workers. Unreadable files are reported
alongside the verdicts unless --continue-on-error=false.

Examples:
  ledgerscan batch scans/
  ledgerscan batch scans/ --recursive --workers 8 --format csv -o gate.csv
  ledgerscan batch scans/ --include "*.jpg" --exclude "draft_*" --stats
  ledgerscan batch scans/ --metrics-file /var/lib/node_exporter/ledgerscan.prom`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("no input files or directories provided")
			}

			cfg := c.cfg
			bc := gateConfig(cmd, cfg)
			bc.Recursive = cfg.Batch.Recursive
			bc.ContinueOnError = cfg.Batch.ContinueOnError
			bc.IncludePatterns = cfg.Batch.Include
			bc.ExcludePatterns = cfg.Batch.Exclude
			bc.PageRange, _ = cmd.Flags().GetString("pages")

			if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
				interval, _ := cmd.Flags().GetDuration("progress-interval")
				bc.Progress = batch.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Gating ").
					WithUpdateInterval(interval)
			} else {
				bc.Progress = batch.NewLogProgressCallback(slog.Default(), slog.LevelDebug)
			}

			recorder := metrics.NewRecorder()
			bc.Observer = recorder

			res, err := batch.Run(cmd.Context(), args, bc)
			if err != nil {
				return err
			}

			if cfg.Batch.MetricsFile != "" {
				if err := recorder.WriteTextfile(cfg.Batch.MetricsFile); err != nil {
					return err
				}
				slog.Info("Metrics written", "file", cfg.Batch.MetricsFile)
			}

			if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
				res.PrintStats(cmd.ErrOrStderr())
			}

			return finishGate(cmd, res, bc.Format, bc.OutputFile)
		},
	}

	addGateFlags(c, batchCmd)
	addRotateFlag(batchCmd)

	flags := batchCmd.Flags()
	flags.BoolP("recursive", "r", false, "recursively scan directories")
	flags.Int("workers", runtime.NumCPU(), "number of parallel workers")
	flags.StringSlice("include", []string{}, "file name patterns to include (e.g., '*.jpg')")
	flags.StringSlice("exclude", []string{}, "file name patterns to exclude")
	flags.Bool("continue-on-error", true, "report unreadable files instead of aborting the batch")
	flags.String("metrics-file", "", "write Prometheus metrics in textfile format to this path")
	flags.String("pages", "", "page range for PDF inputs (e.g., '1-5', '1,3,5')")
	flags.Bool("progress", false, "show a progress bar on stderr")
	flags.Duration("progress-interval", 500*time.Millisecond, "progress update interval")
	flags.Bool("stats", false, "print processing statistics to stderr")

	c.bind(batchCmd, "batch.recursive", "recursive")
	c.bind(batchCmd, "batch.workers", "workers")
	c.bind(batchCmd, "batch.include", "include")
	c.bind(batchCmd, "batch.exclude", "exclude")
	c.bind(batchCmd, "batch.continue_on_error", "continue-on-error")
	c.bind(batchCmd, "batch.metrics_file", "metrics-file")

	return batchCmd
}
