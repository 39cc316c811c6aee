package cmd

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/ledgerscan/internal/batch"
	"github.com/MeKo-Tech/ledgerscan/internal/config"
	"github.com/MeKo-Tech/ledgerscan/internal/quality"
)

// addGateFlags registers the analyzer and threshold overrides shared by the gating
// commands. Defaults mirror quality.DefaultPolicy and quality.DefaultAnalyzerOptions;
// the configuration file and environment take precedence over them unless the flag
// is set.
func addGateFlags(c *cli, cmd *cobra.Command) {
	policy := quality.DefaultPolicy()
	opts := quality.DefaultAnalyzerOptions()

	flags := cmd.Flags()
	flags.Int("stride", opts.SampleStride, "analyze every n-th pixel (1 = every pixel)")
	flags.Int("analyzer-workers", opts.Workers, "goroutines per image for the pixel fold (0 = NumCPU)")
	flags.Int("max-dimension", opts.MaxDimension, "downsize captures whose longest side exceeds this (0 = never)")
	flags.Float64("min-variance", policy.MinVariance, "luminance variance below which a capture is blurred")
	flags.Float64("shadow-dark-ratio", policy.ShadowDarkRatio, "dark pixel ratio above which a bright capture is shadowed")
	flags.Float64("shadow-min-mean", policy.ShadowMinMean, "mean luminance above which dark areas count as shadow")
	flags.Float64("incomplete-inner-ratio", policy.IncompleteInnerRatio, "interior ink ratio above which the table must reach the border")
	flags.Float64("incomplete-border-ratio", policy.IncompleteBorderRatio, "border ink ratio below which the table is incomplete")
	flags.Float64("min-aspect", policy.MinAspect, "minimum width/height ratio of a square-on capture")
	flags.Float64("max-aspect", policy.MaxAspect, "maximum width/height ratio of a square-on capture")
	flags.Bool("fail-on-reject", false, "exit with status 2 when any capture is rejected")

	c.bind(cmd, "analyzer.sample_stride", "stride")
	c.bind(cmd, "analyzer.workers", "analyzer-workers")
	c.bind(cmd, "analyzer.max_dimension", "max-dimension")
	c.bind(cmd, "quality.min_variance", "min-variance")
	c.bind(cmd, "quality.shadow_dark_ratio", "shadow-dark-ratio")
	c.bind(cmd, "quality.shadow_min_mean", "shadow-min-mean")
	c.bind(cmd, "quality.incomplete_inner_ratio", "incomplete-inner-ratio")
	c.bind(cmd, "quality.incomplete_border_ratio", "incomplete-border-ratio")
	c.bind(cmd, "quality.min_aspect", "min-aspect")
	c.bind(cmd, "quality.max_aspect", "max-aspect")
}

func addRotateFlag(cmd *cobra.Command) {
	cmd.Flags().Int("rotate", 0, "rotate captures clockwise by 90, 180 or 270 degrees before analysis")
}

// gateConfig maps the loaded configuration to a batch configuration.
func gateConfig(cmd *cobra.Command, cfg *config.Config) *batch.Config {
	bc := batch.DefaultConfig()
	bc.Analyzer = cfg.ToAnalyzerOptions()
	bc.Policy = cfg.ToPolicy()
	bc.Workers = cfg.Batch.Workers
	bc.Format = cfg.Output.Format
	bc.OutputFile = cfg.Output.File
	bc.Rotate, _ = cmd.Flags().GetInt("rotate")
	return bc
}

// finishGate writes res and applies --fail-on-reject.
func finishGate(cmd *cobra.Command, res *batch.Result, format, outputFile string) error {
	if err := res.SaveResults(cmd.OutOrStdout(), format, outputFile); err != nil {
		return err
	}

	failOnReject, _ := cmd.Flags().GetBool("fail-on-reject")
	if !failOnReject {
		return nil
	}
	for _, f := range res.Files {
		if !f.Accepted() {
			return fmt.Errorf("%s: %w", f.Path, ErrRejected)
		}
	}
	return nil
}

func newCheckCommand(c *cli) *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check <image...>",
		Short: "Check ledger photographs against the capture-quality gate",
		Long: `Check one or more photographs of ledger pages and report whether each one is
good enough to send to OCR. Rejected captures list every failed rule with the
message shown to the operator.

Supported formats: JPEG, PNG, BMP, TIFF, WebP

Examples:
  ledgerscan check page.jpg
  ledgerscan check *.png --format json
  ledgerscan check page.jpg --min-variance 600 --fail-on-reject`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("no input files provided")
			}

			bc := gateConfig(cmd, c.cfg)
			// A single unreadable capture fails the check.
			bc.ContinueOnError = false

			res, err := batch.Run(cmd.Context(), args, bc)
			if err != nil {
				return err
			}
			return finishGate(cmd, res, bc.Format, bc.OutputFile)
		},
	}

	addGateFlags(c, checkCmd)
	addRotateFlag(checkCmd)
	checkCmd.Flags().Int("workers", runtime.NumCPU(), "number of captures checked in parallel")
	c.bind(checkCmd, "batch.workers", "workers")

	return checkCmd
}
