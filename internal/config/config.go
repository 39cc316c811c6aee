package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/MeKo-Tech/ledgerscan/internal/quality"
	"github.com/MeKo-Tech/ledgerscan/internal/table"
)

// Output formats accepted by the commands.
var validFormats = []string{"text", "json", "csv", "yaml", "html"}

// DefaultConfig returns a configuration with the gate and table defaults.
func DefaultConfig() Config {
	policy := quality.DefaultPolicy()
	analyzer := quality.DefaultAnalyzerOptions()
	validator := table.DefaultValidator()

	return Config{
		LogLevel: "info",
		Verbose:  false,
		Analyzer: AnalyzerConfig{
			SampleStride:   analyzer.SampleStride,
			Workers:        analyzer.Workers,
			MaxDimension:   analyzer.MaxDimension,
			DarkThreshold:  analyzer.DarkThreshold,
			InkThreshold:   analyzer.InkThreshold,
			BorderFraction: analyzer.BorderFraction,
		},
		Quality: QualityConfig{
			MinVariance:           policy.MinVariance,
			ShadowDarkRatio:       policy.ShadowDarkRatio,
			ShadowMinMean:         policy.ShadowMinMean,
			IncompleteInnerRatio:  policy.IncompleteInnerRatio,
			IncompleteBorderRatio: policy.IncompleteBorderRatio,
			MinAspect:             policy.MinAspect,
			MaxAspect:             policy.MaxAspect,
		},
		Table: TableConfig{
			IdentityColumns: validator.IdentityColumns,
			Tolerance:       validator.Tolerance,
			ValidateSpans:   true,
			BOM:             false,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Batch: BatchConfig{
			Workers:         runtime.NumCPU(),
			Recursive:       false,
			ContinueOnError: true,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.Analyzer.SampleStride < 0 {
		return fmt.Errorf("invalid analyzer.sample_stride: %d (must not be negative)", c.Analyzer.SampleStride)
	}
	if c.Analyzer.Workers < 0 {
		return fmt.Errorf("invalid analyzer.workers: %d (must not be negative)", c.Analyzer.Workers)
	}
	if err := validateLuminance(c.Analyzer.DarkThreshold, "analyzer.dark_threshold"); err != nil {
		return err
	}
	if err := validateLuminance(c.Analyzer.InkThreshold, "analyzer.ink_threshold"); err != nil {
		return err
	}
	if c.Analyzer.BorderFraction < 0 || c.Analyzer.BorderFraction >= 0.5 {
		return fmt.Errorf("invalid analyzer.border_fraction: %.3f (must be in [0, 0.5))", c.Analyzer.BorderFraction)
	}

	if err := c.ToPolicy().Validate(); err != nil {
		return fmt.Errorf("invalid quality thresholds: %w", err)
	}
	if err := c.ToValidator().Check(); err != nil {
		return fmt.Errorf("invalid table settings: %w", err)
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	return nil
}

// ToPolicy converts the quality section to a gate policy.
func (c *Config) ToPolicy() quality.Policy {
	return quality.Policy{
		MinVariance:           c.Quality.MinVariance,
		ShadowDarkRatio:       c.Quality.ShadowDarkRatio,
		ShadowMinMean:         c.Quality.ShadowMinMean,
		IncompleteInnerRatio:  c.Quality.IncompleteInnerRatio,
		IncompleteBorderRatio: c.Quality.IncompleteBorderRatio,
		MinAspect:             c.Quality.MinAspect,
		MaxAspect:             c.Quality.MaxAspect,
	}
}

// ToAnalyzerOptions converts the analyzer section.
func (c *Config) ToAnalyzerOptions() quality.AnalyzerOptions {
	return quality.AnalyzerOptions{
		SampleStride:   c.Analyzer.SampleStride,
		Workers:        c.Analyzer.Workers,
		DarkThreshold:  c.Analyzer.DarkThreshold,
		InkThreshold:   c.Analyzer.InkThreshold,
		BorderFraction: c.Analyzer.BorderFraction,
		MaxDimension:   c.Analyzer.MaxDimension,
	}
}

// ToValidator converts the table section to a totals validator.
func (c *Config) ToValidator() table.Validator {
	return table.Validator{
		IdentityColumns: c.Table.IdentityColumns,
		Tolerance:       c.Table.Tolerance,
	}
}

// ToBuildOptions converts the table section to table build options.
func (c *Config) ToBuildOptions() table.BuildOptions {
	return table.BuildOptions{
		Validator:     c.ToValidator(),
		ValidateSpans: c.Table.ValidateSpans,
		BOM:           c.Table.BOM,
	}
}

// validateLuminance validates that a value is a luminance level in [0, 255].
func validateLuminance(value float64, name string) error {
	if value < 0 || value > 255 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0 and 255)", name, value)
	}
	return nil
}
