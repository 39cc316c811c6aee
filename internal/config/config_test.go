package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/ledgerscan/internal/quality"
	"github.com/MeKo-Tech/ledgerscan/internal/table"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Positive(t, cfg.Batch.Workers)
	assert.True(t, cfg.Table.ValidateSpans)
}

func TestDefaultConfig_MatchesPackageDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, quality.DefaultPolicy(), cfg.ToPolicy())
	assert.Equal(t, quality.DefaultAnalyzerOptions(), cfg.ToAnalyzerOptions())
	assert.Equal(t, table.DefaultValidator(), cfg.ToValidator())

	opts := cfg.ToBuildOptions()
	assert.Equal(t, table.DefaultBuildOptions(), opts)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"format", func(c *Config) { c.Output.Format = "xml" }, "invalid output format"},
		{"empty format allowed", func(c *Config) { c.Output.Format = "" }, ""},
		{"stride", func(c *Config) { c.Analyzer.SampleStride = -1 }, "sample_stride"},
		{"analyzer workers", func(c *Config) { c.Analyzer.Workers = -2 }, "analyzer.workers"},
		{"dark threshold", func(c *Config) { c.Analyzer.DarkThreshold = 300 }, "dark_threshold"},
		{"ink threshold", func(c *Config) { c.Analyzer.InkThreshold = -1 }, "ink_threshold"},
		{"border fraction", func(c *Config) { c.Analyzer.BorderFraction = 0.5 }, "border_fraction"},
		{"variance", func(c *Config) { c.Quality.MinVariance = -1 }, "invalid quality thresholds"},
		{"aspect", func(c *Config) { c.Quality.MinAspect = 2 }, "aspect range"},
		{"shadow ratio", func(c *Config) { c.Quality.ShadowDarkRatio = 1.5 }, "shadow dark ratio"},
		{"tolerance", func(c *Config) { c.Table.Tolerance = -0.01 }, "invalid table settings"},
		{"identity columns", func(c *Config) { c.Table.IdentityColumns = -1 }, "identity columns"},
		{"batch workers", func(c *Config) { c.Batch.Workers = 0 }, "invalid batch workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Converters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Quality.MinVariance = 1200
	cfg.Analyzer.SampleStride = 1
	cfg.Analyzer.MaxDimension = 2048
	cfg.Table.IdentityColumns = 1
	cfg.Table.Tolerance = 0.5
	cfg.Table.BOM = true
	cfg.Table.ValidateSpans = false

	assert.InDelta(t, 1200.0, cfg.ToPolicy().MinVariance, 0)
	assert.Equal(t, 1, cfg.ToAnalyzerOptions().SampleStride)
	assert.Equal(t, 2048, cfg.ToAnalyzerOptions().MaxDimension)

	opts := cfg.ToBuildOptions()
	assert.Equal(t, table.Validator{IdentityColumns: 1, Tolerance: 0.5}, opts.Validator)
	assert.True(t, opts.BOM)
	assert.False(t, opts.ValidateSpans)
}
