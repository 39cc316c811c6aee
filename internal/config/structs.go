//nolint:lll
package config

// Config is the complete ledgerscan configuration. It is loaded from a config
// file, LEDGERSCAN_* environment variables and command-line flags, in increasing
// precedence.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pixel sampling
	Analyzer AnalyzerConfig `mapstructure:"analyzer" yaml:"analyzer" json:"analyzer"`

	// Gate thresholds
	Quality QualityConfig `mapstructure:"quality" yaml:"quality" json:"quality"`

	// Table reconstruction and totals
	Table TableConfig `mapstructure:"table" yaml:"table" json:"table"`

	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// AnalyzerConfig contains pixel sampling settings.
type AnalyzerConfig struct {
	SampleStride   int     `mapstructure:"sample_stride" yaml:"sample_stride" json:"sample_stride"`
	Workers        int     `mapstructure:"workers" yaml:"workers" json:"workers"`
	MaxDimension   int     `mapstructure:"max_dimension" yaml:"max_dimension" json:"max_dimension"`
	DarkThreshold  float64 `mapstructure:"dark_threshold" yaml:"dark_threshold" json:"dark_threshold"`
	InkThreshold   float64 `mapstructure:"ink_threshold" yaml:"ink_threshold" json:"ink_threshold"`
	BorderFraction float64 `mapstructure:"border_fraction" yaml:"border_fraction" json:"border_fraction"`
}

// QualityConfig contains the capture gate thresholds.
type QualityConfig struct {
	MinVariance           float64 `mapstructure:"min_variance" yaml:"min_variance" json:"min_variance"`
	ShadowDarkRatio       float64 `mapstructure:"shadow_dark_ratio" yaml:"shadow_dark_ratio" json:"shadow_dark_ratio"`
	ShadowMinMean         float64 `mapstructure:"shadow_min_mean" yaml:"shadow_min_mean" json:"shadow_min_mean"`
	IncompleteInnerRatio  float64 `mapstructure:"incomplete_inner_ratio" yaml:"incomplete_inner_ratio" json:"incomplete_inner_ratio"`
	IncompleteBorderRatio float64 `mapstructure:"incomplete_border_ratio" yaml:"incomplete_border_ratio" json:"incomplete_border_ratio"`
	MinAspect             float64 `mapstructure:"min_aspect" yaml:"min_aspect" json:"min_aspect"`
	MaxAspect             float64 `mapstructure:"max_aspect" yaml:"max_aspect" json:"max_aspect"`
}

// TableConfig contains table reconstruction settings.
type TableConfig struct {
	IdentityColumns int     `mapstructure:"identity_columns" yaml:"identity_columns" json:"identity_columns"`
	Tolerance       float64 `mapstructure:"tolerance" yaml:"tolerance" json:"tolerance"`
	ValidateSpans   bool    `mapstructure:"validate_spans" yaml:"validate_spans" json:"validate_spans"`
	BOM             bool    `mapstructure:"bom" yaml:"bom" json:"bom"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// BatchConfig contains batch gating settings.
type BatchConfig struct {
	Workers         int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	ContinueOnError bool     `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	Include         []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude         []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	MetricsFile     string   `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}
