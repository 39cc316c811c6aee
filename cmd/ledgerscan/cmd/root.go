package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/ledgerscan/internal/config"
	"github.com/MeKo-Tech/ledgerscan/internal/version"
)

// ErrRejected is returned by gating commands run with --fail-on-reject when at
// least one capture was rejected. Execute maps it to exit status 2.
var ErrRejected = errors.New("one or more captures were rejected")

// ErrTotalsMismatch is returned by the table command run with --fail-on-mismatch.
var ErrTotalsMismatch = errors.New("column totals do not match")

// binding ties a flag to a configuration key.
type binding struct {
	key  string
	flag string
}

// cli is the state shared by one command tree: its own viper instance, so trees
// built for tests do not leak flag values into each other.
type cli struct {
	v        *viper.Viper
	loader   *config.Loader
	cfgFile  string
	cfg      *config.Config
	bindings map[*cobra.Command][]binding
}

// bind records that flag of cmd overrides key. Bindings are applied only for the
// command that runs, so commands may share keys.
func (c *cli) bind(cmd *cobra.Command, key, flag string) {
	c.bindings[cmd] = append(c.bindings[cmd], binding{key: key, flag: flag})
}

// NewRootCommand builds the ledgerscan command tree.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	c := &cli{
		v:        v,
		loader:   config.NewLoaderWithViper(v),
		bindings: make(map[*cobra.Command][]binding),
	}

	rootCmd := &cobra.Command{
		Use:   "ledgerscan",
		Short: "Capture-quality gate and table reconstruction for ledger photographs",
		Long: `ledgerscan checks photographs of handwritten ledger pages before they are sent
to OCR, and rebuilds the OCR backend's sparse table description into a
rectangular table with CSV, HTML and column-total views.

Examples:
  ledgerscan check page.jpg
  ledgerscan batch scans/ --recursive --format json
  ledgerscan pdf scans.pdf --pages 1-3
  ledgerscan table response.json --format html`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/ledgerscan, /etc/ledgerscan)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, csv, yaml, html)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output file (default: stdout)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return c.initialize(rootCmd, cmd)
	}

	rootCmd.AddCommand(
		newCheckCommand(c),
		newPDFCommand(c),
		newBatchCommand(c),
		newTableCommand(c),
		newConfigCommand(c),
		newVersionCommand(),
	)

	return rootCmd
}

// initialize binds the flags of the running command, loads the configuration and
// sets up logging.
func (c *cli) initialize(root, cmd *cobra.Command) error {
	persistent := map[string]string{
		"verbose":       "verbose",
		"log_level":     "log-level",
		"output.format": "format",
		"output.file":   "output",
	}
	for key, flag := range persistent {
		if err := c.v.BindPFlag(key, root.PersistentFlags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	for _, b := range c.bindings[cmd] {
		if err := c.v.BindPFlag(b.key, cmd.Flags().Lookup(b.flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", b.flag, err)
		}
	}

	cfg, err := c.loader.LoadWithFile(c.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	c.cfg = cfg

	setupLogging(cmd.ErrOrStderr(), cfg)
	slog.Debug("Configuration loaded", "file", c.loader.GetConfigFileUsed(), "command", cmd.Name())
	return nil
}

// setupLogging installs the JSON slog handler. Logs go to stderr so that stdout
// carries only command output.
func setupLogging(w io.Writer, cfg *config.Config) {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// ExitCode maps a command error to the process exit status: 0 on success, 2 for
// rejected captures or mismatched totals, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrRejected), errors.Is(err, ErrTotalsMismatch):
		return 2
	default:
		return 1
	}
}

// Execute runs the command tree. This is called by main.main().
func Execute() {
	if code := ExitCode(NewRootCommand().Execute()); code != 0 {
		os.Exit(code)
	}
}

// writeOutput writes content to the configured output file, or to the command's
// stdout when none is set.
func writeOutput(cmd *cobra.Command, outputFile, content string) error {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(content), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		slog.Info("Results written", "file", outputFile)
		return nil
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), content)
	return err
}
