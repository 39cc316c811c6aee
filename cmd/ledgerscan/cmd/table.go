package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/ledgerscan/internal/metrics"
	"github.com/MeKo-Tech/ledgerscan/internal/table"
)

func newTableCommand(c *cli) *cobra.Command {
	tableCmd := &cobra.Command{
		Use:   "table <response.json|->",
		Short: "Rebuild a ledger table from an OCR table response",
		Long: `Read the OCR backend's sparse table description (header rows with spans,
data rows keyed by header label, declared column totals) and rebuild it into a
rectangular table. The result is written as CSV, HTML, JSON or YAML; declared
column totals are checked against the recomputed sums.

Use "-" to read the response from stdin. The text format is CSV.

Examples:
  ledgerscan table response.json
  ledgerscan table response.json --format html -o table.html
  cat response.json | ledgerscan table - --format json --fail-on-mismatch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := readResponse(cmd, args[0])
			if err != nil {
				return err
			}

			res := table.Build(resp, c.cfg.ToBuildOptions())
			for _, issue := range res.SpanIssues {
				slog.Warn("Header span inconsistency", "issue", issue.String())
			}
			mismatches := res.Mismatches()
			for _, m := range mismatches {
				slog.Warn("Column total mismatch",
					"column", m.Header, "computed", m.Computed, "declared", m.DeclaredText)
			}

			if metricsFile, _ := cmd.Flags().GetString("metrics-file"); metricsFile != "" {
				recorder := metrics.NewRecorder()
				recorder.ObserveTable(res)
				if err := recorder.WriteTextfile(metricsFile); err != nil {
					return err
				}
			}

			content, err := formatTable(res, c.cfg.Output.Format)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, c.cfg.Output.File, content); err != nil {
				return err
			}

			if failOnMismatch, _ := cmd.Flags().GetBool("fail-on-mismatch"); failOnMismatch && len(mismatches) > 0 {
				return fmt.Errorf("%d column(s): %w", len(mismatches), ErrTotalsMismatch)
			}
			return nil
		},
	}

	flags := tableCmd.Flags()
	flags.Int("identity-columns", table.DefaultValidator().IdentityColumns, "leading columns excluded from total checks")
	flags.Float64("tolerance", table.DefaultValidator().Tolerance, "largest difference still counted as a matching total")
	flags.Bool("validate-spans", true, "warn about header rows whose spans do not cover the table")
	flags.Bool("bom", false, "prefix CSV output with a UTF-8 byte order mark")
	flags.Bool("fail-on-mismatch", false, "exit with status 2 when a declared total does not match")
	flags.String("metrics-file", "", "write Prometheus metrics in textfile format to this path")

	c.bind(tableCmd, "table.identity_columns", "identity-columns")
	c.bind(tableCmd, "table.tolerance", "tolerance")
	c.bind(tableCmd, "table.validate_spans", "validate-spans")
	c.bind(tableCmd, "table.bom", "bom")

	return tableCmd
}

// readResponse decodes the table response at path, or stdin for "-".
func readResponse(cmd *cobra.Command, path string) (table.Response, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path) //nolint:gosec // G304: reading user-specified response file
		if err != nil {
			return table.Response{}, fmt.Errorf("failed to open response: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	resp, err := table.DecodeResponse(r)
	if err != nil {
		return table.Response{}, fmt.Errorf("failed to parse response %s: %w", path, err)
	}
	return resp, nil
}

// formatTable renders res in format.
func formatTable(res table.Result, format string) (string, error) {
	switch format {
	case "", "text", "csv":
		return res.CSV, nil
	case "html":
		return res.HTML, nil
	case "json":
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal table: %w", err)
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(res)
		if err != nil {
			return "", fmt.Errorf("failed to marshal table: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}
