package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/ledgerscan/internal/batch"
	"github.com/MeKo-Tech/ledgerscan/internal/pdf"
	"github.com/MeKo-Tech/ledgerscan/internal/quality"
)

func newPDFCommand(c *cli) *cobra.Command {
	pdfCmd := &cobra.Command{
		Use:   "pdf [file...]",
		Short: "Check the scanned pages of PDF files against the capture-quality gate",
		Long: `Extract the images embedded in PDF pages and check each one against the
capture-quality gate. Works with scanned PDFs, where every page is an image.

Examples:
  ledgerscan pdf ledger.pdf
  ledgerscan pdf *.pdf --format json
  ledgerscan pdf scan.pdf --pages 1-5
  ledgerscan pdf locked.pdf --password secret`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("no PDF files provided")
			}

			pages, _ := cmd.Flags().GetString("pages")
			userPW, _ := cmd.Flags().GetString("password")
			ownerPW, _ := cmd.Flags().GetString("owner-password")

			processor := pdf.NewProcessor(quality.NewAnalyzer(c.cfg.ToAnalyzerOptions()), c.cfg.ToPolicy())
			if userPW != "" || ownerPW != "" {
				processor.WithCredentials(&pdf.Credentials{UserPassword: userPW, OwnerPassword: ownerPW})
			}

			res := &batch.Result{WorkerCount: 1}
			for _, path := range args {
				doc, err := processor.ProcessFile(cmd.Context(), path, pages)
				if err != nil {
					if pdf.IsPasswordError(err) {
						slog.Error("PDF is encrypted", "file", path, "hint", "use --password or --owner-password")
					}
					return fmt.Errorf("failed to gate %s: %w", path, err)
				}
				res.Files = append(res.Files, batch.FileResult{
					Path:       path,
					Kind:       batch.KindPDF,
					Document:   doc,
					DurationMs: doc.Processing.TotalTimeMs,
				})
			}

			return finishGate(cmd, res, c.cfg.Output.Format, c.cfg.Output.File)
		},
	}

	addGateFlags(c, pdfCmd)
	pdfCmd.Flags().String("pages", "", "page range to process (e.g., '1-5', '1,3,5')")
	pdfCmd.Flags().StringP("password", "p", "", "user password for encrypted PDFs")
	pdfCmd.Flags().String("owner-password", "", "owner password for encrypted PDFs")

	return pdfCmd
}
