package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"invreport/internal/config"
	"invreport/internal/logger"
	"invreport/internal/parse"
	"invreport/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Parse invoice PDFs and write JSON/CSV/XLSX reports",
	Long: `Parse every invoice PDF in the input directory into structured
records and write them out as reports.

Each document is processed independently: a file whose text cannot be
extracted by either backend still produces a (near-empty) record carrying a
diagnostic note, so one malformed document never aborts the batch. Municipal
tax bills that cover several billing units are expanded into one record per
unit when the per-unit data can be recovered unambiguously.`,
	Example: `  # Parse ./invoices and write the default JSON + CSV reports
  invreport report

  # Parse a custom directory into custom outputs
  invreport report --input-dir downloads --json-output out.json --csv-output out.csv

  # Only process two specific files, with parsing diagnostics
  invreport report --files bill-01.pdf --files bill-02.pdf --debug

  # Additionally write an XLSX workbook and an aggregate summary
  invreport report --xlsx-output report.xlsx --summary-output summary.json`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("input-dir", "", "Directory containing invoice PDF files")
	reportCmd.Flags().String("json-output", "", "Path for the JSON report")
	reportCmd.Flags().String("csv-output", "", "Path for the CSV report")
	reportCmd.Flags().String("xlsx-output", "", "Path for an XLSX workbook (optional)")
	reportCmd.Flags().String("summary-output", "", "Path for an aggregate numeric summary (optional)")
	reportCmd.Flags().StringArray("files", nil, "Specific file names to process (relative to input dir)")
	reportCmd.Flags().Bool("debug", false, "Print detailed parsing diagnostics per invoice")
}

func runReport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("report")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	inputDir := flagOrDefault(cmd, "input-dir", cfg.InputDir)
	jsonOutput := flagOrDefault(cmd, "json-output", cfg.JSONOutput)
	csvOutput := flagOrDefault(cmd, "csv-output", cfg.CSVOutput)
	xlsxOutput := flagOrDefault(cmd, "xlsx-output", cfg.XLSXOutput)
	summaryOutput := flagOrDefault(cmd, "summary-output", cfg.SummaryOutput)
	files, _ := cmd.Flags().GetStringArray("files")
	debug, _ := cmd.Flags().GetBool("debug")

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().
		Str("input_dir", inputDir).
		Str("json_output", jsonOutput).
		Str("csv_output", csvOutput).
		Int("selected_files", len(files)).
		Msg("Starting report generation")

	ctx, cancel := signalContext(log)
	defer cancel()

	parser := parse.NewParser()
	records, err := parser.ParseInvoices(ctx, inputDir, files)
	if err != nil {
		log.Error().Err(err).Msg("Report generation failed")
		return err
	}

	if jsonOutput != "" {
		if err := report.WriteJSON(records, jsonOutput); err != nil {
			return err
		}
	}
	if csvOutput != "" {
		if err := report.WriteCSV(records, csvOutput); err != nil {
			return err
		}
	}
	if xlsxOutput != "" {
		if err := report.WriteXLSX(records, xlsxOutput); err != nil {
			return err
		}
	}
	if summaryOutput != "" {
		if err := report.WriteSummary(records, summaryOutput); err != nil {
			return err
		}
	}

	log.Info().Int("records", len(records)).Msg("Report generation complete")
	fmt.Printf("Generated %d records → %s, %s\n", len(records), jsonOutput, csvOutput)
	return nil
}

// flagOrDefault returns the flag value when the flag was set, otherwise the
// configured default.
func flagOrDefault(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		value, _ := cmd.Flags().GetString(name)
		return value
	}
	return fallback
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("Received signal, cancelling")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
