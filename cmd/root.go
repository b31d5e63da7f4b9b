package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invreport/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invreport",
	Short: "invreport - generate structured reports from invoice PDFs",
	Long: `invreport reads downloaded invoice PDFs, extracts the text with a
layout-aware primary backend (falling back to a glyph-direct one when the
output looks corrupted), infers totals, VAT, billing periods, and categories
with Hebrew-locale heuristics, and writes the structured records as JSON,
CSV, or XLSX reports.

Municipal tax bills get special handling: VAT is forced to zero, totals can
be re-derived from the itemized amount block, and documents that bill several
properties at once are split into one record per billing unit.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("invreport executed")

		fmt.Println("Welcome to invreport!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
