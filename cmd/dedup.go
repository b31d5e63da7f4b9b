package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invreport/internal/config"
	"invreport/internal/dedup"
	"invreport/internal/logger"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Find and move byte-identical duplicate invoice PDFs",
	Long: `Scan the input directory tree for PDFs whose content hash matches a
file already seen, and move the extra copies into a duplicates directory.

By default the scan is a dry run that only reports what would be moved; pass
--apply to actually move files. With --index the content hashes persist
across runs, so a re-download of an already-processed invoice is recognized
even after the original was filed away.`,
	Example: `  # Report duplicates under ./invoices without touching anything
  invreport dedup

  # Move duplicates into invoices/duplicates
  invreport dedup --apply

  # Keep a persistent hash index between runs
  invreport dedup --index .invreport.db --apply`,
	RunE: runDedup,
}

func init() {
	rootCmd.AddCommand(dedupCmd)

	dedupCmd.Flags().String("input-dir", "", "Root directory containing invoice PDFs")
	dedupCmd.Flags().String("move-to", "", "Destination directory for duplicates (default: <input-dir>/duplicates)")
	dedupCmd.Flags().String("index", "", "Path of a persistent hash index database (optional)")
	dedupCmd.Flags().Bool("apply", false, "Move duplicates instead of only reporting them")
}

func runDedup(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("dedup")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	inputDir := flagOrDefault(cmd, "input-dir", cfg.InputDir)
	moveTo := flagOrDefault(cmd, "move-to", "")
	indexPath := flagOrDefault(cmd, "index", cfg.DedupIndexPath)
	apply, _ := cmd.Flags().GetBool("apply")

	if moveTo == "" {
		moveTo = inputDir + "/" + cfg.DuplicatesDir
	}

	var index *dedup.Index
	if indexPath != "" {
		index, err = dedup.OpenIndex(indexPath)
		if err != nil {
			return err
		}
		defer index.Close()
	}

	log.Info().
		Str("input_dir", inputDir).
		Str("move_to", moveTo).
		Bool("apply", apply).
		Msg("Starting duplicate scan")

	duplicates, err := dedup.Scan(inputDir, index)
	if err != nil {
		log.Error().Err(err).Msg("Duplicate scan failed")
		return err
	}

	for _, dup := range duplicates {
		if apply {
			continue
		}
		fmt.Printf("[DRY] %s duplicates %s\n", dup.Path, dup.Canonical)
	}
	if apply {
		if err := dedup.Apply(duplicates, moveTo); err != nil {
			return err
		}
	}

	log.Info().Int("duplicates", len(duplicates)).Msg("Duplicate scan complete")
	fmt.Printf("Found %d duplicate files\n", len(duplicates))
	return nil
}
