package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/patternd/internal/merge"
)

var mergeJSON bool

var mergeCmd = &cobra.Command{
	Use:   "merge <phase.yaml>",
	Short: "Integrate a phase bundle into the master pattern document",
	Long: `Integrate one numbered phase of pattern additions into the master
document. The merge validates the bundle and document first, writes a
phase-tagged backup of the pre-merge document, and replaces the master
atomically. Re-running an already integrated phase fails without touching
the document.

Examples:
  # Integrate phase 3
  patternd merge phase3_patterns.yaml

  # Machine-readable result
  patternd merge --json phase3_patterns.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().BoolVar(&mergeJSON, "json", false, "print the merge result as JSON")
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	bundle, err := merge.LoadBundle(args[0])
	if err != nil {
		return fmt.Errorf("load phase bundle: %w", err)
	}

	svc, err := merge.NewService(&merge.Config{
		DocumentPath: cfg.Library.DocumentPath,
		BackupDir:    cfg.Library.BackupDir,
	}, logger)
	if err != nil {
		return err
	}

	res, err := svc.Integrate(cmd.Context(), bundle)
	if err != nil {
		return fmt.Errorf("integrate phase %d: %w", bundle.Phase, err)
	}

	if mergeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Printf("Phase %d integrated: %d patterns, %d new entity types\n",
		res.Phase, res.PatternsAdded, res.NewEntityTypes)
	fmt.Printf("Library now holds %d patterns\n", res.TotalPatterns)
	fmt.Printf("Backup: %s\n", res.BackupPath)
	return nil
}
