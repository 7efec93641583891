package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/patternd/internal/library"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the master document's structure and counters",
	Long: `Parse the master pattern document and verify its internal
invariants: aggregate counters reconcile with the group contents, pattern
IDs are unique, entity types are well formed, and confidences are in range.

Exit status is non-zero when the document is malformed or inconsistent.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	data, err := os.ReadFile(cfg.Library.DocumentPath)
	if err != nil {
		return fmt.Errorf("read pattern document: %w", err)
	}
	doc, err := library.Parse(data)
	if err != nil {
		return err
	}
	if err := library.Validate(doc); err != nil {
		return err
	}

	fmt.Printf("%s: ok (%d patterns, %d entity types, %d groups, %d phases)\n",
		cfg.Library.DocumentPath,
		doc.Metadata.TotalPatterns,
		doc.Metadata.EntityTypesDefined,
		len(doc.Groups),
		len(doc.Metadata.Phases),
	)
	return nil
}
