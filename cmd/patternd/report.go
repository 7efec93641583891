package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/patternd/internal/coverage"
	"github.com/fyrsmithlabs/patternd/internal/entitytypes"
	"github.com/fyrsmithlabs/patternd/internal/library"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute the coverage report and print it as JSON",
	Long: `Compute the pattern library coverage report against the
authoritative entity-type catalog and print it to stdout as JSON.

The report is advisory: a "warning" or "critical" health status is data to
act on, not a command failure. The command only fails when the document or
catalog cannot be read.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
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

	catalog, err := entitytypes.Load(cfg.Library.EntityTypesPath)
	if err != nil {
		return err
	}

	report := coverage.NewAggregator(logger).Analyze(doc.Registry(), catalog.Names())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
