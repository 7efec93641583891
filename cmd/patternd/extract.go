package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/patternd/internal/extract"
	"github.com/fyrsmithlabs/patternd/internal/library"
)

var extractThreshold float64

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Run the pattern library over legal text",
	Long: `Apply the library's compiled patterns to a text file (or stdin)
and print the recognized entity mentions as JSON.

Examples:
  # Extract from a file
  patternd extract brief.txt

  # Extract from stdin
  cat opinion.txt | patternd extract -

  # Only use patterns at or above a confidence floor
  patternd extract --min-confidence 0.8 brief.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().Float64Var(&extractThreshold, "min-confidence", 0, "drop patterns below this confidence")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var text []byte
	if len(args) == 0 || args[0] == "-" {
		text, err = io.ReadAll(os.Stdin)
	} else {
		text, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	data, err := os.ReadFile(cfg.Library.DocumentPath)
	if err != nil {
		return fmt.Errorf("read pattern document: %w", err)
	}
	doc, err := library.Parse(data)
	if err != nil {
		return err
	}

	ecfg := extract.DefaultConfig()
	ecfg.ConfidenceThreshold = extractThreshold
	extractor := extract.NewExtractor(doc, ecfg, logger)

	mentions := extractor.Extract(string(text))
	if mentions == nil {
		mentions = []extract.Mention{}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(mentions)
}
