package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/sqlharvest/internal/crawler"
	"github.com/nao1215/sqlharvest/internal/model"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <page>",
		Short: "Fetch one page and print its SQL examples",
		Long: `Extract fetches a single page and prints the SQL examples crawl would store
for it, one per line. Nothing is written to the dataset.

Examples:
  sqlharvest extract sql_select.asp
  sqlharvest extract sql_select.asp --json --category "SQL Select"`,
		Args: cobra.ExactArgs(1),
		RunE: runExtractCmd,
	}

	cmd.Flags().String("category", "", "Category name used for JSON records (default: the page identifier)")
	cmd.Flags().Bool("json", false, "Print dataset records as JSON")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return err
	}
	if category == "" {
		category = args[0]
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg.Verbose)
	ctx, cancel := signalContext(logger)
	defer cancel()

	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	extractor, err := crawler.NewExtractor(cfg.SnippetClass, crawler.WithExtractorLogger(logger))
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	page, err := fetcher.Fetch(ctx, cfg.PageURL(args[0]), cfg.RootPageURL())
	if err != nil {
		return err
	}

	snippets, err := extractor.Extract(page.Body, category)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		dataset := model.NewDataset(nil)
		dataset.Append(category, snippets)
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(dataset.Records())
	}

	for _, sql := range snippets {
		fmt.Fprintln(out, sql)
	}
	return nil
}
