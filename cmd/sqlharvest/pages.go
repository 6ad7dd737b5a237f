package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewPagesCmd creates the pages command.
func NewPagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List the categories linked from the root page",
		Long: `Pages fetches the root page once and prints the categories that crawl
would visit, in crawl order, with their page identifiers.

Examples:
  sqlharvest pages
  sqlharvest pages --json`,
		Args: cobra.NoArgs,
		RunE: runPagesCmd,
	}

	cmd.Flags().Bool("json", false, "Print categories as JSON")

	return cmd
}

// runPagesCmd executes the pages command.
func runPagesCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
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
	discoverer, err := newDiscoverer(cfg, fetcher, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	categories, err := discoverer.Discover(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(categories)
	}

	for i, c := range categories {
		fmt.Fprintf(out, "%3d  %-40s %s\n", i+1, c.Name, c.PageID)
	}
	fmt.Fprintf(out, "\n%d categories\n", len(categories))
	return nil
}
