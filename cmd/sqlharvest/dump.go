package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDumpCmd creates the dump command.
func NewDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <page>",
		Short: "Fetch one page and print its raw HTML",
		Long: `Dump fetches a single page, resolved against the root URL, with the root
page as Referer, and prints the response body. It is meant for checking the
markup when the navigation or snippet selectors need adjusting.

Examples:
  sqlharvest dump sql_select.asp > select.html
  sqlharvest dump ""   # the root URL itself`,
		Args: cobra.ExactArgs(1),
		RunE: runDumpCmd,
	}
}

// runDumpCmd executes the dump command.
func runDumpCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)
	ctx, cancel := signalContext(logger)
	defer cancel()

	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	page, err := fetcher.Fetch(ctx, cfg.PageURL(args[0]), cfg.RootPageURL())
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(page.Body)
	return err
}
