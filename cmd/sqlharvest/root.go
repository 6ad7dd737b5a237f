package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sqlharvest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlharvest",
		Short: "Resumable crawler for SQL examples on documentation sites",
		Long: `sqlharvest crawls the category pages of a documentation site (by default
the w3schools SQL tutorial), extracts the highlighted SQL examples and keeps
them in a JSON file.

Every category is saved as soon as it is crawled. Running crawl again skips
the categories already in the file, so an interrupted crawl resumes where it
stopped.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .sqlharvest in current or home directory)")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewPagesCmd())
	cmd.AddCommand(NewDumpCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
