package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/sqlharvest/internal/database"
	"github.com/nao1215/sqlharvest/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded crawl runs and page fetches",
		Long: `History lists the crawl runs recorded in the history database and the
category pages fetched during them, most recent first.

The history database lives in the XDG data directory
(~/.local/share/sqlharvest/sqlharvest.db on Linux) unless history_dir is set
in the configuration file.

Examples:
  sqlharvest history
  sqlharvest history --category "SQL Joins"
  sqlharvest history --run 3 --markdown`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int("limit", 10, "Maximum number of runs and fetches to show (0 shows all)")
	cmd.Flags().String("category", "", "Only show fetches of this category")
	cmd.Flags().Int64("run", 0, "Only show this run and its fetches")
	cmd.Flags().Bool("json", false, "Print history as JSON")
	cmd.Flags().Bool("markdown", false, "Print history as Markdown")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg.Verbose)

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.HistoryDir, opts)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			fmt.Fprintln(out, "No crawl history recorded yet.")
			return nil
		}
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("failed to close history database", "error", cerr)
		}
	}()

	ctx := cmd.Context()
	history := &report.History{}

	if runID != 0 {
		run, err := db.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %d not found", runID)
		}
		history.Runs = append(history.Runs, *run)
	} else {
		history.Runs, err = db.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
	}

	history.Fetches, err = db.ListFetches(ctx, database.FetchQuery{
		Category: category,
		RunID:    runID,
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	_, err = newReportWriter(out, format, cfg.Verbose, 0).WriteHistory(history)
	return err
}
