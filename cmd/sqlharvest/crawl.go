package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/sqlharvest/internal/config"
	"github.com/nao1215/sqlharvest/internal/crawler"
	"github.com/nao1215/sqlharvest/internal/database"
	"github.com/nao1215/sqlharvest/internal/pipeline"
	"github.com/nao1215/sqlharvest/internal/store"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl every category and collect its SQL examples",
		Long: `Crawl discovers the categories linked from the root page and fetches each
category page in order, waiting a random politeness delay before every
request. The SQL examples of each page are appended to the output file,
which is rewritten after every category.

Categories already present in the output file are skipped, so running crawl
again after an interruption or a failure resumes where it stopped.

Examples:
  # Crawl with the defaults (w3schools SQL tutorial, sqls.json)
  sqlharvest crawl

  # Write to another file and crawl faster
  sqlharvest crawl -o data/sqls.json --delay-min 1s --delay-max 2s

  # Honour robots.txt and do not record history
  sqlharvest crawl --respect-robots --no-history`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutputFile, "Dataset file to read and rewrite")
	cmd.Flags().String("root-url", config.DefaultRootURL, "Listing page that links to every category")
	cmd.Flags().Duration("delay-min", config.DefaultDelayMin, "Minimum politeness delay before each category")
	cmd.Flags().Duration("delay-max", config.DefaultDelayMax, "Maximum politeness delay before each category")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "Per-request timeout (0 disables it)")
	cmd.Flags().String("user-agent-strategy", config.DefaultUserAgentStrategy,
		"How identities are picked: random or rotate")
	cmd.Flags().Bool("respect-robots", false, "Skip category pages disallowed by robots.txt")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := applyCrawlFlags(cmd, cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), logger)
}

// applyCrawlFlags overrides cfg with the flags set on the command line.
// Flags left at their defaults keep the values from the configuration file.
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("output") {
		v, err := flags.GetString("output")
		if err != nil {
			return err
		}
		cfg.OutputFile = v
	}
	if flags.Changed("root-url") {
		v, err := flags.GetString("root-url")
		if err != nil {
			return err
		}
		cfg.RootURL = v
	}
	if flags.Changed("delay-min") {
		v, err := flags.GetDuration("delay-min")
		if err != nil {
			return err
		}
		cfg.DelayMin = v
	}
	if flags.Changed("delay-max") {
		v, err := flags.GetDuration("delay-max")
		if err != nil {
			return err
		}
		cfg.DelayMax = v
	}
	if flags.Changed("timeout") {
		v, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = v
	}
	if flags.Changed("user-agent-strategy") {
		v, err := flags.GetString("user-agent-strategy")
		if err != nil {
			return err
		}
		cfg.UserAgentStrategy = v
	}
	if flags.Changed("respect-robots") {
		v, err := flags.GetBool("respect-robots")
		if err != nil {
			return err
		}
		cfg.RespectRobots = v
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return err
	}
	if noHistory {
		cfg.SaveHistory = false
	}

	return nil
}

// runCrawl wires the crawl components together and runs one crawl.
func runCrawl(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	discoverer, err := newDiscoverer(cfg, fetcher, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	extractor, err := crawler.NewExtractor(cfg.SnippetClass, crawler.WithExtractorLogger(logger))
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}

	if cfg.RespectRobots {
		gate, err := crawler.LoadRobots(ctx, fetcher, cfg.RootURL)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithGate(gate))
	}

	if cfg.SaveHistory {
		db, err := database.Open(cfg.HistoryDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("history disabled: failed to open database", "dir", cfg.HistoryDir, "error", err)
		} else {
			defer func() {
				if cerr := db.Close(); cerr != nil {
					logger.Warn("failed to close history database", "error", cerr)
				}
			}()
			logger.Debug("recording history", "path", db.Path())
			opts = append(opts, pipeline.WithRecorder(db))
		}
	}

	orchestrator := pipeline.NewOrchestrator(cfg, discoverer, fetcher, extractor,
		store.NewFile(cfg.OutputFile, logger), opts...)

	result, runErr := orchestrator.Run(ctx)
	if result != nil {
		printResult(out, cfg.OutputFile, result)
	}
	if runErr != nil {
		return fmt.Errorf("crawl stopped: %w (run crawl again to resume)", runErr)
	}

	return nil
}

// printResult writes the counters of a run.
func printResult(out io.Writer, path string, result *pipeline.Result) {
	fmt.Fprintf(out, "Categories discovered: %d\n", result.Discovered)
	fmt.Fprintf(out, "Categories skipped:    %d\n", result.Skipped)
	fmt.Fprintf(out, "Categories fetched:    %d\n", result.Fetched)
	fmt.Fprintf(out, "New records:           %d\n", result.NewRecords)
	fmt.Fprintf(out, "Total records:         %d (%s)\n", result.Total, path)
}
