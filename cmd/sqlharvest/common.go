package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/sqlharvest/internal/config"
	"github.com/nao1215/sqlharvest/internal/crawler"
	shlog "github.com/nao1215/sqlharvest/internal/log"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the --config flag from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// loadConfig builds a Config from defaults and the configuration file.
// A file named with --config must exist; the default locations are optional.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	explicit := getConfigFlag(cmd)
	path := config.FindConfigFile(explicit)
	if explicit != "" && path == "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicit)
	}
	if path == "" {
		return cfg, nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to load configuration file %s: %w", path, err)
	}
	file.Apply(cfg)
	cfg.ConfigFilePath = path

	return cfg, nil
}

// setupLogger creates the structured logger for a command and installs it
// as the default. Logs go to stderr so stdout stays clean for output.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	asJSON, err := cmd.Root().PersistentFlags().GetBool("log-json")
	if err != nil {
		asJSON = false
	}

	var logger *slog.Logger
	if asJSON {
		logger = shlog.NewSecureJSONLogger(os.Stderr, verbose)
	} else {
		logger = shlog.NewSecureLogger(os.Stderr, verbose)
	}
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// newFetcher creates a Fetcher with the identity pool and limits of cfg.
func newFetcher(cfg *config.Config, logger *slog.Logger) (*crawler.Fetcher, error) {
	agents, err := crawler.NewUserAgentPicker(cfg.UserAgents, cfg.UserAgentStrategy)
	if err != nil {
		return nil, err
	}
	return crawler.NewFetcher(agents,
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithFetcherLogger(logger),
	), nil
}

// newDiscoverer creates a Discoverer for the root page of cfg.
func newDiscoverer(cfg *config.Config, fetcher crawler.PageFetcher, logger *slog.Logger) (*crawler.Discoverer, error) {
	return crawler.NewDiscoverer(fetcher, crawler.DiscoveryOptions{
		RootURL:      cfg.RootURL,
		Referer:      cfg.RootPageURL(),
		ContainerID:  cfg.NavContainerID,
		LinkSelector: cfg.NavLinkSelector,
	}, logger)
}

// outputFormat reads the mutually exclusive --json and --markdown flags.
func outputFormat(cmd *cobra.Command) (string, error) {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return "", err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return "", err
	}
	switch {
	case asJSON && asMarkdown:
		return "", errors.New("--json and --markdown cannot be used together")
	case asJSON:
		return formatJSON, nil
	case asMarkdown:
		return formatMarkdown, nil
	default:
		return formatText, nil
	}
}

// Output formats for the report commands.
const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)
