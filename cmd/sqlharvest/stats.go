package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/sqlharvest/internal/model"
	"github.com/nao1215/sqlharvest/internal/report"
	"github.com/nao1215/sqlharvest/internal/store"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the collected dataset",
		Long: `Stats reads the dataset file and reports the number of records, the
categories and how many SQL texts appear under more than one category.

Examples:
  # Summary of sqls.json
  sqlharvest stats

  # Markdown report with a chart, also saved to a file
  sqlharvest stats --markdown --report dataset.md

  # SQL examples of one category
  sqlharvest stats --category "SQL Select"`,
		Args: cobra.NoArgs,
		RunE: runStatsCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Dataset file to read (default: the configured output file)")
	cmd.Flags().Bool("json", false, "Print the summary as JSON")
	cmd.Flags().Bool("markdown", false, "Print the summary as Markdown")
	cmd.Flags().String("report", "", "Also write the summary to this file")
	cmd.Flags().Int("top", 20, "Number of categories listed in the text summary (-v lists all)")
	cmd.Flags().String("category", "", "Print the SQL examples of this category instead of a summary")

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger(cmd, cfg.Verbose)

	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if path == "" {
		path = cfg.OutputFile
	}

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	reportPath, err := cmd.Flags().GetString("report")
	if err != nil {
		return err
	}
	top, err := cmd.Flags().GetInt("top")
	if err != nil {
		return err
	}
	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return err
	}

	dataset, err := store.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		dataset = model.NewDataset(nil)
	}

	out := cmd.OutOrStdout()

	if category != "" {
		sqls := dataset.ByCategory(category)
		if len(sqls) == 0 {
			return fmt.Errorf("no records for category %q in %s", category, path)
		}
		for _, sql := range sqls {
			fmt.Fprintln(out, sql)
		}
		return nil
	}

	writers := []report.Writer{newReportWriter(out, format, cfg.Verbose, top)}
	if reportPath != "" {
		f, err := createReportFile(reportPath)
		if err != nil {
			return err
		}
		defer f.Close()
		writers = append(writers, newReportWriter(f, format, cfg.Verbose, top))
	}

	_, err = report.NewMultiWriter(writers...).WriteSummary(model.NewSummary(path, dataset))
	return err
}

// newReportWriter creates the report writer for format.
func newReportWriter(w io.Writer, format string, verbose bool, top int) report.Writer {
	switch format {
	case formatJSON:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case formatMarkdown:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(verbose), report.WithTopN(top))
	}
}

// createReportFile creates path and its parent directories.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return f, nil
}
