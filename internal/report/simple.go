package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/nao1215/sqlharvest/internal/model"
)

// SimpleWriter outputs human-readable plain text for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose lists every category instead of only the largest ones.
	verbose bool

	// topN is the number of categories listed when not verbose.
	topN int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every category.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithTopN sets how many categories are listed when not verbose.
func WithTopN(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		if n > 0 {
			w.topN = n
		}
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		topN:       20,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteSummary outputs the dataset summary.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "SQLHARVEST DATASET")

	if summary.Source != "" {
		fmt.Fprintf(&sb, "Store:          %s\n", summary.Source)
	}
	fmt.Fprintf(&sb, "Records:        %d\n", summary.TotalRecords)
	fmt.Fprintf(&sb, "Categories:     %d\n", summary.CategoryCount)
	fmt.Fprintf(&sb, "Unique SQL:     %d\n", summary.UniqueSQL)
	fmt.Fprintf(&sb, "Shared SQL:     %d\n", summary.SharedSQL)
	sb.WriteString("\n")

	if summary.IsEmpty() {
		sb.WriteString("The store is empty. Run 'sqlharvest crawl' to collect snippets.\n")
		return w.output.Write([]byte(sb.String()))
	}

	categories := summary.Categories
	if !w.verbose && len(categories) > w.topN {
		categories = topCategories(categories, w.topN)
		fmt.Fprintf(&sb, "Top %d categories by record count:\n", w.topN)
	} else {
		sb.WriteString("Records per category:\n")
	}
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	width := 0
	for _, c := range categories {
		width = max(width, len(c.Category))
	}
	for _, c := range categories {
		fmt.Fprintf(&sb, "  %-*s  %5d\n", width, c.Category, c.Count)
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs runs and fetches.
func (w *SimpleWriter) WriteHistory(history *History) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "SQLHARVEST HISTORY")

	sb.WriteString("Runs:\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	if len(history.Runs) == 0 {
		sb.WriteString("  No runs recorded.\n")
	}
	for _, r := range history.Runs {
		fmt.Fprintf(&sb, "  #%d  %s  %-9s  fetched %d, skipped %d, +%d records (total %d)  %s\n",
			r.ID,
			formatTime(r.StartedAt),
			r.Status,
			r.Fetched,
			r.Skipped,
			r.NewRecords,
			r.TotalRecords,
			formatDuration(r.Duration()),
		)
		if r.Error != "" {
			fmt.Fprintf(&sb, "       error: %s\n", r.Error)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("Fetches:\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	if len(history.Fetches) == 0 {
		sb.WriteString("  No fetches recorded.\n")
	}
	for _, f := range history.Fetches {
		fmt.Fprintf(&sb, "  %s  run #%d  %-20s  %d  %3d snippets  %s\n",
			formatTime(f.FetchedAt),
			f.RunID,
			truncateString(f.Category, 20),
			f.StatusCode,
			f.Snippets,
			formatDuration(f.Duration),
		)
		if w.verbose {
			fmt.Fprintf(&sb, "       url:     %s\n", f.URL)
			fmt.Fprintf(&sb, "       referer: %s\n", f.Referer)
			fmt.Fprintf(&sb, "       agent:   %s\n", f.UserAgent)
		}
	}

	return w.output.Write([]byte(sb.String()))
}

// writeBanner writes a framed title line.
func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	pad := max((70-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

// topCategories returns the n largest categories, ties broken by
// first-appearance order.
func topCategories(categories []model.CategoryCount, n int) []model.CategoryCount {
	sorted := make([]model.CategoryCount, len(categories))
	copy(sorted, categories)
	slices.SortStableFunc(sorted, func(a, b model.CategoryCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
