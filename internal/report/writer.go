package report

import (
	"io"
	"time"

	"github.com/nao1215/sqlharvest/internal/model"
)

// History is the crawl history shown by the history command.
type History struct {
	// Runs are crawl runs, most recent first.
	Runs []model.Run `json:"runs"`

	// Fetches are category page fetches, most recent first.
	Fetches []model.FetchRecord `json:"fetches"`
}

// Writer renders reports to an output.
type Writer interface {
	// WriteSummary renders a dataset summary.
	// It returns the number of bytes written.
	WriteSummary(summary *model.Summary) (int, error)

	// WriteHistory renders crawl history.
	WriteHistory(history *History) (int, error)
}

// MultiWriter writes to several Writers in turn, e.g. the terminal and a
// file. It stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteSummary writes the summary to every Writer.
func (m *MultiWriter) WriteSummary(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory writes the history to every Writer.
func (m *MultiWriter) WriteHistory(history *History) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(history)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeFormat is used for timestamps in text and Markdown output.
const timeFormat = "2006-01-02 15:04:05 MST"

// formatTime renders t, or "-" for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeFormat)
}

// formatDuration renders d rounded for display, or "-" when zero.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
