package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/sqlharvest/internal/model"
)

// chartSlices is the number of categories drawn in the pie chart; the
// rest are merged into one "Other" slice.
const chartSlices = 8

// MarkdownWriter outputs reports in Markdown format using nao1215/markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteSummary outputs the dataset summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("sqlharvest Dataset")
	md.PlainText("")

	rows := [][]string{
		{"Records", strconv.Itoa(summary.TotalRecords)},
		{"Categories", strconv.Itoa(summary.CategoryCount)},
		{"Unique SQL", strconv.Itoa(summary.UniqueSQL)},
		{"Shared SQL", strconv.Itoa(summary.SharedSQL)},
	}
	if summary.Source != "" {
		rows = append([][]string{{"Store", "`" + summary.Source + "`"}}, rows...)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.IsEmpty() {
		md.Note("The store is empty. Run `sqlharvest crawl` to collect snippets.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	if summary.SharedSQL > 0 {
		md.Tip(strconv.Itoa(summary.SharedSQL) + " snippet(s) appear under more than one category.")
		md.PlainText("")
	}

	w.writePieChart(md, summary)

	md.H2("Categories")
	md.PlainText("")

	catRows := make([][]string, len(summary.Categories))
	for i, c := range summary.Categories {
		catRows[i] = []string{strconv.Itoa(i + 1), c.Category, strconv.Itoa(c.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Category", "Records"},
		Rows:   catRows,
	})
	md.PlainText("")

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writePieChart writes a mermaid pie chart of records per category.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Records per Category"),
		piechart.WithShowData(true),
	)

	top := topCategories(summary.Categories, chartSlices)
	shown := 0
	for _, c := range top {
		chart.LabelAndIntValue(c.Category, uint64(c.Count)) //nolint:gosec // counts are never negative
		shown += c.Count
	}
	if other := summary.TotalRecords - shown; other > 0 {
		chart.LabelAndIntValue("Other", uint64(other)) //nolint:gosec // see above
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// WriteHistory outputs runs and fetches as Markdown tables.
func (w *MarkdownWriter) WriteHistory(history *History) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("sqlharvest History")
	md.PlainText("")

	md.H2("Runs")
	md.PlainText("")
	if len(history.Runs) == 0 {
		md.PlainText("No runs recorded.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(history.Runs))
		for i, r := range history.Runs {
			rows[i] = []string{
				strconv.FormatInt(r.ID, 10),
				formatTime(r.StartedAt),
				statusText(r.Status),
				strconv.Itoa(r.Fetched),
				strconv.Itoa(r.Skipped),
				strconv.Itoa(r.NewRecords),
				strconv.Itoa(r.TotalRecords),
				formatDuration(r.Duration()),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Run", "Started", "Status", "Fetched", "Skipped", "New", "Total", "Duration"},
			Rows:   rows,
		})
		md.PlainText("")

		for _, r := range history.Runs {
			if r.Error != "" {
				md.Warningf("Run %d ended with an error: %s", r.ID, r.Error)
				md.PlainText("")
			}
		}
	}

	md.H2("Fetches")
	md.PlainText("")
	if len(history.Fetches) == 0 {
		md.PlainText("No fetches recorded.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(history.Fetches))
		for i, f := range history.Fetches {
			rows[i] = []string{
				formatTime(f.FetchedAt),
				strconv.FormatInt(f.RunID, 10),
				f.Category,
				"`" + f.PageID + "`",
				strconv.Itoa(f.StatusCode),
				strconv.Itoa(f.Snippets),
				truncateString(f.Referer, 60),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Fetched", "Run", "Category", "Page", "Status", "Snippets", "Referer"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// statusText decorates a run status.
func statusText(s model.RunStatus) string {
	switch s {
	case model.RunStatusCompleted:
		return "✅ completed"
	case model.RunStatusFailed:
		return "❌ failed"
	case model.RunStatusCancelled:
		return "⚠️ cancelled"
	default:
		return "⏳ " + string(s)
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [sqlharvest](https://github.com/nao1215/sqlharvest)*")
}
