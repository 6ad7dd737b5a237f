package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/sqlharvest/internal/model"
)

// JSONWriter outputs reports as JSON for scripts.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version, when set, wraps output in an envelope carrying it.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps the output in an Envelope stamped with version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Envelope wraps a report with the version of the tool that produced it.
type Envelope struct {
	Version string         `json:"version"`
	Summary *model.Summary `json:"summary,omitempty"`
	History *History       `json:"history,omitempty"`
}

// WriteSummary outputs the summary in JSON format.
func (w *JSONWriter) WriteSummary(summary *model.Summary) (int, error) {
	if w.version != "" {
		return w.writeJSON(&Envelope{Version: w.version, Summary: summary})
	}
	return w.writeJSON(summary)
}

// WriteHistory outputs the history in JSON format. Nil slices are
// written as empty arrays.
func (w *JSONWriter) WriteHistory(history *History) (int, error) {
	h := *history
	if h.Runs == nil {
		h.Runs = []model.Run{}
	}
	if h.Fetches == nil {
		h.Fetches = []model.FetchRecord{}
	}

	if w.version != "" {
		return w.writeJSON(&Envelope{Version: w.version, History: &h})
	}
	return w.writeJSON(&h)
}

// writeJSON marshals v and writes it followed by a newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	data = append(data, '\n')

	return w.output.Write(data)
}
