package crawler

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor pulls code snippets out of a fetched page.
type Extractor struct {
	// classes is the class marker split into single class names.
	classes []string

	logger *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorLogger sets the logger for per-snippet logging.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor for elements carrying every class of
// classMarker, e.g. "w3-code notranslate sqlHigh".
func NewExtractor(classMarker string, opts ...ExtractorOption) (*Extractor, error) {
	classes := strings.Fields(classMarker)
	if len(classes) == 0 {
		return nil, ErrEmptyClassMarker
	}

	e := &Extractor{classes: classes}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Extract returns the normalized snippets of body, without in-page
// duplicates, in first-seen order. category is only used for logging.
func (e *Extractor) Extract(body []byte, category string) ([]string, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	blocks := findByClasses(doc, e.classes)
	e.logger.Info("found code blocks", "category", category, "blocks", blocks.Length())

	seen := make(map[string]struct{})
	snippets := make([]string, 0, blocks.Length())

	blocks.Each(func(_ int, s *goquery.Selection) {
		sql := NormalizeSnippet(nodeText(s.Get(0), " "))
		if sql == "" {
			return
		}
		if _, dup := seen[sql]; dup {
			e.logger.Debug("duplicate snippet", "category", category, "sql", sql)
			return
		}
		seen[sql] = struct{}{}
		snippets = append(snippets, sql)
		e.logger.Debug("new snippet", "category", category, "sql", sql)
	})

	e.logger.Info("extraction finished", "category", category, "snippets", len(snippets))
	return snippets, nil
}
