package crawler

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/nao1215/sqlharvest/internal/model"
)

// whitespaceRun matches runs of ASCII and Unicode whitespace, including the
// non-breaking spaces that documentation sites use for indentation.
var whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{85}]+`)

// compileSelector compiles a CSS selector for use with goquery.
func compileSelector(sel string) (cascadia.Selector, error) {
	compiled, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, sel, err)
	}
	return compiled, nil
}

// parseDocument parses an HTML body into a goquery document.
func parseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// findByID returns the first element whose id attribute equals id.
// The attribute is compared literally so ids that are not valid CSS
// identifiers still match.
func findByID(doc *goquery.Document, id string) *goquery.Selection {
	return doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
}

// findByClasses returns every element that carries all of the given classes.
func findByClasses(doc *goquery.Document, classes []string) *goquery.Selection {
	return doc.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		for _, c := range classes {
			if !s.HasClass(c) {
				return false
			}
		}
		return true
	})
}

// ParseCategories extracts the ordered category links from a root page.
// Links without an href attribute are skipped.
func ParseCategories(body []byte, containerID string, links cascadia.Selector) ([]model.Category, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	container := findByID(doc, containerID)
	if container.Length() == 0 {
		return nil, fmt.Errorf("%w: id=%q", ErrNavigationNotFound, containerID)
	}

	categories := make([]model.Category, 0)
	container.FindMatcher(links).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		categories = append(categories, model.Category{
			Name:   strings.TrimSpace(s.Text()),
			PageID: href,
		})
	})

	return categories, nil
}

// nodeText returns the text of every descendant text node of n, each piece
// trimmed, empty pieces dropped, joined with sep. Joining with a separator
// keeps adjacent inline elements such as <span>FROM</span><span>t</span>
// from running together.
func nodeText(n *html.Node, sep string) string {
	var parts []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if piece := strings.TrimSpace(n.Data); piece != "" {
				parts = append(parts, piece)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(parts, sep)
}

// NormalizeSnippet collapses whitespace runs to single spaces, trims the
// result and appends a ";" terminator when it is missing. Empty input
// yields an empty string.
func NormalizeSnippet(raw string) string {
	text := strings.TrimSpace(whitespaceRun.ReplaceAllString(raw, " "))
	if text == "" {
		return ""
	}
	if !strings.HasSuffix(text, ";") {
		text += ";"
	}
	return text
}
