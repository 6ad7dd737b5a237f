package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/sqlharvest/internal/model"
)

// defaultMaxBodySize limits response bodies when no option overrides it.
const defaultMaxBodySize = 5 * 1024 * 1024 // 5MB

// PageFetcher fetches a single page with the given Referer.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL, referer string) (*model.Page, error)
}

// Fetcher performs GET requests that look like they come from a browser:
// every request carries an identity from the picker and an explicit Referer.
type Fetcher struct {
	// client performs the requests. A zero Timeout means none.
	client *http.Client

	// agents supplies the User-Agent header.
	agents *UserAgentPicker

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	logger *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithTimeout sets the client timeout. Zero disables it.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.client = &http.Client{Timeout: d}
	}
}

// WithMaxBodySize sets the maximum response body size.
// Values <= 0 keep the default.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithFetcherLogger sets the logger for request logging.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher that takes identities from agents.
func NewFetcher(agents *UserAgentPicker, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{},
		agents:      agents,
		maxBodySize: defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch GETs pageURL. An empty referer omits the header.
//
// A non-2xx response returns the page together with an error wrapping
// ErrUnexpectedStatus, so callers that care about the status (robots.txt)
// can still inspect it.
func (f *Fetcher) Fetch(ctx context.Context, pageURL, referer string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", pageURL, err)
	}

	agent := f.agents.Pick()
	req.Header.Set("User-Agent", agent)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	f.logger.Debug("fetching page", "url", pageURL, "referer", referer, "userAgent", agent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", pageURL, err)
	}

	page := &model.Page{
		URL:         pageURL,
		Referer:     referer,
		UserAgent:   agent,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	page.ComputeHash()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, pageURL)
	}

	return page, nil
}
