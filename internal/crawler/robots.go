package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/temoto/robotstxt"
)

// robotsAgent is the product token looked up in robots.txt groups.
// Sites rarely name it, so the "*" group usually applies.
const robotsAgent = "sqlharvest"

// RobotsGate answers whether a URL may be fetched according to the
// robots.txt of the root host.
type RobotsGate struct {
	data *robotstxt.RobotsData
}

// LoadRobots fetches /robots.txt from the host of rootURL.
// Status codes follow robotstxt.FromStatusAndBytes: 4xx allows everything,
// 5xx disallows everything.
func LoadRobots(ctx context.Context, fetcher PageFetcher, rootURL string) (*RobotsGate, error) {
	u, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("invalid root URL %q: %w", rootURL, err)
	}
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()

	page, err := fetcher.Fetch(ctx, robotsURL, "")
	if err != nil && (page == nil || !errors.Is(err, ErrUnexpectedStatus)) {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(page.StatusCode, page.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
	}
	return &RobotsGate{data: data}, nil
}

// Allowed reports whether pageURL may be fetched.
// Unparsable URLs are reported as not allowed.
func (g *RobotsGate) Allowed(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return g.data.TestAgent(path, robotsAgent)
}
