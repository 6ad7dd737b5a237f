package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/andybalholm/cascadia"

	"github.com/nao1215/sqlharvest/internal/model"
)

// DiscoveryOptions locates the category navigation on the root page.
type DiscoveryOptions struct {
	// RootURL is the listing page to fetch.
	RootURL string

	// Referer is sent with the root page request.
	Referer string

	// ContainerID is the id of the navigation container.
	ContainerID string

	// LinkSelector matches the category links inside the container.
	LinkSelector string
}

// Discoverer reads the ordered set of categories from the root page.
type Discoverer struct {
	fetcher PageFetcher
	opts    DiscoveryOptions
	links   cascadia.Selector
	logger  *slog.Logger
}

// NewDiscoverer creates a Discoverer. It fails when LinkSelector does not compile.
func NewDiscoverer(fetcher PageFetcher, opts DiscoveryOptions, logger *slog.Logger) (*Discoverer, error) {
	links, err := compileSelector(opts.LinkSelector)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{
		fetcher: fetcher,
		opts:    opts,
		links:   links,
		logger:  logger,
	}, nil
}

// Discover fetches the root page and returns its categories in page order.
// Network errors, non-2xx responses and a missing navigation container are
// returned as errors; nothing is retried.
func (d *Discoverer) Discover(ctx context.Context) ([]model.Category, error) {
	d.logger.Info("discovering categories", "url", d.opts.RootURL)

	page, err := d.fetcher.Fetch(ctx, d.opts.RootURL, d.opts.Referer)
	if err != nil {
		return nil, fmt.Errorf("category discovery failed: %w", err)
	}

	categories, err := ParseCategories(page.Body, d.opts.ContainerID, d.links)
	if err != nil {
		return nil, fmt.Errorf("category discovery failed: %w", err)
	}

	d.logger.Info("categories discovered", "count", len(categories))
	for _, c := range categories {
		d.logger.Debug("category", "name", c.Name, "page", c.PageID)
	}

	return categories, nil
}
