package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nao1215/sqlharvest/internal/config"
	"github.com/nao1215/sqlharvest/internal/model"
)

// Discoverer returns the ordered categories of the site.
type Discoverer interface {
	Discover(ctx context.Context) ([]model.Category, error)
}

// PageFetcher fetches one page with an explicit Referer.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL, referer string) (*model.Page, error)
}

// Extractor returns the deduplicated snippets of a page body.
type Extractor interface {
	Extract(body []byte, category string) ([]string, error)
}

// Store loads and rewrites the persisted dataset.
type Store interface {
	Load() (*model.Dataset, model.CategorySet)
	Save(dataset *model.Dataset) error
}

// Recorder keeps a history of runs and fetches.
// Recorder errors are logged and never stop a crawl.
type Recorder interface {
	StartRun(ctx context.Context, run *model.Run) error
	RecordFetch(ctx context.Context, rec *model.FetchRecord) error
	FinishRun(ctx context.Context, run *model.Run) error
}

// Gate decides whether a page may be fetched.
type Gate interface {
	Allowed(pageURL string) bool
}

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Result summarizes one crawl run.
type Result struct {
	// Discovered is the number of categories found on the root page.
	Discovered int `json:"discovered"`

	// Skipped counts categories already in the store or refused by the gate.
	Skipped int `json:"skipped"`

	// Fetched counts categories fetched and checkpointed in this run.
	Fetched int `json:"fetched"`

	// NewRecords is the number of records appended in this run.
	NewRecords int `json:"new_records"`

	// Total is the number of records in the store at the end of the run.
	Total int `json:"total"`
}

// Orchestrator runs the crawl loop.
type Orchestrator struct {
	cfg        *config.Config
	discoverer Discoverer
	fetcher    PageFetcher
	extractor  Extractor
	store      Store

	recorder Recorder
	gate     Gate
	sleep    SleepFunc
	rng      *rand.Rand
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithRecorder enables run and fetch history.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithGate skips pages the gate does not allow.
func WithGate(g Gate) Option {
	return func(o *Orchestrator) {
		o.gate = g
	}
}

// WithSleep replaces the politeness sleep.
func WithSleep(fn SleepFunc) Option {
	return func(o *Orchestrator) {
		o.sleep = fn
	}
}

// WithRandSource sets the random source for politeness delays.
func WithRandSource(src rand.Source) Option {
	return func(o *Orchestrator) {
		o.rng = rand.New(src) //nolint:gosec // delay jitter is not security sensitive
	}
}

// WithClock replaces time.Now for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates an Orchestrator. cfg supplies the root URL, page
// resolution and the delay range.
func NewOrchestrator(cfg *config.Config, d Discoverer, f PageFetcher, e Extractor, s Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		discoverer: d,
		fetcher:    f,
		extractor:  e,
		store:      s,
		sleep:      sleepContext,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // see WithRandSource
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	return o
}

// Run performs one full or resumed crawl.
//
// Any discovery, fetch, extraction or store write error stops the run and
// is returned; per-category errors are wrapped with the category name.
// Categories checkpointed before the error stay in the store. A cancelled
// ctx stops the loop between steps and returns ctx.Err().
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	result := &Result{}
	run := o.startRun(ctx)

	err := o.crawl(ctx, result, run)

	o.finishRun(ctx, run, result, err)
	return result, err
}

// crawl is the body of Run.
func (o *Orchestrator) crawl(ctx context.Context, result *Result, run *model.Run) error {
	categories, err := o.discoverer.Discover(ctx)
	if err != nil {
		return err
	}
	result.Discovered = len(categories)

	dataset, completed := o.store.Load()
	result.Total = dataset.Len()
	o.logger.Info("loaded completed categories", "count", len(completed))

	referer := o.cfg.RootPageURL()

	for i, category := range categories {
		if err := ctx.Err(); err != nil {
			return err
		}

		if completed.Has(category.Name) {
			o.logger.Info("category already crawled, skipping", "category", category.Name)
			result.Skipped++
			continue
		}

		pageURL := o.cfg.PageURL(category.PageID)
		if o.gate != nil && !o.gate.Allowed(pageURL) {
			o.logger.Warn("page disallowed by robots.txt, skipping", "category", category.Name, "url", pageURL)
			result.Skipped++
			continue
		}

		delay := o.delay()
		o.logger.Info("waiting before request", "category", category.Name, "delay", delay)
		if err := o.sleep(ctx, delay); err != nil {
			return fmt.Errorf("category %q: %w", category.Name, err)
		}

		started := o.now()
		page, err := o.fetcher.Fetch(ctx, pageURL, referer)
		if err != nil {
			return fmt.Errorf("category %q: %w", category.Name, err)
		}
		elapsed := o.now().Sub(started)
		if !page.IsHTML() {
			o.logger.Warn("unexpected content type", "category", category.Name, "contentType", page.ContentType)
		}

		snippets, err := o.extractor.Extract(page.Body, category.Name)
		if err != nil {
			return fmt.Errorf("category %q: %w", category.Name, err)
		}

		added := dataset.Append(category.Name, snippets)
		if err := o.store.Save(dataset); err != nil {
			return fmt.Errorf("category %q: %w", category.Name, err)
		}

		completed.Add(category.Name)
		result.Fetched++
		result.NewRecords += added
		result.Total = dataset.Len()

		o.logger.Info("category saved",
			"category", category.Name,
			"added", added,
			"total", result.Total,
			"progress", fmt.Sprintf("%d/%d", i+1, len(categories)),
		)

		o.recordFetch(ctx, run, &model.FetchRecord{
			Category:    category.Name,
			PageID:      category.PageID,
			URL:         pageURL,
			Referer:     referer,
			UserAgent:   page.UserAgent,
			StatusCode:  page.StatusCode,
			ContentHash: page.Hash,
			Snippets:    added,
			Duration:    elapsed,
			FetchedAt:   started,
		})

		referer = pageURL
	}

	o.logger.Info("crawl finished",
		"fetched", result.Fetched,
		"skipped", result.Skipped,
		"new", result.NewRecords,
		"total", result.Total,
	)
	return nil
}

// delay returns a uniformly random duration in [DelayMin, DelayMax].
func (o *Orchestrator) delay() time.Duration {
	lo, hi := o.cfg.DelayMin, o.cfg.DelayMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(o.rng.Int64N(int64(hi-lo)+1))
}

// startRun records the start of a run. It returns nil when no recorder is
// set or the recorder failed.
func (o *Orchestrator) startRun(ctx context.Context) *model.Run {
	if o.recorder == nil {
		return nil
	}

	run := &model.Run{
		RootURL:    o.cfg.RootURL,
		OutputFile: o.cfg.OutputFile,
		StartedAt:  o.now(),
		Status:     model.RunStatusRunning,
	}
	if err := o.recorder.StartRun(ctx, run); err != nil {
		o.logger.Warn("failed to record run start", "error", err)
		return nil
	}
	return run
}

// recordFetch records a fetch of the current run.
func (o *Orchestrator) recordFetch(ctx context.Context, run *model.Run, rec *model.FetchRecord) {
	if run == nil {
		return
	}
	rec.RunID = run.ID
	if err := o.recorder.RecordFetch(ctx, rec); err != nil {
		o.logger.Warn("failed to record fetch", "category", rec.Category, "error", err)
	}
}

// finishRun records the outcome of the run. It still writes after ctx is
// cancelled so interrupted runs are marked as such.
func (o *Orchestrator) finishRun(ctx context.Context, run *model.Run, result *Result, err error) {
	if run == nil {
		return
	}

	run.FinishedAt = o.now()
	run.Discovered = result.Discovered
	run.Skipped = result.Skipped
	run.Fetched = result.Fetched
	run.NewRecords = result.NewRecords
	run.TotalRecords = result.Total

	switch {
	case err == nil:
		run.Status = model.RunStatusCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		run.Status = model.RunStatusCancelled
		run.Error = err.Error()
	default:
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
	}

	if ferr := o.recorder.FinishRun(context.WithoutCancel(ctx), run); ferr != nil {
		o.logger.Warn("failed to record run finish", "error", ferr)
	}
}

// sleepContext sleeps for d unless ctx is done first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
