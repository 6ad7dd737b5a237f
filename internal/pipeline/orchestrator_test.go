package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/sqlharvest/internal/config"
	"github.com/nao1215/sqlharvest/internal/crawler"
	"github.com/nao1215/sqlharvest/internal/model"
	"github.com/nao1215/sqlharvest/internal/store"
)

const (
	testAgent = "test-agent/1.0"

	selectPage = `<html><body>
<div class="w3-code notranslate sqlHigh">SELECT * FROM Customers</div>
</body></html>`

	wherePage = `<html><body>
<div class="w3-code notranslate sqlHigh">SELECT * FROM Customers
WHERE Country='Mexico'</div>
</body></html>`
)

// rootPage renders a navigation menu linking to the given pages.
func rootPage(links ...model.Category) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="leftmenuinnerinner">`)
	for _, l := range links {
		fmt.Fprintf(&b, `<a target="_top" href="%s">%s</a>`, l.PageID, l.Name)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// request is one request seen by the test site.
type request struct {
	path    string
	referer string
	agent   string
}

// testSite is an httptest server serving fixed pages under /sql/.
type testSite struct {
	server *httptest.Server

	mu       sync.Mutex
	pages    map[string]string
	failing  map[string]bool
	requests []request
}

func newTestSite(t *testing.T, pages map[string]string) *testSite {
	t.Helper()

	s := &testSite{pages: pages, failing: make(map[string]bool)}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.requests = append(s.requests, request{
			path:    r.URL.Path,
			referer: r.Header.Get("Referer"),
			agent:   r.Header.Get("User-Agent"),
		})

		if s.failing[r.URL.Path] {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		body, ok := s.pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *testSite) url(path string) string {
	return s.server.URL + path
}

func (s *testSite) setFailing(path string, failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[path] = failing
}

// takeRequests returns and clears the recorded requests.
func (s *testSite) takeRequests() []request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.requests
	s.requests = nil
	return out
}

// standardSite serves a root page with SELECT and WHERE categories.
func standardSite(t *testing.T) *testSite {
	t.Helper()
	return newTestSite(t, map[string]string{
		"/sql/": rootPage(
			model.Category{Name: "SELECT", PageID: "sql_select.asp"},
			model.Category{Name: "WHERE", PageID: "sql_where.asp"},
		),
		"/sql/sql_select.asp": selectPage,
		"/sql/sql_where.asp":  wherePage,
	})
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// noSleep skips the politeness delay.
func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// newTestOrchestrator wires the real crawler and store against site.
func newTestOrchestrator(t *testing.T, site *testSite, storePath string, opts ...Option) *Orchestrator {
	t.Helper()

	cfg := config.NewConfig()
	cfg.RootURL = site.url("/sql/")
	cfg.OutputFile = storePath

	picker, err := crawler.NewUserAgentPicker([]string{testAgent}, crawler.StrategyRotate)
	if err != nil {
		t.Fatal(err)
	}
	fetcher := crawler.NewFetcher(picker, crawler.WithFetcherLogger(testLogger()))

	discoverer, err := crawler.NewDiscoverer(fetcher, crawler.DiscoveryOptions{
		RootURL:      cfg.RootURL,
		Referer:      cfg.RootPageURL(),
		ContainerID:  cfg.NavContainerID,
		LinkSelector: cfg.NavLinkSelector,
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	extractor, err := crawler.NewExtractor(cfg.SnippetClass, crawler.WithExtractorLogger(testLogger()))
	if err != nil {
		t.Fatal(err)
	}

	base := []Option{WithLogger(testLogger()), WithSleep(noSleep)}
	return NewOrchestrator(cfg, discoverer, fetcher, extractor, store.NewFile(storePath, testLogger()), append(base, opts...)...)
}

// readStore reads the records in the store file.
func readStore(t *testing.T, path string) []model.Snippet {
	t.Helper()
	d, err := store.Read(path)
	if err != nil {
		t.Fatalf("failed to read store: %v", err)
	}
	return d.Records()
}

func assertRecords(t *testing.T, got, want []model.Snippet) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// TestOrchestratorRun tests full and resumed crawls against a local site.
func TestOrchestratorRun(t *testing.T) {
	t.Parallel()

	wantRecords := []model.Snippet{
		{Category: "SELECT", SQL: "SELECT * FROM Customers;"},
		{Category: "WHERE", SQL: "SELECT * FROM Customers WHERE Country='Mexico';"},
	}

	t.Run("empty store crawls every category", func(t *testing.T) {
		t.Parallel()

		site := standardSite(t)
		path := filepath.Join(t.TempDir(), "sqls.json")

		result, err := newTestOrchestrator(t, site, path).Run(context.Background())
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if *result != (Result{Discovered: 2, Fetched: 2, NewRecords: 2, Total: 2}) {
			t.Errorf("unexpected result %+v", *result)
		}
		assertRecords(t, readStore(t, path), wantRecords)
	})

	t.Run("referer chains from root page through fetched pages", func(t *testing.T) {
		t.Parallel()

		site := standardSite(t)
		path := filepath.Join(t.TempDir(), "sqls.json")

		if _, err := newTestOrchestrator(t, site, path).Run(context.Background()); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		want := []request{
			{path: "/sql/", referer: site.url("/sql/default.asp"), agent: testAgent},
			{path: "/sql/sql_select.asp", referer: site.url("/sql/default.asp"), agent: testAgent},
			{path: "/sql/sql_where.asp", referer: site.url("/sql/sql_select.asp"), agent: testAgent},
		}
		got := site.takeRequests()
		if len(got) != len(want) {
			t.Fatalf("expected %d requests, got %d: %+v", len(want), len(got), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("request %d = %+v, want %+v", i, got[i], want[i])
			}
		}
	})

	t.Run("second run fetches nothing and keeps the store", func(t *testing.T) {
		t.Parallel()

		site := standardSite(t)
		path := filepath.Join(t.TempDir(), "sqls.json")

		if _, err := newTestOrchestrator(t, site, path).Run(context.Background()); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		before, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		site.takeRequests()

		result, err := newTestOrchestrator(t, site, path).Run(context.Background())
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		if result.Fetched != 0 || result.Skipped != 2 || result.NewRecords != 0 || result.Total != 2 {
			t.Errorf("unexpected result %+v", *result)
		}

		requests := site.takeRequests()
		if len(requests) != 1 || requests[0].path != "/sql/" {
			t.Errorf("expected only the root page to be requested, got %+v", requests)
		}

		after, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(before) != string(after) {
			t.Error("expected store to be unchanged")
		}
	})

	t.Run("resume skips stored categories", func(t *testing.T) {
		t.Parallel()

		site := standardSite(t)
		path := filepath.Join(t.TempDir(), "sqls.json")

		existing := model.NewDataset(nil)
		existing.Append("SELECT", []string{"SELECT OLD;"})
		if err := store.Save(path, existing); err != nil {
			t.Fatal(err)
		}

		result, err := newTestOrchestrator(t, site, path).Run(context.Background())
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if result.Skipped != 1 || result.Fetched != 1 || result.Total != 2 {
			t.Errorf("unexpected result %+v", *result)
		}

		assertRecords(t, readStore(t, path), []model.Snippet{
			{Category: "SELECT", SQL: "SELECT OLD;"},
			wantRecords[1],
		})

		for _, r := range site.takeRequests() {
			if r.path == "/sql/sql_select.asp" {
				t.Error("stored category was fetched again")
			}
			if r.path == "/sql/sql_where.asp" && r.referer != site.url("/sql/default.asp") {
				t.Errorf("first fetch of the run should use the root page as referer, got %q", r.referer)
			}
		}
	})

	t.Run("same snippet under two categories is kept twice", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]string{
			"/sql/": rootPage(
				model.Category{Name: "SELECT", PageID: "sql_select.asp"},
				model.Category{Name: "ALIASES", PageID: "sql_alias.asp"},
			),
			"/sql/sql_select.asp": selectPage,
			"/sql/sql_alias.asp":  selectPage,
		})
		path := filepath.Join(t.TempDir(), "sqls.json")

		if _, err := newTestOrchestrator(t, site, path).Run(context.Background()); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		assertRecords(t, readStore(t, path), []model.Snippet{
			{Category: "SELECT", SQL: "SELECT * FROM Customers;"},
			{Category: "ALIASES", SQL: "SELECT * FROM Customers;"},
		})
	})

	t.Run("failure midway keeps earlier categories and resumes", func(t *testing.T) {
		t.Parallel()

		site := standardSite(t)
		site.setFailing("/sql/sql_where.asp", true)
		path := filepath.Join(t.TempDir(), "sqls.json")

		result, err := newTestOrchestrator(t, site, path).Run(context.Background())
		if !errors.Is(err, crawler.ErrUnexpectedStatus) {
			t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
		}
		if !strings.Contains(err.Error(), `"WHERE"`) {
			t.Errorf("expected error to name the category, got %v", err)
		}
		if result.Fetched != 1 {
			t.Errorf("expected 1 fetched category, got %d", result.Fetched)
		}
		assertRecords(t, readStore(t, path), wantRecords[:1])

		site.setFailing("/sql/sql_where.asp", false)
		site.takeRequests()

		if _, err := newTestOrchestrator(t, site, path).Run(context.Background()); err != nil {
			t.Fatalf("resumed run failed: %v", err)
		}
		assertRecords(t, readStore(t, path), wantRecords)

		for _, r := range site.takeRequests() {
			if r.path == "/sql/sql_select.asp" {
				t.Error("checkpointed category was fetched again")
			}
		}
	})

	t.Run("discovery failure writes nothing", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]string{"/sql/": `<html><body>no menu</body></html>`})
		path := filepath.Join(t.TempDir(), "sqls.json")

		_, err := newTestOrchestrator(t, site, path).Run(context.Background())
		if !errors.Is(err, crawler.ErrNavigationNotFound) {
			t.Fatalf("expected ErrNavigationNotFound, got %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expected no store file to be written")
		}
	})
}

// TestOrchestratorCancellation tests that cancellation stops between categories.
func TestOrchestratorCancellation(t *testing.T) {
	t.Parallel()

	site := standardSite(t)
	path := filepath.Join(t.TempDir(), "sqls.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	sleep := func(ctx context.Context, _ time.Duration) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return ctx.Err()
	}

	result, err := newTestOrchestrator(t, site, path, WithSleep(sleep)).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Fetched != 1 {
		t.Errorf("expected 1 fetched category, got %d", result.Fetched)
	}
	if got := readStore(t, path); len(got) != 1 || got[0].Category != "SELECT" {
		t.Errorf("unexpected store %+v", got)
	}
}

// TestOrchestratorDelay tests the politeness delay range.
func TestOrchestratorDelay(t *testing.T) {
	t.Parallel()

	site := newTestSite(t, map[string]string{
		"/sql/": rootPage(
			model.Category{Name: "A", PageID: "a.asp"},
			model.Category{Name: "B", PageID: "b.asp"},
			model.Category{Name: "C", PageID: "c.asp"},
			model.Category{Name: "D", PageID: "d.asp"},
		),
		"/sql/a.asp": selectPage,
		"/sql/b.asp": selectPage,
		"/sql/c.asp": selectPage,
		"/sql/d.asp": selectPage,
	})

	var delays []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	o := newTestOrchestrator(t, site, filepath.Join(t.TempDir(), "sqls.json"),
		WithSleep(sleep), WithRandSource(rand.NewPCG(7, 11)))

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(delays) != 4 {
		t.Fatalf("expected one delay per fetched category, got %d", len(delays))
	}
	for _, d := range delays {
		if d < config.DefaultDelayMin || d > config.DefaultDelayMax {
			t.Errorf("delay %v outside [%v, %v]", d, config.DefaultDelayMin, config.DefaultDelayMax)
		}
	}

	t.Run("fixed range", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.DelayMin, cfg.DelayMax = 3*time.Second, 3*time.Second
		o := NewOrchestrator(cfg, nil, nil, nil, nil)
		if d := o.delay(); d != 3*time.Second {
			t.Errorf("expected 3s, got %v", d)
		}
	})
}

// fakeGate refuses the listed URLs.
type fakeGate struct {
	denied map[string]bool
}

func (g fakeGate) Allowed(pageURL string) bool {
	return !g.denied[pageURL]
}

// TestOrchestratorGate tests that gated pages are skipped.
func TestOrchestratorGate(t *testing.T) {
	t.Parallel()

	site := standardSite(t)
	path := filepath.Join(t.TempDir(), "sqls.json")

	gate := fakeGate{denied: map[string]bool{site.url("/sql/sql_select.asp"): true}}
	result, err := newTestOrchestrator(t, site, path, WithGate(gate)).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Skipped != 1 || result.Fetched != 1 {
		t.Errorf("unexpected result %+v", *result)
	}
	if got := readStore(t, path); len(got) != 1 || got[0].Category != "WHERE" {
		t.Errorf("unexpected store %+v", got)
	}
}

// fakeRecorder keeps history in memory and can be told to fail.
type fakeRecorder struct {
	fail    bool
	runs    []model.Run
	fetches []model.FetchRecord
}

func (r *fakeRecorder) StartRun(_ context.Context, run *model.Run) error {
	if r.fail {
		return errors.New("disk full")
	}
	run.ID = 7
	return nil
}

func (r *fakeRecorder) RecordFetch(_ context.Context, rec *model.FetchRecord) error {
	if r.fail {
		return errors.New("disk full")
	}
	r.fetches = append(r.fetches, *rec)
	return nil
}

func (r *fakeRecorder) FinishRun(_ context.Context, run *model.Run) error {
	if r.fail {
		return errors.New("disk full")
	}
	r.runs = append(r.runs, *run)
	return nil
}

// TestOrchestratorRecorder tests history recording.
func TestOrchestratorRecorder(t *testing.T) {
	t.Parallel()

	t.Run("records run and fetches", func(t *testing.T) {
		t.Parallel()

		site := standardSite(t)
		rec := &fakeRecorder{}

		if _, err := newTestOrchestrator(t, site, filepath.Join(t.TempDir(), "sqls.json"), WithRecorder(rec)).Run(context.Background()); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if len(rec.runs) != 1 {
			t.Fatalf("expected 1 finished run, got %d", len(rec.runs))
		}
		run := rec.runs[0]
		if run.Status != model.RunStatusCompleted || run.Fetched != 2 || run.TotalRecords != 2 || run.Discovered != 2 {
			t.Errorf("unexpected run %+v", run)
		}

		if len(rec.fetches) != 2 {
			t.Fatalf("expected 2 fetch records, got %d", len(rec.fetches))
		}
		first, second := rec.fetches[0], rec.fetches[1]
		if first.RunID != 7 || first.Category != "SELECT" || first.StatusCode != http.StatusOK || first.UserAgent != testAgent {
			t.Errorf("unexpected first fetch %+v", first)
		}
		if first.ContentHash == "" || first.Snippets != 1 {
			t.Errorf("expected hash and snippet count, got %+v", first)
		}
		if second.Referer != site.url("/sql/sql_select.asp") {
			t.Errorf("expected chained referer, got %q", second.Referer)
		}
	})

	t.Run("failed run is marked failed", func(t *testing.T) {
		t.Parallel()

		site := standardSite(t)
		site.setFailing("/sql/sql_where.asp", true)
		rec := &fakeRecorder{}

		if _, err := newTestOrchestrator(t, site, filepath.Join(t.TempDir(), "sqls.json"), WithRecorder(rec)).Run(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if len(rec.runs) != 1 || rec.runs[0].Status != model.RunStatusFailed || rec.runs[0].Error == "" {
			t.Errorf("unexpected runs %+v", rec.runs)
		}
	})

	t.Run("recorder failures do not stop the crawl", func(t *testing.T) {
		t.Parallel()

		site := standardSite(t)
		path := filepath.Join(t.TempDir(), "sqls.json")

		result, err := newTestOrchestrator(t, site, path, WithRecorder(&fakeRecorder{fail: true})).Run(context.Background())
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if result.Fetched != 2 {
			t.Errorf("expected 2 fetched categories, got %d", result.Fetched)
		}
	})
}

// failingStore loads an empty dataset and refuses to save.
type failingStore struct{}

func (failingStore) Load() (*model.Dataset, model.CategorySet) {
	return model.NewDataset(nil), make(model.CategorySet)
}

func (failingStore) Save(*model.Dataset) error {
	return errors.New("read-only file system")
}

// staticDiscoverer returns fixed categories.
type staticDiscoverer []model.Category

func (s staticDiscoverer) Discover(context.Context) ([]model.Category, error) {
	return s, nil
}

// TestOrchestratorStoreFailure tests that a failed checkpoint aborts the run.
func TestOrchestratorStoreFailure(t *testing.T) {
	t.Parallel()

	site := standardSite(t)
	base := newTestOrchestrator(t, site, filepath.Join(t.TempDir(), "unused.json"))

	o := NewOrchestrator(base.cfg,
		staticDiscoverer{{Name: "SELECT", PageID: "sql_select.asp"}, {Name: "WHERE", PageID: "sql_where.asp"}},
		base.fetcher, base.extractor, failingStore{},
		WithLogger(testLogger()), WithSleep(noSleep))

	result, err := o.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "read-only file system") {
		t.Fatalf("expected store error, got %v", err)
	}
	if result.Fetched != 0 {
		t.Errorf("expected no checkpointed categories, got %d", result.Fetched)
	}
}

// TestSleepContext tests the default sleep.
func TestSleepContext(t *testing.T) {
	t.Parallel()

	t.Run("returns after the duration", func(t *testing.T) {
		t.Parallel()
		if err := sleepContext(context.Background(), time.Millisecond); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("returns early when cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if time.Since(start) > time.Second {
			t.Error("sleep did not return promptly")
		}
	})
}
