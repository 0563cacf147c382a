// Package engine orchestrates a crawl: it drains a priority frontier
// with a bounded worker pool, walks listing pages to discover article
// links, and drives article pages through extraction, assembly, the
// processing pipeline, and the store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sesgocero/crawler/internal/assemble"
	"github.com/sesgocero/crawler/internal/config"
	"github.com/sesgocero/crawler/internal/fetcher"
	"github.com/sesgocero/crawler/internal/pipeline"
	"github.com/sesgocero/crawler/internal/source"
	"github.com/sesgocero/crawler/internal/store"
	"github.com/sesgocero/crawler/internal/types"
)

// Stats tracks crawl counters. All fields are safe for concurrent use.
type Stats struct {
	RequestsSent      atomic.Int64
	RequestsFailed    atomic.Int64
	ResponsesOK       atomic.Int64
	ResponsesError    atomic.Int64
	ListingsProcessed atomic.Int64
	ArticlesAssembled atomic.Int64
	ArticlesSkipped   atomic.Int64
	ArticlesDropped   atomic.Int64
	Inserted          atomic.Int64
	Updated           atomic.Int64
	Unchanged         atomic.Int64
	StoreErrors       atomic.Int64
	URLsEnqueued      atomic.Int64
	URLsFiltered      atomic.Int64
	BytesDownloaded   atomic.Int64
	ActiveWorkers     atomic.Int32
	StartTime         time.Time
}

// Snapshot returns a copy of the counters safe for reading.
func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests_sent":      s.RequestsSent.Load(),
		"requests_failed":    s.RequestsFailed.Load(),
		"responses_ok":       s.ResponsesOK.Load(),
		"responses_error":    s.ResponsesError.Load(),
		"listings_processed": s.ListingsProcessed.Load(),
		"articles_assembled": s.ArticlesAssembled.Load(),
		"articles_skipped":   s.ArticlesSkipped.Load(),
		"articles_dropped":   s.ArticlesDropped.Load(),
		"articles_inserted":  s.Inserted.Load(),
		"articles_updated":   s.Updated.Load(),
		"articles_unchanged": s.Unchanged.Load(),
		"store_errors":       s.StoreErrors.Load(),
		"urls_enqueued":      s.URLsEnqueued.Load(),
		"urls_filtered":      s.URLsFiltered.Load(),
		"bytes_downloaded":   s.BytesDownloaded.Load(),
		"active_workers":     int64(s.ActiveWorkers.Load()),
	}
}

// Stored returns the number of articles written to the store in any
// form (inserted, updated, or confirmed unchanged).
func (s *Stats) Stored() int64 {
	return s.Inserted.Load() + s.Updated.Load() + s.Unchanged.Load()
}

// Engine is the crawl orchestrator.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	frontier  *Frontier
	dedup     *Deduplicator
	robots    *RobotsManager
	registry  *source.Registry
	extractor *source.Extractor
	assembler *assemble.Assembler
	pipe      *pipeline.Pipeline
	store     store.Store
	fetchers  map[string]fetcher.Fetcher

	stats       *Stats
	throttle    map[string]*domainThrottle
	throttleMu  sync.Mutex
	idleWorkers atomic.Int32
	stopOnce    sync.Once
	mu          sync.RWMutex
}

// domainThrottle implements per-domain rate limiting.
type domainThrottle struct {
	lastFetch time.Time
	mu        sync.Mutex
}

// New creates an Engine. Fetchers, pipeline, and store are attached
// with the Set methods before Run.
func New(cfg *config.Config, registry *source.Registry, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		logger:    logger.With("component", "engine"),
		frontier:  NewFrontier(),
		dedup:     NewDeduplicator(100_000),
		robots:    NewRobotsManager(cfg.Engine.RespectRobotsTxt),
		registry:  registry,
		extractor: source.NewExtractor(logger),
		assembler: assemble.New(),
		fetchers:  make(map[string]fetcher.Fetcher),
		stats:     &Stats{},
		throttle:  make(map[string]*domainThrottle),
	}
}

// SetFetcher registers a fetcher for a given type.
func (e *Engine) SetFetcher(fetcherType string, f fetcher.Fetcher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetchers[fetcherType] = f
}

// SetPipeline sets the article processing pipeline.
func (e *Engine) SetPipeline(p *pipeline.Pipeline) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pipe = p
}

// SetStore sets the article store.
func (e *Engine) SetStore(s store.Store) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = s
}

// Stats returns the live crawl counters.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// QueueDepth returns the number of requests waiting in the frontier.
func (e *Engine) QueueDepth() int {
	return e.frontier.Len()
}

// Seed enqueues the listing pages of the given source profiles.
func (e *Engine) Seed(profiles []*source.Profile) error {
	var seeded int
	for _, p := range profiles {
		for _, rawURL := range p.StartURLs {
			req, err := types.NewRequest(rawURL, types.KindListing, p.ID)
			if err != nil {
				return fmt.Errorf("seed %s: %w", p.ID, err)
			}
			req.FetcherType = p.FetcherType
			req.MaxRetries = e.cfg.Engine.MaxRetries
			if err := e.AddRequest(req); err == nil {
				seeded++
			}
		}
	}
	if seeded == 0 {
		return errors.New("no seed URLs enqueued")
	}
	e.logger.Info("seeded crawl", "sources", len(profiles), "listings", seeded)
	return nil
}

// AddRequest adds a request to the frontier after dedup and robots
// checks. Filtered requests return the reason as an error.
func (e *Engine) AddRequest(req *types.Request) error {
	urlStr := req.URLString()

	if e.dedup.IsSeen(urlStr) {
		e.stats.URLsFiltered.Add(1)
		return types.ErrDuplicate
	}
	if e.cfg.Engine.RespectRobotsTxt && !e.robots.IsAllowed(urlStr) {
		e.stats.URLsFiltered.Add(1)
		e.logger.Debug("blocked by robots.txt", "url", urlStr)
		return types.ErrBlocked
	}

	e.dedup.MarkSeen(urlStr)
	e.frontier.Push(req)
	e.stats.URLsEnqueued.Add(1)
	return nil
}

// Run starts the worker pool and blocks until the frontier drains or
// the context is canceled.
func (e *Engine) Run(ctx context.Context) error {
	concurrency := e.cfg.Engine.Concurrency
	e.logger.Info("crawl starting",
		"concurrency", concurrency,
		"respect_robots", e.cfg.Engine.RespectRobotsTxt,
		"queued", e.frontier.Len(),
	)
	e.stats.StartTime = time.Now()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			e.worker(ctx, id)
		}(i)
	}

	monitorDone := make(chan struct{})
	go e.idleMonitor(ctx, concurrency, monitorDone)

	wg.Wait()
	close(monitorDone)

	e.logger.Info("crawl complete",
		"elapsed", time.Since(e.stats.StartTime).Round(time.Millisecond),
		"stats", e.stats.Snapshot(),
	)
	return ctx.Err()
}

// Stop closes the frontier so workers exit once in-flight requests
// finish.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.logger.Info("stopping crawl")
		e.frontier.Close()
	})
}

// idleMonitor closes the frontier once every worker has been idle
// with an empty queue for a sustained period.
func (e *Engine) idleMonitor(ctx context.Context, concurrency int, done <-chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	idleStreak := 0

	for {
		select {
		case <-ctx.Done():
			e.frontier.Close()
			return
		case <-done:
			return
		case <-ticker.C:
			if int(e.idleWorkers.Load()) >= concurrency && e.frontier.Len() == 0 {
				idleStreak++
				if idleStreak >= 3 {
					e.frontier.Close()
					return
				}
			} else {
				idleStreak = 0
			}
		}
	}
}

// worker is a single crawl worker goroutine.
func (e *Engine) worker(ctx context.Context, id int) {
	logger := e.logger.With("worker_id", id)

	for {
		e.idleWorkers.Add(1)

		var req *types.Request
		for {
			req = e.frontier.TryPop()
			if req != nil {
				break
			}
			if e.frontier.IsClosed() {
				e.idleWorkers.Add(-1)
				return
			}
			select {
			case <-ctx.Done():
				e.idleWorkers.Add(-1)
				return
			case <-time.After(50 * time.Millisecond):
			}
		}

		e.idleWorkers.Add(-1)

		e.applyThrottle(req.Domain())

		e.stats.ActiveWorkers.Add(1)
		e.processRequest(ctx, logger, req)
		e.stats.ActiveWorkers.Add(-1)

		if max := e.cfg.Engine.MaxArticles; max > 0 && e.stats.Stored() >= int64(max) {
			logger.Info("article limit reached, stopping", "limit", max)
			e.Stop()
			return
		}
	}
}

// processRequest handles a single request end to end.
func (e *Engine) processRequest(ctx context.Context, logger *slog.Logger, req *types.Request) {
	logger = logger.With("url", req.URLString(), "source", req.SourceID, "kind", req.Kind)

	profile, err := e.registry.Get(req.SourceID)
	if err != nil {
		e.stats.RequestsFailed.Add(1)
		logger.Error("unknown source on request", "error", err)
		return
	}

	f, err := e.selectFetcher(req)
	if err != nil {
		e.stats.RequestsFailed.Add(1)
		logger.Error("no fetcher for request", "error", err)
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.Engine.RequestTimeout)
	defer cancel()

	e.stats.RequestsSent.Add(1)
	resp, err := f.Fetch(fetchCtx, req)
	if err != nil {
		e.handleFetchError(logger, req, err)
		return
	}

	e.stats.BytesDownloaded.Add(int64(len(resp.Body)))

	if !resp.IsSuccess() {
		e.stats.ResponsesError.Add(1)
		logger.Warn("non-success response", "status", resp.StatusCode)
		return
	}
	e.stats.ResponsesOK.Add(1)

	switch req.Kind {
	case types.KindListing:
		e.processListing(logger, resp, profile)
	case types.KindArticle:
		e.processArticle(ctx, logger, resp, profile)
	default:
		logger.Error("unknown request kind")
	}
}

// processListing discovers article links and enqueues them.
func (e *Engine) processListing(logger *slog.Logger, resp *types.Response, profile *source.Profile) {
	links := e.extractor.Discover(resp, profile)
	e.stats.ListingsProcessed.Add(1)

	enqueued := 0
	for _, link := range links {
		req, err := types.NewRequest(link, types.KindArticle, profile.ID)
		if err != nil {
			continue
		}
		req.FetcherType = profile.FetcherType
		req.MaxRetries = e.cfg.Engine.MaxRetries
		req.ParentURL = resp.FinalURL
		if err := e.AddRequest(req); err == nil {
			enqueued++
		}
	}

	logger.Info("listing processed", "links_found", len(links), "enqueued", enqueued)
}

// processArticle extracts, assembles, and stores one article page.
func (e *Engine) processArticle(ctx context.Context, logger *slog.Logger, resp *types.Response, profile *source.Profile) {
	fields := e.extractor.Extract(resp, profile)
	result := e.assembler.Assemble(fields, resp.FinalURL, profile)

	if result.Status == assemble.StatusSkip {
		e.stats.ArticlesSkipped.Add(1)
		logger.Warn("article skipped",
			"missing", result.Missing,
			"content_preview", result.Preview,
			"date_raw", result.DateRaw,
		)
		return
	}
	e.stats.ArticlesAssembled.Add(1)

	article := result.Article
	if e.pipe != nil {
		processed, err := e.pipe.Process(article)
		if err != nil {
			e.stats.ArticlesDropped.Add(1)
			logger.Warn("pipeline error", "error", err)
			return
		}
		if processed == nil {
			e.stats.ArticlesDropped.Add(1)
			return
		}
		article = processed
	}

	if e.store == nil {
		return
	}
	outcome, err := e.store.Upsert(ctx, article)
	if err != nil {
		// One failed write never aborts the run.
		e.stats.StoreErrors.Add(1)
		logger.Error("store upsert failed", "error", err)
		return
	}

	switch outcome {
	case store.OutcomeInserted:
		e.stats.Inserted.Add(1)
	case store.OutcomeUpdated:
		e.stats.Updated.Add(1)
	case store.OutcomeUnchanged:
		e.stats.Unchanged.Add(1)
	}

	logger.Info("article stored",
		"title", article.Title,
		"outcome", outcome.String(),
	)
}

// selectFetcher picks the fetcher for a request: the request's own
// type, falling back to the configured default.
func (e *Engine) selectFetcher(req *types.Request) (fetcher.Fetcher, error) {
	fetcherType := req.FetcherType
	if fetcherType == "" {
		fetcherType = e.cfg.Fetcher.Type
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	f, ok := e.fetchers[fetcherType]
	if !ok {
		// Fall back to any registered fetcher rather than dropping
		// the request when the preferred type is unavailable.
		if def, defOK := e.fetchers["http"]; defOK {
			return def, nil
		}
		return nil, fmt.Errorf("%w: %s", types.ErrNoFetcher, fetcherType)
	}
	return f, nil
}

// handleFetchError retries transient failures within the request's
// retry budget.
func (e *Engine) handleFetchError(logger *slog.Logger, req *types.Request, err error) {
	e.stats.RequestsFailed.Add(1)

	var fetchErr *types.FetchError
	if errors.As(err, &fetchErr) && fetchErr.IsRetryable() && req.RetryCount < req.MaxRetries {
		req.RetryCount++
		req.Priority = types.PriorityRetry
		logger.Warn("retrying request",
			"retry", req.RetryCount,
			"max_retries", req.MaxRetries,
			"error", err,
		)
		backoff := e.cfg.Engine.RetryDelay
		if fetchErr.RetryAfter > 0 {
			backoff = fetchErr.RetryAfter
		}
		if backoff > 0 {
			time.Sleep(fetcher.RandomDelay(backoff))
		}
		e.frontier.Push(req)
		return
	}

	e.stats.ResponsesError.Add(1)
	logger.Error("fetch failed permanently", "error", err, "retries", req.RetryCount)
}

// applyThrottle enforces per-domain politeness, honoring the larger
// of the configured delay and the domain's robots.txt crawl-delay.
func (e *Engine) applyThrottle(domain string) {
	delay := e.cfg.Engine.PolitenessDelay
	if crawlDelay := e.robots.CrawlDelay("https://" + domain); crawlDelay > delay {
		delay = crawlDelay
	}
	if delay <= 0 {
		return
	}

	e.throttleMu.Lock()
	t, ok := e.throttle[domain]
	if !ok {
		t = &domainThrottle{}
		e.throttle[domain] = t
	}
	e.throttleMu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastFetch)
	if elapsed < delay {
		time.Sleep(delay - elapsed)
	}
	t.lastFetch = time.Now()
}
