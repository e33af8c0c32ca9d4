package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JPArangoRenteria/sitegraph/internal/config"
	"github.com/JPArangoRenteria/sitegraph/internal/export"
	"github.com/JPArangoRenteria/sitegraph/internal/extractor"
	"github.com/JPArangoRenteria/sitegraph/internal/fetcher"
	"github.com/JPArangoRenteria/sitegraph/internal/frontier"
	"github.com/JPArangoRenteria/sitegraph/internal/graph"
	"github.com/JPArangoRenteria/sitegraph/internal/metadata"
	"github.com/JPArangoRenteria/sitegraph/internal/metrics"
	"github.com/JPArangoRenteria/sitegraph/internal/robots"
	"github.com/JPArangoRenteria/sitegraph/pkg/failure"
	"github.com/JPArangoRenteria/sitegraph/pkg/hashutil"
	"github.com/JPArangoRenteria/sitegraph/pkg/limiter"
	"github.com/JPArangoRenteria/sitegraph/pkg/retry"
	"github.com/JPArangoRenteria/sitegraph/pkg/timeutil"
	"github.com/JPArangoRenteria/sitegraph/pkg/urlutil"
)

/*
 Scheduler is the sole control-plane authority of the crawl.

 Determinism and admission guarantees:
 - Scheduler is the ONLY component allowed to decide whether a URL
   may enter the crawl frontier or the graph.
 - Frontier and CrawlRun are mutated exclusively by the scheduler
   goroutine; workers only fetch, extract, and resolve, and report
   outcomes over a channel.
 - Pipeline stages may detect and classify failure, but must never
   decide retry, continuation, or abortion.

 Metadata emission is observational only and MUST NOT influence
 scheduling, retries, or crawl termination.

 Scheduler Responsibilities:
 - Coordinate crawl lifecycle
 - Enforce global limits (pages, depth, domain) via the frontier
 - Apply per-host politeness timing before each fetch
 - Manage graceful shutdown on context cancellation
 - Finalize the graph and hand it to metrics, then export
*/

type Scheduler struct {
	cfg config.Config

	metadataSink   metadata.MetadataSink
	crawlFinalizer metadata.CrawlFinalizer

	robotEvaluator *robots.Evaluator
	rateLimiter    limiter.RateLimiter
	pageFetcher    fetcher.Fetcher
	linkExtractor  extractor.LinkExtractor

	frontier *frontier.Frontier
	run      *graph.CrawlRun

	retryParam retry.RetryParam
}

func NewScheduler(cfg config.Config, log *logrus.Logger) *Scheduler {
	recorder := metadata.NewRecorder("scheduler", log)
	return NewSchedulerWithDeps(cfg, &recorder, &recorder, nil)
}

// NewSchedulerWithDeps creates a Scheduler with injected dependencies
// for testing. A nil pageFetcher gets the production PageFetcher built
// from the config.
func NewSchedulerWithDeps(
	cfg config.Config,
	crawlFinalizer metadata.CrawlFinalizer,
	metadataSink metadata.MetadataSink,
	pageFetcher fetcher.Fetcher,
) *Scheduler {
	if pageFetcher == nil {
		pf := fetcher.NewPageFetcher(
			metadataSink,
			cfg.RequestTimeout(),
			cfg.MaxRedirects(),
			cfg.MaxBodyBytes(),
		)
		pageFetcher = &pf
	}

	rateLimiter := limiter.NewConcurrentRateLimiter()
	rateLimiter.SetBaseDelay(cfg.BaseDelay())
	rateLimiter.SetJitter(cfg.Jitter())
	rateLimiter.SetRandomSeed(cfg.RandomSeed())

	retryParam := retry.NewRetryParam(
		cfg.BackoffInitialDuration(),
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		timeutil.NewBackoffParam(
			cfg.BackoffInitialDuration(),
			cfg.BackoffMultiplier(),
			cfg.BackoffMaxDuration(),
		),
	)

	seed := urlutil.Canonicalize(cfg.SeedURL())

	return &Scheduler{
		cfg:            cfg,
		metadataSink:   metadataSink,
		crawlFinalizer: crawlFinalizer,
		robotEvaluator: robots.NewEvaluator(metadataSink, cfg.UserAgent(), cfg.RobotsTimeout(), !cfg.RespectRobots()),
		rateLimiter:    rateLimiter,
		pageFetcher:    pageFetcher,
		linkExtractor:  extractor.NewLinkExtractor(metadataSink),
		frontier:       frontier.NewFrontier(cfg.MaxPages(), cfg.MaxDepth(), cfg.SameDomain(), seed.Host),
		run:            graph.NewCrawlRun(seed.String(), cfg.MaxPages(), cfg.MaxDepth(), cfg.SameDomain()),
		retryParam:     retryParam,
	}
}

// Execute runs the crawl to completion and returns the export
// snapshot. Cancelling the context stops dispatch, drains in-flight
// fetches, and finalizes whatever graph exists at that point; the
// partial result is still returned.
func (s *Scheduler) Execute(ctx context.Context) (export.Snapshot, error) {
	crawlStartTime := time.Now()

	defer func() {
		s.crawlFinalizer.RecordFinalCrawlStats(
			s.frontier.FetchedCount(),
			s.run.EdgeCount(),
			s.frontier.SkippedCount(),
			s.frontier.FailedCount(),
			time.Since(crawlStartTime),
		)
	}()

	s.admitSeed()

	concurrency := s.cfg.Concurrency()
	jobs := make(chan frontier.Entry, concurrency)
	results := make(chan crawlResult, concurrency)
	for i := 0; i < concurrency; i++ {
		go s.worker(ctx, jobs, results)
	}

	inFlight := 0
	for {
		if ctx.Err() == nil {
			for inFlight < concurrency {
				entry, ok := s.frontier.Next()
				if !ok {
					break
				}
				inFlight++
				jobs <- entry
			}
		}
		if inFlight == 0 {
			break
		}
		s.handleResult(<-results)
		inFlight--
	}
	close(jobs)

	return s.finalize(ctx), nil
}

func (s *Scheduler) admitSeed() {
	seed := urlutil.Canonicalize(s.cfg.SeedURL())
	candidate := frontier.NewAdmissionCandidate(seed, frontier.SourceSeed, 0)
	if s.frontier.Submit(candidate) == frontier.Admitted {
		s.run.AddNode(candidate.CanonicalURL(), 0)
	}
}

func (s *Scheduler) worker(ctx context.Context, jobs <-chan frontier.Entry, results chan<- crawlResult) {
	for entry := range jobs {
		results <- s.crawlOne(ctx, entry)
	}
}

// crawlOne performs the network half of the pipeline for one entry:
// robots gate, politeness wait, fetch, link extraction and resolution.
// It touches no frontier or graph state.
func (s *Scheduler) crawlOne(ctx context.Context, entry frontier.Entry) crawlResult {
	pageURL := entry.URL()
	host := pageURL.Host

	decision := s.robotEvaluator.Decide(ctx, pageURL)
	if decision.CrawlDelay != nil {
		s.rateLimiter.SetCrawlDelay(host, *decision.CrawlDelay)
	}
	if !decision.Allowed {
		return crawlResult{entry: entry, robotsDenied: true}
	}

	if delay := s.rateLimiter.ReserveDelay(host); delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return crawlResult{entry: entry, cancelled: true}
		case <-timer.C:
		}
	}
	if ctx.Err() != nil {
		return crawlResult{entry: entry, cancelled: true}
	}

	fetchParam := fetcher.NewFetchParam(pageURL, s.cfg.UserAgent())
	result, fetchErr := s.pageFetcher.Fetch(ctx, entry.Depth(), fetchParam, s.retryParam)
	s.rateLimiter.MarkLastFetchAsNow(host)

	if fetchErr != nil {
		if shouldBackoff(fetchErr) {
			s.rateLimiter.Backoff(host)
		}
		if ctx.Err() != nil {
			return crawlResult{entry: entry, cancelled: true}
		}
		return crawlResult{entry: entry, fetchErr: fetchErr}
	}
	s.rateLimiter.ResetBackoff(host)

	return crawlResult{
		entry:  entry,
		result: result,
		links:  s.resolveLinks(result),
	}
}

func (s *Scheduler) resolveLinks(result fetcher.FetchResult) []discoveredLink {
	if !result.IsHTML() {
		return nil
	}

	base := result.FinalURL()
	raw := s.linkExtractor.Links(base, result.ContentType(), result.Body())

	links := make([]discoveredLink, 0, len(raw))
	for _, link := range raw {
		resolved, ok, err := urlutil.Resolve(base, link.Href)
		if err != nil {
			s.metadataSink.RecordError(
				time.Now(),
				"scheduler",
				"urlutil.Resolve",
				metadata.CauseContentInvalid,
				err.Error(),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrURL, link.Href),
				},
			)
			continue
		}
		if !ok {
			continue
		}
		links = append(links, discoveredLink{target: resolved, anchor: link.AnchorText})
	}
	return links
}

// handleResult applies one worker outcome to the frontier and graph.
// Runs only on the scheduler goroutine.
func (s *Scheduler) handleResult(res crawlResult) {
	key := res.entry.CanonicalURL()
	depth := res.entry.Depth()

	switch {
	case res.robotsDenied:
		s.frontier.MarkSkipped(key, frontier.SkipRobotsDenied)
		s.run.MarkSkipped(key, string(frontier.SkipRobotsDenied))
		s.metadataSink.RecordSkip(key, string(frontier.SkipRobotsDenied), depth)

	case res.cancelled:
		s.frontier.MarkFailed(key)
		s.run.MarkFailed(key, "cancelled", 0)

	case res.fetchErr != nil:
		s.frontier.MarkFailed(key)
		s.run.MarkFailed(key, failReason(res.fetchErr), res.result.Code())

	default:
		s.frontier.MarkFetched(key)
		s.run.MarkFetched(
			key,
			res.result.Code(),
			res.result.ContentType(),
			res.result.SizeBytes(),
			res.result.Truncated(),
		)
		s.admitLinks(res)
	}
}

// admitLinks runs the discovered links of a fetched page through
// frontier admission and mirrors the verdict into the graph: admitted
// and duplicate targets get nodes and edges, depth and domain rejects
// get neither. Budget is not consulted here; targets the budget never
// reaches finalize as unvisited stubs.
func (s *Scheduler) admitLinks(res crawlResult) {
	sourceKey := res.entry.CanonicalURL()
	childDepth := res.entry.Depth() + 1

	for _, link := range res.links {
		candidate := frontier.NewAdmissionCandidate(link.target, frontier.SourceCrawl, childDepth)
		outcome := s.frontier.Submit(candidate)

		switch outcome {
		case frontier.Admitted:
			s.run.AddNode(candidate.CanonicalURL(), childDepth)
			s.run.AddEdge(sourceKey, candidate.CanonicalURL(), res.entry.Depth(), link.anchor)
		case frontier.Duplicate:
			s.run.AddEdge(sourceKey, candidate.CanonicalURL(), res.entry.Depth(), link.anchor)
		}
	}
}

// finalize drains the frontier, seals the graph, runs the analysis
// pass, and builds the export snapshot.
func (s *Scheduler) finalize(ctx context.Context) export.Snapshot {
	// Drained entries stay pending in the graph; Finalize promotes
	// them to unvisited stubs.
	drained := s.frontier.DrainQueued()

	termination := graph.TerminatedExhausted
	switch {
	case ctx.Err() != nil:
		termination = graph.TerminatedCancelled
	case len(drained) > 0:
		termination = graph.TerminatedBudget
	}
	s.run.Finalize(termination)

	ranks := metrics.Rank(s.run, metrics.NewRankParam(
		s.cfg.Damping(),
		s.cfg.RankIterations(),
		s.cfg.RankEpsilon(),
	))
	table := metrics.Classify(s.run, ranks, metrics.NewClassifyParam(
		s.cfg.HubPercentile(),
		s.cfg.AuthorityPercentile(),
	))

	snapshot, err := export.BuildSnapshot(s.run, table, hashutil.HashAlgoSHA256)
	if err != nil {
		// Unreachable with a compile-time algorithm constant; recorded
		// rather than propagated so the crawl result is never lost.
		s.metadataSink.RecordError(
			time.Now(),
			"scheduler",
			"export.BuildSnapshot",
			metadata.CauseInvariantViolation,
			err.Error(),
			[]metadata.Attribute{},
		)
	}
	return snapshot
}

// Run returns the underlying crawl graph, for tests that assert on
// topology directly.
func (s *Scheduler) Run() *graph.CrawlRun {
	return s.run
}

// lastAttemptError strips the retry-exhaustion wrapper so the caller
// sees the failure from the final attempt.
func lastAttemptError(err failure.ClassifiedError) failure.ClassifiedError {
	if retryErr, ok := err.(*retry.RetryError); ok && retryErr.LastErr != nil {
		return retryErr.LastErr
	}
	return err
}

func shouldBackoff(err failure.ClassifiedError) bool {
	fetchErr, ok := lastAttemptError(err).(*fetcher.FetchError)
	if !ok {
		return false
	}
	switch fetchErr.Cause {
	case fetcher.ErrCauseRequest5xx, fetcher.ErrCauseRequestTooMany, fetcher.ErrCauseTimeout:
		return true
	}
	return false
}

func failReason(err failure.ClassifiedError) string {
	err = lastAttemptError(err)
	if fetchErr, ok := err.(*fetcher.FetchError); ok {
		return string(fetchErr.Cause)
	}
	if retryErr, ok := err.(*retry.RetryError); ok {
		return string(retryErr.Cause)
	}
	return err.Error()
}
