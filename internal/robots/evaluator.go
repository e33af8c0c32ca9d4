package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"

	"github.com/JPArangoRenteria/sitegraph/internal/metadata"
)

/*
Responsibilities

- Fetch robots.txt once per host
- Cache rules for the crawl duration
- Answer allow/deny and crawl-delay queries before a URL enters the frontier

Fetch Semantics

- A fetch failure or non-2xx response is treated as "allow all, no extra
  delay". Fail-open is a deliberate policy choice: absence of robots.txt
  is the common case and must not block crawling.
- The cache is never refreshed within a single run.
- Concurrent workers querying the same host share one in-flight fetch
  (singleflight); later callers wait on the first result.
*/

// robots.txt files larger than this are truncated before parsing.
const maxRobotsBytes = 500 * 1024

type Evaluator struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	userAgent    string
	timeout      time.Duration

	// bypass disables robots evaluation entirely (respectRobots=false)
	bypass bool

	flight   singleflight.Group
	mu       sync.RWMutex
	policies map[string]*hostPolicy
}

func NewEvaluator(
	metadataSink metadata.MetadataSink,
	userAgent string,
	timeout time.Duration,
	bypass bool,
) *Evaluator {
	return &Evaluator{
		metadataSink: metadataSink,
		httpClient:   &http.Client{Timeout: timeout},
		userAgent:    userAgent,
		timeout:      timeout,
		bypass:       bypass,
		policies:     make(map[string]*hostPolicy),
	}
}

// NewEvaluatorWithClient creates an Evaluator with a custom HTTP client.
// This is useful for testing.
func NewEvaluatorWithClient(
	metadataSink metadata.MetadataSink,
	userAgent string,
	httpClient *http.Client,
	bypass bool,
) *Evaluator {
	return &Evaluator{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		userAgent:    userAgent,
		bypass:       bypass,
		policies:     make(map[string]*hostPolicy),
	}
}

// Decide answers whether the given URL may be fetched under the host's
// robots policy. The first call for a host triggers the robots.txt
// fetch; concurrent callers for the same host wait on that single fetch.
func (e *Evaluator) Decide(ctx context.Context, u url.URL) Decision {
	if e.bypass {
		return Decision{Url: u, Allowed: true, Reason: RobotsBypassed}
	}

	policy := e.policyFor(ctx, u.Scheme, u.Host)

	if policy.failOpen || policy.group == nil {
		return Decision{Url: u, Allowed: true, Reason: AllowedFailOpen}
	}

	testPath := u.Path
	if testPath == "" {
		testPath = "/"
	}
	if u.RawQuery != "" {
		testPath += "?" + u.RawQuery
	}

	if !policy.group.Test(testPath) {
		return Decision{Url: u, Allowed: false, Reason: DisallowedByRobots}
	}

	decision := Decision{Url: u, Allowed: true, Reason: AllowedByRobots}
	if policy.crawlDelay > 0 {
		delay := policy.crawlDelay
		decision.CrawlDelay = &delay
	}
	return decision
}

// CrawlDelay returns the robots crawl-delay for a host, or zero when the
// host specified none (the caller applies its own base delay).
func (e *Evaluator) CrawlDelay(host string) time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if policy, ok := e.policies[host]; ok {
		return policy.crawlDelay
	}
	return 0
}

// policyFor returns the cached policy for host, fetching robots.txt on
// first use. Exactly one fetch per host happens per run.
func (e *Evaluator) policyFor(ctx context.Context, scheme, host string) *hostPolicy {
	e.mu.RLock()
	policy, ok := e.policies[host]
	e.mu.RUnlock()
	if ok {
		return policy
	}

	result, _, _ := e.flight.Do(host, func() (interface{}, error) {
		fetched := e.fetchPolicy(ctx, scheme, host)

		e.mu.Lock()
		e.policies[host] = fetched
		e.mu.Unlock()

		return fetched, nil
	})

	return result.(*hostPolicy)
}

func (e *Evaluator) fetchPolicy(ctx context.Context, scheme, host string) *hostPolicy {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	policy := &hostPolicy{
		host:      host,
		fetchedAt: time.Now(),
		sourceURL: robotsURL,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		policy.failOpen = true
		return policy
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/plain,text/html,*/*")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.recordFailOpen(robotsURL, err.Error())
		policy.failOpen = true
		return policy
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 4xx means "no robots.txt"; 5xx and everything else fail open
		// too, since retrying robots would block the whole host.
		policy.failOpen = true
		return policy
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		e.recordFailOpen(robotsURL, err.Error())
		policy.failOpen = true
		return policy
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		e.recordFailOpen(robotsURL, err.Error())
		policy.failOpen = true
		return policy
	}

	group := data.FindGroup(e.userAgent)
	policy.group = group
	if group != nil {
		policy.crawlDelay = group.CrawlDelay
	}
	return policy
}

func (e *Evaluator) recordFailOpen(robotsURL string, detail string) {
	e.metadataSink.RecordError(
		time.Now(),
		"robots",
		"Evaluator.fetchPolicy",
		metadata.CauseNetworkFailure,
		detail,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, robotsURL),
		},
	)
}
