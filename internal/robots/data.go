package robots

import (
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

// Permission modeling

// hostPolicy is the cached robots outcome for one host. It is resolved
// once per host per run and never refreshed.
type hostPolicy struct {
	host string

	// Parsed rules group for our user agent. Nil when the policy is
	// fail-open (robots.txt missing, unreachable, or unparsable).
	group *robotstxt.Group

	// Crawl-delay from robots.txt; zero means "no directive".
	crawlDelay time.Duration

	// Metadata / observability
	fetchedAt time.Time
	sourceURL string

	// failOpen marks hosts whose robots.txt could not be retrieved.
	// Absence of robots.txt is the common case and must not block
	// crawling, so these hosts allow everything with no extra delay.
	failOpen bool
}

type DecisionReason string

const (
	AllowedByRobots    DecisionReason = "allowed_by_robots"
	DisallowedByRobots DecisionReason = "disallowed_by_robots"
	AllowedFailOpen    DecisionReason = "allowed_fail_open"
	RobotsBypassed     DecisionReason = "robots_bypassed"
)

type Decision struct {
	Url url.URL

	Allowed bool

	// Why this decision was made (for logging/debugging)
	Reason DecisionReason

	// Optional delay override (robots crawl-delay); nil when unspecified
	CrawlDelay *time.Duration
}
