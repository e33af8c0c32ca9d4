package frontier

import "net/url"

// Crawl state & ordering

// EntryState is the per-URL lifecycle:
//
//	discovered → queued → in-flight → {fetched | failed | skipped}
//
// Transitions are driven only by the Frontier itself; workers never
// mutate entry state directly.
type EntryState string

const (
	StateDiscovered EntryState = "discovered"
	StateQueued     EntryState = "queued"
	StateInFlight   EntryState = "in-flight"
	StateFetched    EntryState = "fetched"
	StateFailed     EntryState = "failed"
	StateSkipped    EntryState = "skipped"
)

// SkipReason explains why a URL reached the skipped terminal state.
type SkipReason string

const (
	SkipBudgetExceeded SkipReason = "budget_exceeded"
	SkipDepthExceeded  SkipReason = "depth_exceeded"
	SkipCrossDomain    SkipReason = "cross_domain"
	SkipRobotsDenied   SkipReason = "robots_denied"
)

// Entry is the frontier's lightweight scheduling record for one URL.
// The graph owns the full PageNode; the frontier holds only the
// canonical URL key, its first-seen depth, and its lifecycle state.
type Entry struct {
	canonicalURL string
	parsedURL    url.URL
	depth        int
	state        EntryState
	skipReason   SkipReason
}

func (e Entry) CanonicalURL() string {
	return e.canonicalURL
}

func (e Entry) URL() url.URL {
	return e.parsedURL
}

func (e Entry) Depth() int {
	return e.depth
}

func (e Entry) State() EntryState {
	return e.state
}

func (e Entry) SkipReason() SkipReason {
	return e.skipReason
}

type SourceContext string

const (
	SourceSeed  SourceContext = "Seed"
	SourceCrawl SourceContext = "Crawl"
)

// AdmissionCandidate represents a URL proposed for admission.
//
// Invariants:
//   - targetURL is already canonicalized (urlutil.Canonicalize)
//   - the Frontier is the only component that evaluates admission
//   - depth is the discovery depth: parent depth + 1, seed at 0
type AdmissionCandidate struct {
	targetURL     url.URL
	canonicalURL  string
	sourceContext SourceContext
	depth         int
}

func NewAdmissionCandidate(
	targetURL url.URL,
	sourceContext SourceContext,
	depth int,
) AdmissionCandidate {
	return AdmissionCandidate{
		targetURL:     targetURL,
		canonicalURL:  targetURL.String(),
		sourceContext: sourceContext,
		depth:         depth,
	}
}

func (c AdmissionCandidate) URL() url.URL {
	return c.targetURL
}

func (c AdmissionCandidate) CanonicalURL() string {
	return c.canonicalURL
}

func (c AdmissionCandidate) Depth() int {
	return c.depth
}

// AdmissionOutcome is the frontier's verdict on a candidate.
type AdmissionOutcome string

const (
	// Admitted: the URL entered the frontier queue.
	Admitted AdmissionOutcome = "admitted"
	// Duplicate: the URL was seen before; first-seen depth wins.
	Duplicate AdmissionOutcome = "duplicate"
	// RejectedDepth: the candidate's depth exceeds maxDepth.
	RejectedDepth AdmissionOutcome = "rejected_depth"
	// RejectedDomain: same-domain mode is set and the host differs
	// from the seed's canonical host.
	RejectedDomain AdmissionOutcome = "rejected_domain"
)
