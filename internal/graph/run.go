package graph

import (
	"sort"
	"time"
)

/*
	Responsibilities:
	- Hold the directed link graph accumulated while a crawl runs: one
	  node per canonical URL, one edge per distinct (source, target)
	  pair, plus the crawl parameters that produced them.
	- Apply upserts idempotently so duplicate discoveries never create
	  duplicate nodes or edges.
	- Seal the graph at finalization: promote still-pending nodes to
	  unvisited stubs, derive in/out degrees, and record why the crawl
	  terminated.

	The CrawlRun is mutated by exactly one goroutine (the scheduler) and
	read only after Finalize returns, so it carries no lock.
*/

// TerminationReason states why the crawl stopped.
type TerminationReason string

const (
	TerminatedExhausted TerminationReason = "frontier_exhausted"
	TerminatedBudget    TerminationReason = "page_budget_reached"
	TerminatedCancelled TerminationReason = "cancelled"
)

// CrawlRun is the graph aggregate for a single crawl.
type CrawlRun struct {
	seedURL    string
	maxPages   int
	maxDepth   int
	sameDomain bool

	startedAt  time.Time
	finishedAt time.Time

	nodes map[string]*PageNode
	edges []LinkEdge
	seen  map[edgeKey]struct{}

	finalized   bool
	termination TerminationReason
}

func NewCrawlRun(seedURL string, maxPages int, maxDepth int, sameDomain bool) *CrawlRun {
	return &CrawlRun{
		seedURL:    seedURL,
		maxPages:   maxPages,
		maxDepth:   maxDepth,
		sameDomain: sameDomain,
		startedAt:  time.Now(),
		nodes:      make(map[string]*PageNode),
		seen:       make(map[edgeKey]struct{}),
	}
}

// AddNode registers a canonical URL at the given depth. The first call
// wins: a later call for the same URL returns the existing node
// untouched, preserving first-seen depth.
func (r *CrawlRun) AddNode(canonicalURL string, depth int) *PageNode {
	if node, ok := r.nodes[canonicalURL]; ok {
		return node
	}
	if r.finalized {
		return nil
	}
	node := &PageNode{
		URL:   canonicalURL,
		Depth: depth,
		State: StatePending,
	}
	r.nodes[canonicalURL] = node
	return node
}

// AddEdge records a directed link between two already-registered
// nodes. Duplicate (source, target) pairs are dropped.
func (r *CrawlRun) AddEdge(source string, target string, depth int, anchorText string) {
	if r.finalized {
		return
	}
	key := edgeKey{source: source, target: target}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	r.edges = append(r.edges, LinkEdge{
		Source:     source,
		Target:     target,
		Depth:      depth,
		AnchorText: anchorText,
	})
}

// MarkFetched records a successful fetch on an existing node.
func (r *CrawlRun) MarkFetched(canonicalURL string, statusCode int, contentType string, sizeBytes int64, truncated bool) {
	if r.finalized {
		return
	}
	node, ok := r.nodes[canonicalURL]
	if !ok {
		return
	}
	node.State = StateFetched
	node.StatusCode = statusCode
	node.ContentType = contentType
	node.SizeBytes = sizeBytes
	node.Truncated = truncated
	node.FetchedAt = time.Now()
}

// MarkFailed records a terminal fetch failure on an existing node.
func (r *CrawlRun) MarkFailed(canonicalURL string, reason string, statusCode int) {
	if r.finalized {
		return
	}
	node, ok := r.nodes[canonicalURL]
	if !ok {
		return
	}
	node.State = StateFailed
	node.Reason = reason
	node.StatusCode = statusCode
}

// MarkSkipped records that policy excluded an existing node from
// fetching (robots denial, budget, depth).
func (r *CrawlRun) MarkSkipped(canonicalURL string, reason string) {
	if r.finalized {
		return
	}
	node, ok := r.nodes[canonicalURL]
	if !ok {
		return
	}
	node.State = StateSkipped
	node.Reason = reason
}

// Finalize seals the graph. Nodes still pending become unvisited
// stubs, degrees are derived from the edge set, and further mutation
// is ignored.
func (r *CrawlRun) Finalize(reason TerminationReason) {
	if r.finalized {
		return
	}
	r.finalized = true
	r.termination = reason
	r.finishedAt = time.Now()

	for _, node := range r.nodes {
		if node.State == StatePending {
			node.State = StateUnvisited
		}
	}
	for _, edge := range r.edges {
		if src, ok := r.nodes[edge.Source]; ok {
			src.OutDegree++
		}
		if dst, ok := r.nodes[edge.Target]; ok {
			dst.InDegree++
		}
	}
}

func (r *CrawlRun) Finalized() bool {
	return r.finalized
}

func (r *CrawlRun) Termination() TerminationReason {
	return r.termination
}

func (r *CrawlRun) SeedURL() string {
	return r.seedURL
}

func (r *CrawlRun) MaxPages() int {
	return r.maxPages
}

func (r *CrawlRun) MaxDepth() int {
	return r.maxDepth
}

func (r *CrawlRun) SameDomain() bool {
	return r.sameDomain
}

func (r *CrawlRun) StartedAt() time.Time {
	return r.startedAt
}

func (r *CrawlRun) FinishedAt() time.Time {
	return r.finishedAt
}

// Node returns the node for a canonical URL, or nil.
func (r *CrawlRun) Node(canonicalURL string) *PageNode {
	return r.nodes[canonicalURL]
}

func (r *CrawlRun) NodeCount() int {
	return len(r.nodes)
}

func (r *CrawlRun) EdgeCount() int {
	return len(r.edges)
}

// Nodes returns all nodes sorted by canonical URL, for deterministic
// iteration by metrics and export.
func (r *CrawlRun) Nodes() []*PageNode {
	out := make([]*PageNode, 0, len(r.nodes))
	for _, node := range r.nodes {
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].URL < out[j].URL
	})
	return out
}

// Edges returns the edge list in discovery order.
func (r *CrawlRun) Edges() []LinkEdge {
	out := make([]LinkEdge, len(r.edges))
	copy(out, r.edges)
	return out
}

// CountByState tallies nodes per fetch state.
func (r *CrawlRun) CountByState() map[FetchState]int {
	counts := make(map[FetchState]int)
	for _, node := range r.nodes {
		counts[node.State]++
	}
	return counts
}
