package graph

import "time"

// FetchState is the lifecycle of a page node inside the graph.
// Nodes are created "pending" when first discovered and move to a
// terminal state as the crawl resolves them; nodes the budget never
// reached are finalized as "unvisited" stubs rather than dropped, so
// degree metrics stay accurate.
type FetchState string

const (
	StatePending   FetchState = "pending"
	StateFetched   FetchState = "fetched"
	StateFailed    FetchState = "failed"
	StateSkipped   FetchState = "skipped"
	StateUnvisited FetchState = "unvisited"
)

// PageNode is one crawled (or discovered) URL. Identity is the
// canonical URL string. Owned exclusively by the CrawlRun; the frontier
// holds only the canonical URL key for scheduling.
type PageNode struct {
	// URL is the canonical URL, the node identity.
	URL string

	// Depth is the number of link hops from the seed along the
	// discovery path that first reached this node.
	Depth int

	State FetchState

	// Reason records why a node failed or was skipped
	// (fetch error cause, robots denial, budget exhaustion).
	Reason string

	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	SizeBytes   int64
	Truncated   bool

	// Derived at finalization from the edge set.
	OutDegree int
	InDegree  int
}

// LinkEdge is a directed edge between two canonical URLs. The edge set
// has set semantics on the ordered pair: repeated discoveries of the
// same (source, target) collapse to one edge. Self-edges are permitted.
type LinkEdge struct {
	Source string
	Target string

	// Depth at which the edge was discovered (the source's depth).
	Depth int

	// Anchor text of the first discovery, optional.
	AnchorText string
}

type edgeKey struct {
	source string
	target string
}
