package export

import (
	"time"

	"github.com/JPArangoRenteria/sitegraph/internal/graph"
	"github.com/JPArangoRenteria/sitegraph/internal/metrics"
)

// NodeRecord is the neutral, serialization-ready view of one graph
// node. ID is a stable hash of the canonical URL so renderers can key
// on something shorter than the URL itself.
type NodeRecord struct {
	ID          string           `json:"id"`
	URL         string           `json:"url"`
	Depth       int              `json:"depth"`
	State       graph.FetchState `json:"state"`
	Label       metrics.Label    `json:"label"`
	Rank        float64          `json:"rank"`
	InDegree    int              `json:"inDegree"`
	OutDegree   int              `json:"outDegree"`
	StatusCode  int              `json:"statusCode,omitempty"`
	ContentType string           `json:"contentType,omitempty"`
	SizeBytes   int64            `json:"sizeBytes,omitempty"`
	Truncated   bool             `json:"truncated,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	FetchedAt   *time.Time       `json:"fetchedAt,omitempty"`
}

// EdgeRecord is one directed link between two node IDs.
type EdgeRecord struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	SourceURL  string `json:"sourceUrl"`
	TargetURL  string `json:"targetUrl"`
	Depth      int    `json:"depth"`
	AnchorText string `json:"anchorText,omitempty"`
}

// Summary aggregates the run for humans and dashboards.
type Summary struct {
	SeedURL       string                   `json:"seedUrl"`
	MaxPages      int                      `json:"maxPages"`
	MaxDepth      int                      `json:"maxDepth"`
	SameDomain    bool                     `json:"sameDomain"`
	Termination   string                   `json:"termination"`
	Connectivity  metrics.Connectivity     `json:"connectivity"`
	NodeCount     int                      `json:"nodeCount"`
	EdgeCount     int                      `json:"edgeCount"`
	NodesByState  map[graph.FetchState]int `json:"nodesByState"`
	NodesByLabel  map[metrics.Label]int    `json:"nodesByLabel"`
	AvgOutDegree  float64                  `json:"avgOutDegree"`
	DurationMilli int64                    `json:"durationMs"`
}

// Snapshot is the complete neutral projection of a finalized crawl:
// nodes ordered by canonical URL, edges in discovery order, and the
// run summary. It performs no computation of its own.
type Snapshot struct {
	Summary Summary      `json:"summary"`
	Nodes   []NodeRecord `json:"nodes"`
	Edges   []EdgeRecord `json:"edges"`
}
