package metrics

import (
	"sort"

	"github.com/JPArangoRenteria/sitegraph/internal/graph"
)

/*
	Responsibilities:
	- Assign each node exactly one label from the centrality scores and
	  the degrees derived at graph finalization.
	- Cut the distributions relatively: thresholds are percentiles of
	  the fetched nodes' actual degree values, never absolute numbers,
	  so a small crawl still partitions sensibly.

	Pure function over the finalized graph and a rank table; no crawl
	state, no clock, no I/O.
*/

// Classify labels every node in the finalized graph.
//
// Precedence, first match wins:
//
//	unvisited: node was never fetched (budget stub or policy skip)
//	isolated:  no edges in either direction
//	leaf:      out-degree zero
//	hub:       fetched, out-degree at or above the hub percentile and
//	           above the fetched median out-degree
//	authority: fetched, in-degree at or above the authority percentile
//	           and above the fetched median in-degree, with centrality
//	           above the fetched median
//	ordinary:  none of the above
//
// The above-median requirements keep degenerate distributions honest:
// when every fetched page has the same degree, the percentile threshold
// equals that degree and would otherwise promote the whole crawl.
func Classify(run *graph.CrawlRun, ranks map[string]float64, param ClassifyParam) map[string]NodeMetrics {
	nodes := run.Nodes()

	var outDegrees, inDegrees, fetchedRanks []float64
	for _, node := range nodes {
		if node.State != graph.StateFetched {
			continue
		}
		outDegrees = append(outDegrees, float64(node.OutDegree))
		inDegrees = append(inDegrees, float64(node.InDegree))
		fetchedRanks = append(fetchedRanks, ranks[node.URL])
	}

	cuts := thresholds{
		hub:        percentile(outDegrees, param.HubPercentile()),
		authority:  percentile(inDegrees, param.AuthorityPercentile()),
		medianOut:  percentile(outDegrees, 0.5),
		medianIn:   percentile(inDegrees, 0.5),
		medianRank: percentile(fetchedRanks, 0.5),
	}

	out := make(map[string]NodeMetrics, len(nodes))
	for _, node := range nodes {
		out[node.URL] = NodeMetrics{
			Rank:  ranks[node.URL],
			Label: labelFor(node, ranks[node.URL], cuts),
		}
	}
	return out
}

type thresholds struct {
	hub        float64
	authority  float64
	medianOut  float64
	medianIn   float64
	medianRank float64
}

func labelFor(node *graph.PageNode, rank float64, cuts thresholds) Label {
	switch node.State {
	case graph.StateUnvisited, graph.StateSkipped:
		return LabelUnvisited
	}
	if node.InDegree == 0 && node.OutDegree == 0 {
		return LabelIsolated
	}
	if node.OutDegree == 0 {
		return LabelLeaf
	}
	if node.State == graph.StateFetched {
		outDegree := float64(node.OutDegree)
		if outDegree >= cuts.hub && outDegree > cuts.medianOut {
			return LabelHub
		}
		inDegree := float64(node.InDegree)
		if inDegree >= cuts.authority && inDegree > cuts.medianIn && rank > cuts.medianRank {
			return LabelAuthority
		}
	}
	return LabelOrdinary
}

// percentile is the nearest-rank percentile of values; zero when the
// sample is empty.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	rank := int(p * float64(len(sorted)))
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
