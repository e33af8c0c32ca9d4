package metrics

import (
	"math"

	"github.com/JPArangoRenteria/sitegraph/internal/graph"
)

/*
	Responsibilities:
	- Compute damped random-walk centrality over a finalized crawl
	  graph: uniform initial mass, dangling mass redistributed evenly,
	  iterate until the largest per-node delta drops below epsilon or
	  the iteration cap is hit.
	- Stay pure: the graph is read, never mutated.
*/

// Rank computes centrality scores keyed by canonical URL. An empty
// graph yields an empty map. Scores always sum to 1 (up to float
// error) because dangling mass is folded back in every sweep.
func Rank(run *graph.CrawlRun, param RankParam) map[string]float64 {
	nodes := run.Nodes()
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}
	}

	index := make(map[string]int, n)
	for i, node := range nodes {
		index[node.URL] = i
	}

	// Adjacency as incoming edge lists: for each node, the indices of
	// nodes linking to it. Out-degrees counted over edges whose both
	// endpoints resolved to graph nodes.
	incoming := make([][]int, n)
	outDegree := make([]int, n)
	for _, edge := range run.Edges() {
		src, okSrc := index[edge.Source]
		dst, okDst := index[edge.Target]
		if !okSrc || !okDst {
			continue
		}
		incoming[dst] = append(incoming[dst], src)
		outDegree[src]++
	}

	ranks := make([]float64, n)
	next := make([]float64, n)
	uniform := 1.0 / float64(n)
	for i := range ranks {
		ranks[i] = uniform
	}

	damping := param.Damping()
	base := (1.0 - damping) / float64(n)

	for iter := 0; iter < param.Iterations(); iter++ {
		// Mass sitting on dangling nodes has nowhere to flow; spread
		// it uniformly so the total stays 1.
		dangling := 0.0
		for i := 0; i < n; i++ {
			if outDegree[i] == 0 {
				dangling += ranks[i]
			}
		}
		danglingShare := damping * dangling / float64(n)

		for i := 0; i < n; i++ {
			sum := 0.0
			for _, src := range incoming[i] {
				sum += ranks[src] / float64(outDegree[src])
			}
			next[i] = base + danglingShare + damping*sum
		}

		delta := 0.0
		for i := 0; i < n; i++ {
			if d := math.Abs(next[i] - ranks[i]); d > delta {
				delta = d
			}
		}
		ranks, next = next, ranks
		if delta < param.Epsilon() {
			break
		}
	}

	out := make(map[string]float64, n)
	for i, node := range nodes {
		out[node.URL] = ranks[i]
	}
	return out
}
