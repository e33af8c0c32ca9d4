package metrics

import (
	"github.com/JPArangoRenteria/sitegraph/internal/graph"
)

// Connectivity classifies the finalized digraph as a whole.
type Connectivity string

const (
	// Every node reaches every other node along directed edges.
	StronglyConnected Connectivity = "strongly_connected"
	// One component when edge direction is ignored, but not strongly
	// connected.
	WeaklyConnected Connectivity = "weakly_connected"
	// More than one component even ignoring edge direction.
	Disconnected Connectivity = "disconnected"
)

// GraphConnectivity reports the connectivity class of the finalized
// graph. A graph with at most one node is trivially strongly connected.
//
// Strong connectivity holds exactly when some node reaches every node
// following edges forward and also following them backward.
func GraphConnectivity(run *graph.CrawlRun) Connectivity {
	nodes := run.Nodes()
	n := len(nodes)
	if n <= 1 {
		return StronglyConnected
	}

	index := make(map[string]int, n)
	for i, node := range nodes {
		index[node.URL] = i
	}

	forward := make([][]int, n)
	backward := make([][]int, n)
	undirected := make([][]int, n)
	for _, edge := range run.Edges() {
		src, dst := index[edge.Source], index[edge.Target]
		forward[src] = append(forward[src], dst)
		backward[dst] = append(backward[dst], src)
		undirected[src] = append(undirected[src], dst)
		undirected[dst] = append(undirected[dst], src)
	}

	if reachesAll(forward) && reachesAll(backward) {
		return StronglyConnected
	}
	if reachesAll(undirected) {
		return WeaklyConnected
	}
	return Disconnected
}

// reachesAll reports whether every node is reachable from node 0.
func reachesAll(adj [][]int) bool {
	visited := make([]bool, len(adj))
	visited[0] = true
	reached := 1

	stack := []int{0}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[cur] {
			if !visited[next] {
				visited[next] = true
				reached++
				stack = append(stack, next)
			}
		}
	}
	return reached == len(adj)
}
