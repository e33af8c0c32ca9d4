package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JPArangoRenteria/sitegraph/internal/graph"
	"github.com/JPArangoRenteria/sitegraph/internal/metrics"
)

func defaultClassifyParam() metrics.ClassifyParam {
	return metrics.NewClassifyParam(0.90, 0.90)
}

func classify(t *testing.T, run *graph.CrawlRun) map[string]metrics.NodeMetrics {
	t.Helper()
	ranks := metrics.Rank(run, defaultRankParam())
	return metrics.Classify(run, ranks, defaultClassifyParam())
}

func TestClassify_ThreeNodeCrawl(t *testing.T) {
	// A links to B and C, B links to C, C links to nothing.
	run := graph.NewCrawlRun("https://example.com/a", 10, 2, true)
	fetchedNode(run, "https://example.com/a", 0)
	fetchedNode(run, "https://example.com/b", 1)
	fetchedNode(run, "https://example.com/c", 1)
	run.AddEdge("https://example.com/a", "https://example.com/b", 0, "")
	run.AddEdge("https://example.com/a", "https://example.com/c", 0, "")
	run.AddEdge("https://example.com/b", "https://example.com/c", 1, "")
	run.Finalize(graph.TerminatedExhausted)

	table := classify(t, run)
	require.Len(t, table, 3)

	// C was fetched and links out to nothing.
	assert.Equal(t, metrics.LabelLeaf, table["https://example.com/c"].Label)

	// A has the top out-degree of the crawl.
	assert.Equal(t, metrics.LabelHub, table["https://example.com/a"].Label)
}

func TestClassify_Isolated(t *testing.T) {
	run := graph.NewCrawlRun("https://example.com/a", 10, 2, true)
	fetchedNode(run, "https://example.com/a", 0)
	run.Finalize(graph.TerminatedExhausted)

	table := classify(t, run)
	assert.Equal(t, metrics.LabelIsolated, table["https://example.com/a"].Label)
}

func TestClassify_UnvisitedStubsAndSkips(t *testing.T) {
	run := graph.NewCrawlRun("https://example.com/a", 1, 2, true)
	fetchedNode(run, "https://example.com/a", 0)
	run.AddNode("https://example.com/stub", 1)
	run.AddNode("https://example.com/denied", 1)
	run.MarkSkipped("https://example.com/denied", "robots_denied")
	run.AddEdge("https://example.com/a", "https://example.com/stub", 0, "")
	run.AddEdge("https://example.com/a", "https://example.com/denied", 0, "")
	run.Finalize(graph.TerminatedBudget)

	table := classify(t, run)

	// Never-fetched nodes are unvisited regardless of their degrees,
	// and never eligible for hub or authority.
	assert.Equal(t, metrics.LabelUnvisited, table["https://example.com/stub"].Label)
	assert.Equal(t, metrics.LabelUnvisited, table["https://example.com/denied"].Label)
}

func TestClassify_Authority(t *testing.T) {
	// Five pages all link to /target, which links back out to one of
	// them, so it is not a leaf. Its in-degree tops the distribution
	// and its centrality is far above the median.
	run := graph.NewCrawlRun("https://example.com/p0", 10, 2, true)
	pages := []string{
		"https://example.com/p0",
		"https://example.com/p1",
		"https://example.com/p2",
		"https://example.com/p3",
		"https://example.com/p4",
	}
	for _, p := range pages {
		fetchedNode(run, p, 0)
	}
	fetchedNode(run, "https://example.com/target", 1)
	for _, p := range pages {
		run.AddEdge(p, "https://example.com/target", 0, "")
	}
	run.AddEdge("https://example.com/target", "https://example.com/p0", 1, "")
	run.Finalize(graph.TerminatedExhausted)

	table := classify(t, run)
	assert.Equal(t, metrics.LabelAuthority, table["https://example.com/target"].Label)
}

func TestClassify_FailedNodesKeepStructuralLabels(t *testing.T) {
	run := graph.NewCrawlRun("https://example.com/a", 10, 2, true)
	fetchedNode(run, "https://example.com/a", 0)
	run.AddNode("https://example.com/broken", 1)
	run.MarkFailed("https://example.com/broken", "timeout", 0)
	run.AddEdge("https://example.com/a", "https://example.com/broken", 0, "")
	run.Finalize(graph.TerminatedExhausted)

	table := classify(t, run)

	// A failed fetch was attempted, not skipped: the node is labeled
	// by its structure (no out-links known, so leaf).
	assert.Equal(t, metrics.LabelLeaf, table["https://example.com/broken"].Label)
}
