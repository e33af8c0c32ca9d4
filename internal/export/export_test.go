package export_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JPArangoRenteria/sitegraph/internal/export"
	"github.com/JPArangoRenteria/sitegraph/internal/graph"
	"github.com/JPArangoRenteria/sitegraph/internal/metrics"
	"github.com/JPArangoRenteria/sitegraph/pkg/hashutil"
)

// threePageRun builds the finalized A→B, A→C, B→C crawl used across
// the export tests.
func threePageRun(t *testing.T) (*graph.CrawlRun, map[string]metrics.NodeMetrics) {
	t.Helper()

	run := graph.NewCrawlRun("https://example.com/a", 10, 2, true)
	for _, u := range []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"} {
		run.AddNode(u, 0)
		run.MarkFetched(u, 200, "text/html; charset=utf-8", 512, false)
	}
	run.AddEdge("https://example.com/a", "https://example.com/b", 0, "to b")
	run.AddEdge("https://example.com/a", "https://example.com/c", 0, "")
	run.AddEdge("https://example.com/b", "https://example.com/c", 1, "")
	run.Finalize(graph.TerminatedExhausted)

	ranks := metrics.Rank(run, metrics.NewRankParam(0.85, 50, 1e-6))
	table := metrics.Classify(run, ranks, metrics.NewClassifyParam(0.90, 0.90))
	return run, table
}

func TestBuildSnapshot(t *testing.T) {
	run, table := threePageRun(t)

	snapshot, err := export.BuildSnapshot(run, table, hashutil.HashAlgoSHA256)
	require.NoError(t, err)

	require.Len(t, snapshot.Nodes, 3)
	require.Len(t, snapshot.Edges, 3)

	// Nodes ordered by canonical URL.
	assert.Equal(t, "https://example.com/a", snapshot.Nodes[0].URL)
	assert.Equal(t, "https://example.com/b", snapshot.Nodes[1].URL)
	assert.Equal(t, "https://example.com/c", snapshot.Nodes[2].URL)

	// IDs are stable short hashes, distinct per URL.
	seen := map[string]bool{}
	for _, node := range snapshot.Nodes {
		assert.Len(t, node.ID, 16)
		assert.False(t, seen[node.ID])
		seen[node.ID] = true
	}

	// Edges reference node IDs and keep discovery order.
	assert.Equal(t, snapshot.Nodes[0].ID, snapshot.Edges[0].Source)
	assert.Equal(t, snapshot.Nodes[1].ID, snapshot.Edges[0].Target)
	assert.Equal(t, "to b", snapshot.Edges[0].AnchorText)

	// Summary reflects the finalized run.
	assert.Equal(t, 3, snapshot.Summary.NodeCount)
	assert.Equal(t, 3, snapshot.Summary.EdgeCount)
	assert.Equal(t, "frontier_exhausted", snapshot.Summary.Termination)
	assert.Equal(t, metrics.WeaklyConnected, snapshot.Summary.Connectivity,
		"A→B, A→C, B→C is one component but C reaches nothing")
	assert.Equal(t, 3, snapshot.Summary.NodesByState[graph.StateFetched])
	assert.InDelta(t, 1.0, snapshot.Summary.AvgOutDegree, 1e-9)
}

func TestBuildSnapshot_UnknownAlgo(t *testing.T) {
	run, table := threePageRun(t)
	_, err := export.BuildSnapshot(run, table, "md5")
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	run, table := threePageRun(t)
	snapshot, err := export.BuildSnapshot(run, table, hashutil.HashAlgoSHA256)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, export.WriteJSON(&buf, snapshot))

	var decoded export.Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, snapshot.Summary.NodeCount, decoded.Summary.NodeCount)
	assert.Len(t, decoded.Nodes, 3)
	assert.Len(t, decoded.Edges, 3)

	// Byte-stable across repeated writes.
	var again bytes.Buffer
	require.NoError(t, export.WriteJSON(&again, snapshot))
	assert.Equal(t, buf.String(), again.String())
}

func TestWriteDOT(t *testing.T) {
	run, table := threePageRun(t)
	snapshot, err := export.BuildSnapshot(run, table, hashutil.HashAlgoSHA256)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, export.WriteDOT(&buf, snapshot))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph sitegraph {"))
	assert.True(t, strings.HasSuffix(out, "}\n"))

	for _, node := range snapshot.Nodes {
		assert.Contains(t, out, `"`+node.ID+`"`)
	}
	assert.Contains(t, out, snapshot.Edges[0].Source+`" -> "`+snapshot.Edges[0].Target)
	assert.Contains(t, out, "to b")
}

func TestWriteSummary(t *testing.T) {
	run, table := threePageRun(t)
	snapshot, err := export.BuildSnapshot(run, table, hashutil.HashAlgoSHA256)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, export.WriteSummary(&buf, snapshot))
	out := buf.String()

	assert.Contains(t, out, "seed:")
	assert.Contains(t, out, "nodes:        3")
	assert.Contains(t, out, "edges:        3")
	assert.Contains(t, out, "termination:  frontier_exhausted")
	assert.Contains(t, out, "connectivity: weakly_connected")
	assert.Contains(t, out, "state fetched:")
}
