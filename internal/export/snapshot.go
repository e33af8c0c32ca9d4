package export

import (
	"github.com/JPArangoRenteria/sitegraph/internal/graph"
	"github.com/JPArangoRenteria/sitegraph/internal/metrics"
	"github.com/JPArangoRenteria/sitegraph/pkg/hashutil"
)

/*
	Responsibilities:
	- Project a finalized CrawlRun plus its classification table into
	  the neutral Snapshot form: nodes sorted by canonical URL, edges
	  in discovery order, node IDs derived from URL hashes.
	- Read-only over its inputs; all analysis already happened.
*/

// nodeIDLen truncates the URL hash: 16 hex chars keeps IDs readable
// in DOT output while staying unique within any realistic crawl.
const nodeIDLen = 16

// BuildSnapshot assembles the export projection. It fails only when
// the hash algorithm is unknown.
func BuildSnapshot(run *graph.CrawlRun, table map[string]metrics.NodeMetrics, algo hashutil.HashAlgo) (Snapshot, error) {
	nodes := run.Nodes()
	records := make([]NodeRecord, 0, len(nodes))
	ids := make(map[string]string, len(nodes))

	for _, node := range nodes {
		id, err := nodeID(node.URL, algo)
		if err != nil {
			return Snapshot{}, err
		}
		ids[node.URL] = id

		record := NodeRecord{
			ID:          id,
			URL:         node.URL,
			Depth:       node.Depth,
			State:       node.State,
			Label:       table[node.URL].Label,
			Rank:        table[node.URL].Rank,
			InDegree:    node.InDegree,
			OutDegree:   node.OutDegree,
			StatusCode:  node.StatusCode,
			ContentType: node.ContentType,
			SizeBytes:   node.SizeBytes,
			Truncated:   node.Truncated,
			Reason:      node.Reason,
		}
		if !node.FetchedAt.IsZero() {
			fetchedAt := node.FetchedAt
			record.FetchedAt = &fetchedAt
		}
		records = append(records, record)
	}

	edges := run.Edges()
	edgeRecords := make([]EdgeRecord, 0, len(edges))
	for _, edge := range edges {
		edgeRecords = append(edgeRecords, EdgeRecord{
			Source:     ids[edge.Source],
			Target:     ids[edge.Target],
			SourceURL:  edge.Source,
			TargetURL:  edge.Target,
			Depth:      edge.Depth,
			AnchorText: edge.AnchorText,
		})
	}

	return Snapshot{
		Summary: buildSummary(run, records),
		Nodes:   records,
		Edges:   edgeRecords,
	}, nil
}

func nodeID(canonicalURL string, algo hashutil.HashAlgo) (string, error) {
	sum, err := hashutil.HashBytes([]byte(canonicalURL), algo)
	if err != nil {
		return "", err
	}
	if len(sum) > nodeIDLen {
		sum = sum[:nodeIDLen]
	}
	return sum, nil
}

func buildSummary(run *graph.CrawlRun, records []NodeRecord) Summary {
	byLabel := make(map[metrics.Label]int)
	totalOut := 0
	for _, record := range records {
		byLabel[record.Label]++
		totalOut += record.OutDegree
	}

	avgOut := 0.0
	if len(records) > 0 {
		avgOut = float64(totalOut) / float64(len(records))
	}

	duration := run.FinishedAt().Sub(run.StartedAt())

	return Summary{
		SeedURL:       run.SeedURL(),
		MaxPages:      run.MaxPages(),
		MaxDepth:      run.MaxDepth(),
		SameDomain:    run.SameDomain(),
		Termination:   string(run.Termination()),
		Connectivity:  metrics.GraphConnectivity(run),
		NodeCount:     run.NodeCount(),
		EdgeCount:     run.EdgeCount(),
		NodesByState:  run.CountByState(),
		NodesByLabel:  byLabel,
		AvgOutDegree:  avgOut,
		DurationMilli: duration.Milliseconds(),
	}
}
