package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/JPArangoRenteria/sitegraph/internal/graph"
	"github.com/JPArangoRenteria/sitegraph/internal/metrics"
)

// WriteSummary renders the run summary as plain text, one fact per
// line, for terminal use.
func WriteSummary(w io.Writer, snapshot Snapshot) error {
	s := snapshot.Summary

	var sb strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&sb, format+"\n", args...)
	}

	line("seed:         %s", s.SeedURL)
	line("termination:  %s", s.Termination)
	line("connectivity: %s", s.Connectivity)
	line("duration:     %dms", s.DurationMilli)
	line("nodes:        %d", s.NodeCount)
	line("edges:        %d", s.EdgeCount)
	line("avg out-deg:  %.2f", s.AvgOutDegree)

	states := make([]string, 0, len(s.NodesByState))
	for state := range s.NodesByState {
		states = append(states, string(state))
	}
	sort.Strings(states)
	for _, state := range states {
		line("state %-12s %d", state+":", s.NodesByState[graph.FetchState(state)])
	}

	labels := make([]string, 0, len(s.NodesByLabel))
	for label := range s.NodesByLabel {
		labels = append(labels, string(label))
	}
	sort.Strings(labels)
	for _, label := range labels {
		line("label %-12s %d", label+":", s.NodesByLabel[metrics.Label(label)])
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
