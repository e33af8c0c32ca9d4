package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/JPArangoRenteria/sitegraph/internal/metrics"
)

// labelFillColors maps each classification to a Graphviz fill color so
// the structure is readable at a glance.
var labelFillColors = map[metrics.Label]string{
	metrics.LabelHub:       "lightsalmon",
	metrics.LabelAuthority: "lightblue",
	metrics.LabelLeaf:      "lightyellow",
	metrics.LabelIsolated:  "lightgrey",
	metrics.LabelOrdinary:  "white",
	metrics.LabelUnvisited: "mistyrose",
}

// WriteDOT renders the snapshot as a Graphviz digraph for external
// renderers. Node and edge order follows the snapshot, so the output
// is byte-stable for a given crawl result.
func WriteDOT(w io.Writer, snapshot Snapshot) error {
	var sb strings.Builder

	sb.WriteString("digraph sitegraph {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  fontname=\"Helvetica\";\n")
	sb.WriteString("  node [fontname=\"Helvetica\" fontsize=10 style=filled];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\" fontsize=8];\n\n")

	for _, node := range snapshot.Nodes {
		fill, ok := labelFillColors[node.Label]
		if !ok {
			fill = "white"
		}
		label := fmt.Sprintf("%s\\n%s | depth %d | in %d out %d",
			escapeDOTLabel(node.URL), node.Label, node.Depth, node.InDegree, node.OutDegree)
		shape := "box"
		if node.State != "fetched" {
			shape = "ellipse"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\" shape=%s fillcolor=%s];\n",
			node.ID, label, shape, fill))
	}
	sb.WriteString("\n")

	for _, edge := range snapshot.Edges {
		if edge.AnchorText != "" {
			sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\"];\n",
				edge.Source, edge.Target, escapeDOTLabel(truncateLabel(edge.AnchorText, 30))))
			continue
		}
		sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\";\n", edge.Source, edge.Target))
	}

	sb.WriteString("}\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func truncateLabel(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// escapeDOTLabel escapes special characters for DOT label strings.
func escapeDOTLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
