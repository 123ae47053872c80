package render

import (
	"fmt"
	"strings"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
)

// Summary renders the plain-text overview: title, counts, one line per node
// and one per edge. Edge lines reference node labels, not ids; the text
// importer parses this exact layout back.
func Summary(d *store.Diagram) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Flow Diagram: %s\n", d.Options().Title)
	fmt.Fprintf(&b, "Nodes: %d, Edges: %d\n", d.NodeCount(), d.EdgeCount())

	b.WriteString("\nNodes:\n")
	labels := make(map[string]string, d.NodeCount())
	for _, n := range d.Nodes() {
		labels[n.ID] = n.Label
		if n.Type != "" {
			fmt.Fprintf(&b, "  - %s: %s (%s)\n", n.ID, n.Label, n.Type)
		} else {
			fmt.Fprintf(&b, "  - %s: %s\n", n.ID, n.Label)
		}
	}

	b.WriteString("\nEdges:\n")
	for _, e := range d.Edges() {
		src, ok := labels[e.Source]
		if !ok {
			src = e.Source
		}
		dst, ok := labels[e.Target]
		if !ok {
			dst = e.Target
		}
		if e.Label != "" {
			fmt.Fprintf(&b, "  - %s -> %s (%s)\n", src, dst, e.Label)
		} else {
			fmt.Fprintf(&b, "  - %s -> %s\n", src, dst)
		}
	}
	return b.String()
}
