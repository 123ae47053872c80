package render

import (
	"fmt"
	"strings"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// renderMermaid emits the diagram as Mermaid flowchart text: a fixed
// graph TD header, one declaration per node, one arrow line per edge.
func renderMermaid(d *store.Diagram) string {
	var b strings.Builder

	b.WriteString("graph TD\n")
	if title := d.Options().Title; title != "" {
		fmt.Fprintf(&b, "    %%%% %s\n", title)
	}

	for _, n := range d.Nodes() {
		fmt.Fprintf(&b, "    %s\n", mermaidNodeDef(n))
	}
	for _, e := range d.Edges() {
		label := ""
		if e.Label != "" {
			label = fmt.Sprintf("|%s|", e.Label)
		}
		fmt.Fprintf(&b, "    %s -->%s %s\n", mermaidSafeID(e.Source), label, mermaidSafeID(e.Target))
	}
	return b.String()
}

// mermaidNodeDef returns a node declaration with the shape bracket for its
// type: double-brace for decision, single brace for condition, rounded for
// end, double square for parallel, square otherwise.
func mermaidNodeDef(n *schema.Node) string {
	id := mermaidSafeID(n.ID)
	switch n.Type {
	case schema.NodeTypeDecision:
		return fmt.Sprintf("%s{{%s}}", id, n.Label)
	case schema.NodeTypeCondition:
		return fmt.Sprintf("%s{%s}", id, n.Label)
	case schema.NodeTypeEnd:
		return fmt.Sprintf("%s([%s])", id, n.Label)
	case schema.NodeTypeParallel:
		return fmt.Sprintf("%s[[%s]]", id, n.Label)
	default:
		return fmt.Sprintf("%s[%s]", id, n.Label)
	}
}

// mermaidSafeID reduces an id to alphanumerics and underscores.
func mermaidSafeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
