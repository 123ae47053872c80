package render

import (
	"fmt"
	"strings"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// renderDOT emits Graphviz DOT text for use with external graphviz tooling.
func renderDOT(d *store.Diagram, opts Options) string {
	var b strings.Builder

	b.WriteString("digraph flow {\n")
	if opts.Direction == DirectionHorizontal {
		b.WriteString("    rankdir=LR;\n")
	} else {
		b.WriteString("    rankdir=TB;\n")
	}
	if title := d.Options().Title; title != "" {
		fmt.Fprintf(&b, "    label=%s;\n", dotQuote(title))
	}

	for _, n := range d.Nodes() {
		fmt.Fprintf(&b, "    %s [label=%s, shape=%s];\n",
			dotQuote(n.ID), dotQuote(n.Label), dotShape(n.Type))
	}
	for _, e := range d.Edges() {
		if opts.ShowLabels && e.Label != "" {
			fmt.Fprintf(&b, "    %s -> %s [label=%s];\n",
				dotQuote(e.Source), dotQuote(e.Target), dotQuote(e.Label))
		} else {
			fmt.Fprintf(&b, "    %s -> %s;\n", dotQuote(e.Source), dotQuote(e.Target))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func dotShape(nodeType string) string {
	switch nodeType {
	case schema.NodeTypeDecision, schema.NodeTypeCondition:
		return "diamond"
	case schema.NodeTypeStart, schema.NodeTypeEnd:
		return "ellipse"
	default:
		return "box"
	}
}

func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}
