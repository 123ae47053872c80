package render

import (
	"fmt"
	"strings"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
)

// renderHTML wraps the SVG output in a minimal themed document shell that
// carries the diagram title as a heading.
func renderHTML(d *store.Diagram, opts Options) string {
	sc := buildScene(d, opts)
	title := sc.Title
	if title == "" {
		title = "Flow Diagram"
	}
	escaped := xmlEscaper.Replace(title)

	var svg strings.Builder
	writeSVG(&svg, sc)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", escaped)
	fmt.Fprintf(&b, "<style>\nbody { margin: 0; padding: 24px; background: %s; color: %s; font-family: sans-serif; }\nh1 { font-size: 20px; font-weight: 600; }\n.diagram { overflow: auto; }\n</style>\n",
		sc.Background, sc.Pal.NodeText)
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", escaped)
	b.WriteString("<div class=\"diagram\">\n")
	b.WriteString(svg.String())
	b.WriteString("</div>\n</body>\n</html>\n")
	return b.String()
}
