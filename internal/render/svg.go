package render

import (
	"fmt"
	"strings"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
)

// xmlEscaper covers the five XML special characters. Every piece of label
// or title text passes through it before embedding.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// renderSVG draws the measured scene as a standalone SVG document.
func renderSVG(d *store.Diagram, opts Options) string {
	var b strings.Builder
	writeSVG(&b, buildScene(d, opts))
	return b.String()
}

// writeSVG emits background, grid, edges, then nodes. Edges come before
// nodes so node shapes cover the arrow tips.
func writeSVG(b *strings.Builder, sc *scene) {
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		coord(sc.Width), coord(sc.Height), coord(sc.Width), coord(sc.Height))
	if sc.Title != "" {
		fmt.Fprintf(b, "  <title>%s</title>\n", xmlEscaper.Replace(sc.Title))
	}
	fmt.Fprintf(b, `  <rect width="%s" height="%s" fill="%s"/>`+"\n",
		coord(sc.Width), coord(sc.Height), sc.Background)

	if sc.Opts.ShowGrid {
		writeGrid(b, sc)
	}
	for _, line := range routeEdges(sc) {
		writeEdge(b, sc, line)
	}
	for _, box := range sc.Boxes {
		writeNode(b, sc, box)
	}
	b.WriteString("</svg>\n")
}

func writeGrid(b *strings.Builder, sc *scene) {
	fmt.Fprintf(b, `  <g stroke="%s" stroke-width="0.5">`+"\n", sc.Pal.Grid)
	for x := sc.GridPitch; x < sc.Width; x += sc.GridPitch {
		fmt.Fprintf(b, `    <line x1="%s" y1="0" x2="%s" y2="%s"/>`+"\n",
			coord(x), coord(x), coord(sc.Height))
	}
	for y := sc.GridPitch; y < sc.Height; y += sc.GridPitch {
		fmt.Fprintf(b, `    <line x1="0" y1="%s" x2="%s" y2="%s"/>`+"\n",
			coord(y), coord(sc.Width), coord(y))
	}
	b.WriteString("  </g>\n")
}

func writeEdge(b *strings.Builder, sc *scene, line edgeLine) {
	stroke := sc.Pal.EdgeStroke
	width := defaultEdgeWidth
	dash := ""
	if s := line.Edge.Style; s != nil {
		if s.Color != "" {
			stroke = s.Color
		}
		if s.Width > 0 {
			width = s.Width
		}
		dash = s.DashPattern
	}

	fmt.Fprintf(b, `  <line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"`,
		coord(line.X1), coord(line.Y1), coord(line.X2), coord(line.Y2), stroke, coord(width))
	if dash != "" {
		fmt.Fprintf(b, ` stroke-dasharray="%s"`, dash)
	}
	b.WriteString("/>\n")

	fmt.Fprintf(b, `  <polygon points="%s,%s %s,%s %s,%s" fill="%s"/>`+"\n",
		coord(line.Arrow[0][0]), coord(line.Arrow[0][1]),
		coord(line.Arrow[1][0]), coord(line.Arrow[1][1]),
		coord(line.Arrow[2][0]), coord(line.Arrow[2][1]), stroke)

	if sc.Opts.ShowLabels && line.Edge.Label != "" {
		fmt.Fprintf(b, `  <text x="%s" y="%s" fill="%s" font-size="12" text-anchor="middle">%s</text>`+"\n",
			coord(line.MidX), coord(line.MidY-4), sc.Pal.EdgeText, xmlEscaper.Replace(line.Edge.Label))
	}
}

func writeNode(b *strings.Builder, sc *scene, box *nodeBox) {
	fill, stroke, text := sc.Pal.NodeFill, sc.Pal.NodeStroke, sc.Pal.NodeText
	strokeW := nodeStrokeWidth
	fontSize := defaultFontSize
	family := ""
	if s := box.Node.Style; s != nil {
		if s.Fill != "" {
			fill = s.Fill
		}
		if s.Stroke != "" {
			stroke = s.Stroke
		}
		if s.TextColor != "" {
			text = s.TextColor
		}
		if s.StrokeWidth > 0 {
			strokeW = s.StrokeWidth
		}
		if s.FontSize > 0 {
			fontSize = s.FontSize
		}
		family = s.FontFamily
	}

	fmt.Fprintf(b, `  <rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s" stroke="%s" stroke-width="%s"/>`+"\n",
		coord(box.X), coord(box.Y), coord(box.W), coord(box.H), coord(cornerRadius), fill, stroke, coord(strokeW))

	lineH := fontSize * lineHeightRatio
	cx := box.X + box.W/2
	cy := box.Y + box.H/2
	n := len(box.Lines)
	for i, lineText := range box.Lines {
		y := cy + (float64(i)-float64(n-1)/2)*lineH + fontSize*0.35
		fmt.Fprintf(b, `  <text x="%s" y="%s" fill="%s" font-size="%s" text-anchor="middle"`,
			coord(cx), coord(y), text, coord(fontSize))
		if family != "" {
			fmt.Fprintf(b, ` font-family="%s"`, xmlEscaper.Replace(family))
		}
		fmt.Fprintf(b, `>%s</text>`+"\n", xmlEscaper.Replace(lineText))
	}
}
