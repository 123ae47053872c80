package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Geometry constants shared by the vector formats.
const (
	minNodeWidth  = 120.0
	minNodeHeight = 50.0
	nodePaddingX  = 24.0
	nodePaddingY  = 20.0
	cornerRadius  = 8.0

	defaultFontSize = 14.0
	lineHeightRatio = 1.4
	charWidthRatio  = 0.55
	monoWidthRatio  = 0.62

	canvasPadding   = 40.0
	minCanvasWidth  = 400.0
	minCanvasHeight = 300.0

	defaultArrowSize = 8.0
	defaultGridPitch = 20.0
	defaultEdgeWidth = 1.5
	nodeStrokeWidth  = 1.5
)

// nodeBox is one node's computed drawing geometry. X/Y are the top-left
// corner after the auto-fit shift.
type nodeBox struct {
	Node  *schema.Node
	X, Y  float64
	W, H  float64
	Lines []string
}

func (b *nodeBox) centerX() float64 { return b.X + b.W/2 }
func (b *nodeBox) centerY() float64 { return b.Y + b.H/2 }

// scene is the measured drawing: sized nodes, fitted canvas, resolved
// colors. Both vector formats render from the same scene.
type scene struct {
	Width      float64
	Height     float64
	Boxes      []*nodeBox
	ByID       map[string]*nodeBox
	Edges      []*schema.Edge
	Pal        palette
	Opts       Options
	Title      string
	Background string
	GridPitch  float64
}

// buildScene measures every positioned node, applies the orientation
// transform, and fits the canvas. Nodes without a position get no box and
// are invisible to edge routing.
func buildScene(d *store.Diagram, opts Options) *scene {
	diagOpts := d.Options()
	pal := themePalette(opts.Theme)

	sc := &scene{
		Pal:        pal,
		Opts:       opts,
		Title:      diagOpts.Title,
		Background: pal.Background,
		GridPitch:  defaultGridPitch,
	}
	if diagOpts.Background != "" {
		sc.Background = diagOpts.Background
	}
	if diagOpts.GridSize > 0 {
		sc.GridPitch = diagOpts.GridSize
	}

	for _, n := range d.Nodes() {
		if n.Position == nil {
			continue
		}
		cx, cy := n.Position.X, n.Position.Y
		if opts.Direction == DirectionHorizontal {
			cx, cy = cy, cx
		}
		w, h, lines := measureNode(n)
		sc.Boxes = append(sc.Boxes, &nodeBox{
			Node:  n,
			X:     cx - w/2,
			Y:     cy - h/2,
			W:     w,
			H:     h,
			Lines: lines,
		})
	}

	fitCanvas(sc)

	sc.ByID = make(map[string]*nodeBox, len(sc.Boxes))
	for _, b := range sc.Boxes {
		sc.ByID[b.Node.ID] = b
	}
	sc.Edges = d.Edges()
	return sc
}

// measureNode computes a node's rendered size from its label unless the
// style pins explicit dimensions. Width grows with label length; height
// grows with the greedy word wrap's line count.
func measureNode(n *schema.Node) (w, h float64, lines []string) {
	fontSize := defaultFontSize
	family := ""
	var styleW, styleH float64
	if n.Style != nil {
		if n.Style.FontSize > 0 {
			fontSize = n.Style.FontSize
		}
		family = n.Style.FontFamily
		styleW, styleH = n.Style.Width, n.Style.Height
	}
	charW := fontSize * charWidthRatio
	if isMonospace(family) {
		charW = fontSize * monoWidthRatio
	}

	w = styleW
	if w <= 0 {
		textW := float64(len([]rune(n.Label))) * charW
		w = math.Max(minNodeWidth, textW+nodePaddingX)
	}

	budget := int((w - nodePaddingX) / charW)
	if budget < 1 {
		budget = 1
	}
	lines = wrapLabel(n.Label, budget)

	h = styleH
	if h <= 0 {
		lineH := fontSize * lineHeightRatio
		h = math.Max(minNodeHeight, float64(len(lines))*lineH+nodePaddingY)
	}
	return w, h, lines
}

func isMonospace(family string) bool {
	f := strings.ToLower(family)
	return strings.Contains(f, "mono") || strings.Contains(f, "courier")
}

// wrapLabel greedily packs words into lines no longer than budget
// characters. A single word over the budget keeps its own line unbroken.
func wrapLabel(label string, budget int) []string {
	words := strings.Fields(label)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len([]rune(current))+1+len([]rune(word)) <= budget {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// fitCanvas takes the union bounds of all boxes plus padding, applies the
// minimum canvas floor, and shifts every box so the top-left bound lands on
// the padding margin.
func fitCanvas(sc *scene) {
	if len(sc.Boxes) == 0 {
		sc.Width, sc.Height = minCanvasWidth, minCanvasHeight
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range sc.Boxes {
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.X+b.W)
		maxY = math.Max(maxY, b.Y+b.H)
	}
	dx := canvasPadding - minX
	dy := canvasPadding - minY
	for _, b := range sc.Boxes {
		b.X += dx
		b.Y += dy
	}
	sc.Width = math.Max(minCanvasWidth, maxX-minX+2*canvasPadding)
	sc.Height = math.Max(minCanvasHeight, maxY-minY+2*canvasPadding)
}

// edgeLine is a routed edge: a straight segment between node centers plus a
// triangular arrowhead at the target end.
type edgeLine struct {
	Edge           *schema.Edge
	X1, Y1, X2, Y2 float64
	Arrow          [3][2]float64
	MidX, MidY     float64
}

// routeEdges computes segment and arrowhead geometry for every edge whose
// endpoints both have boxes. Edges touching an unpositioned node, and
// zero-length edges, are skipped silently.
func routeEdges(sc *scene) []edgeLine {
	out := make([]edgeLine, 0, len(sc.Edges))
	for _, e := range sc.Edges {
		src, ok := sc.ByID[e.Source]
		if !ok {
			continue
		}
		dst, ok := sc.ByID[e.Target]
		if !ok {
			continue
		}
		x1, y1 := src.centerX(), src.centerY()
		x2, y2 := dst.centerX(), dst.centerY()
		dx, dy := x2-x1, y2-y1
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		ux, uy := dx/length, dy/length

		size := defaultArrowSize
		if e.Style != nil && e.Style.ArrowSize > 0 {
			size = e.Style.ArrowSize
		}
		baseX, baseY := x2-ux*size*2, y2-uy*size*2
		px, py := -uy, ux

		out = append(out, edgeLine{
			Edge: e,
			X1:   x1, Y1: y1, X2: x2, Y2: y2,
			MidX: (x1 + x2) / 2,
			MidY: (y1 + y2) / 2,
			Arrow: [3][2]float64{
				{x2, y2},
				{baseX + px*size, baseY + py*size},
				{baseX - px*size, baseY - py*size},
			},
		})
	}
	return out
}

// coord formats a coordinate with one decimal, trimming a trailing ".0".
func coord(v float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(v, 'f', 1, 64), ".0")
}
