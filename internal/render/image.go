package render

import (
	"bytes"
	"context"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Image rasterizes the diagram to PNG through graphviz dot layout. It is a
// separate entry point from Render because the output is binary.
func Image(ctx context.Context, d *store.Diagram, opts Options) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeRender, "create graphviz").WithCause(err)
	}
	defer gv.Close()

	gv.SetLayout(graphviz.DOT)

	graph, err := gv.Graph()
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeRender, "create graph").WithCause(err)
	}
	defer graph.Close()

	if opts.Direction == DirectionHorizontal {
		graph.SetRankDir(cgraph.LRRank)
	} else {
		graph.SetRankDir(cgraph.TBRank)
	}
	if title := d.Options().Title; title != "" {
		graph.SetLabel(title)
	}

	pal := themePalette(opts.Theme)

	gvNodes := make(map[string]*cgraph.Node, d.NodeCount())
	for _, n := range d.Nodes() {
		gvNode, nErr := graph.CreateNodeByName(n.ID)
		if nErr != nil {
			return nil, schema.NewErrorf(schema.ErrCodeRender, "create node %s", n.ID).WithCause(nErr)
		}
		gvNode.SetLabel(n.Label)
		applyImageStyle(gvNode, n, pal)
		gvNodes[n.ID] = gvNode
	}

	for _, e := range d.Edges() {
		from, to := gvNodes[e.Source], gvNodes[e.Target]
		if from == nil || to == nil {
			continue
		}
		gvEdge, eErr := graph.CreateEdgeByName("", from, to)
		if eErr != nil {
			continue
		}
		if opts.ShowLabels && e.Label != "" {
			gvEdge.SetLabel(e.Label)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.PNG, &buf); err != nil {
		return nil, schema.NewError(schema.ErrCodeRender, "render png").WithCause(err)
	}
	return buf.Bytes(), nil
}

// applyImageStyle maps node type and style overrides onto graphviz
// attributes.
func applyImageStyle(gvNode *cgraph.Node, n *schema.Node, pal palette) {
	switch n.Type {
	case schema.NodeTypeDecision, schema.NodeTypeCondition:
		gvNode.SetShape(cgraph.DiamondShape)
	case schema.NodeTypeStart, schema.NodeTypeEnd:
		gvNode.SetShape(cgraph.EllipseShape)
	default:
		gvNode.SetShape(cgraph.BoxShape)
	}

	gvNode.SetStyle(cgraph.FilledNodeStyle)
	fill, text := pal.NodeFill, pal.NodeText
	if n.Style != nil {
		if n.Style.Fill != "" {
			fill = n.Style.Fill
		}
		if n.Style.TextColor != "" {
			text = n.Style.TextColor
		}
	}
	gvNode.SetFillColor(fill)
	gvNode.SetFontColor(text)
}
