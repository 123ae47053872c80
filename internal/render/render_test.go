package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrmcauliffe00/flow-diagram/internal/layout"
	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

func checkoutDiagram(t *testing.T) *store.Diagram {
	t.Helper()
	d := store.New(schema.DiagramOptions{Title: "Checkout", Width: 800, Height: 600})
	start := d.AddNode(store.NodeInput{Label: "Start", Type: schema.NodeTypeStart})
	check := d.AddNode(store.NodeInput{Label: "In stock?", Type: schema.NodeTypeDecision})
	ship := d.AddNode(store.NodeInput{Label: "Ship order", Type: schema.NodeTypeProcess})
	done := d.AddNode(store.NodeInput{Label: "Done", Type: schema.NodeTypeEnd})
	for _, e := range []store.EdgeInput{
		{Source: start, Target: check},
		{Source: check, Target: ship, Label: "yes"},
		{Source: ship, Target: done},
	} {
		_, err := d.AddEdge(e)
		require.NoError(t, err)
	}
	layout.Hierarchical(d)
	return d
}

func TestRenderUnsupportedFormat(t *testing.T) {
	d := checkoutDiagram(t)

	_, err := Render(d, Options{Format: "gif"})
	require.Error(t, err)

	dErr, ok := err.(*schema.DiagramError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeUnsupportedFormat, dErr.Code)
}

func TestRenderSVGStructure(t *testing.T) {
	d := checkoutDiagram(t)

	out, err := Render(d, DefaultOptions())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<svg "))
	assert.Contains(t, out, `xmlns="http://www.w3.org/2000/svg"`)
	assert.Contains(t, out, "<title>Checkout</title>")
	assert.Contains(t, out, "</svg>")

	// Edges must be emitted before node shapes.
	firstEdge := strings.Index(out, "<line ")
	firstNode := strings.Index(out, "<rect x=")
	require.GreaterOrEqual(t, firstEdge, 0)
	require.GreaterOrEqual(t, firstNode, 0)
	assert.Less(t, firstEdge, firstNode)

	// Arrowheads and the edge label.
	assert.Contains(t, out, "<polygon points=")
	assert.Contains(t, out, ">yes</text>")
}

func TestRenderSVGEscapesLabels(t *testing.T) {
	d := store.New(schema.DiagramOptions{})
	d.AddNode(store.NodeInput{Label: `<a> & "b" 'c'`})
	layout.Grid(d)

	out, err := Render(d, DefaultOptions())
	require.NoError(t, err)

	assert.Contains(t, out, "&lt;a&gt; &amp; &quot;b&quot; &#39;c&#39;")
	assert.NotContains(t, out, "<a>")
}

func TestRenderSVGHidesEdgeLabels(t *testing.T) {
	d := checkoutDiagram(t)

	opts := DefaultOptions()
	opts.ShowLabels = false
	out, err := Render(d, opts)
	require.NoError(t, err)

	assert.NotContains(t, out, ">yes</text>")
}

func TestRenderSVGGrid(t *testing.T) {
	d := checkoutDiagram(t)

	opts := DefaultOptions()
	opts.ShowGrid = true
	out, err := Render(d, opts)
	require.NoError(t, err)
	assert.Contains(t, out, `stroke-width="0.5"`)

	opts.ShowGrid = false
	out, err = Render(d, opts)
	require.NoError(t, err)
	assert.NotContains(t, out, `stroke-width="0.5"`)
}

func TestRenderSVGDarkTheme(t *testing.T) {
	d := checkoutDiagram(t)

	opts := DefaultOptions()
	opts.Theme = ThemeDark
	out, err := Render(d, opts)
	require.NoError(t, err)
	assert.Contains(t, out, darkPalette.Background)
}

func TestRenderSVGSkipsUnpositionedNodes(t *testing.T) {
	snap := &schema.Snapshot{
		Nodes: []schema.Node{
			{ID: "node_1", Label: "floating"},
			{ID: "node_2", Label: "anchored", Position: &schema.Position{X: 100, Y: 100}},
		},
		Edges: []schema.Edge{
			{ID: "edge_1", Source: "node_1", Target: "node_2"},
		},
	}
	d := store.FromSnapshot(snap)

	out, err := Render(d, DefaultOptions())
	require.NoError(t, err)

	assert.NotContains(t, out, ">floating</text>")
	assert.NotContains(t, out, "<line ", "edges touching unpositioned nodes are skipped")
	assert.Contains(t, out, ">anchored</text>")
}

func TestRenderHTMLShell(t *testing.T) {
	d := checkoutDiagram(t)

	out, err := Render(d, Options{Format: FormatHTML, Theme: ThemeLight, ShowLabels: true})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<h1>Checkout</h1>")
	assert.Contains(t, out, "<svg ")
	assert.Contains(t, out, "</html>")
}

func TestRenderMermaidShapes(t *testing.T) {
	d := checkoutDiagram(t)

	out, err := Render(d, Options{Format: FormatMermaid})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "%% Checkout")
	assert.Contains(t, out, "node_1[Start]")
	assert.Contains(t, out, "node_2{{In stock?}}")
	assert.Contains(t, out, "node_3[Ship order]")
	assert.Contains(t, out, "node_4([Done])")
	assert.Contains(t, out, "node_1 --> node_2")
	assert.Contains(t, out, "node_2 -->|yes| node_3")
}

func TestRenderMermaidArrowOrder(t *testing.T) {
	d := checkoutDiagram(t)

	out, err := Render(d, Options{Format: FormatMermaid})
	require.NoError(t, err)

	first := strings.Index(out, "node_1 --> node_2")
	second := strings.Index(out, "node_2 -->|yes| node_3")
	third := strings.Index(out, "node_3 --> node_4")
	require.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

func TestMermaidSafeID(t *testing.T) {
	assert.Equal(t, "node_1", mermaidSafeID("node_1"))
	assert.Equal(t, "a_b_c", mermaidSafeID("a.b-c"))
	assert.Equal(t, "sp_ced", mermaidSafeID("sp ced"))
}

func TestRenderJSONDocument(t *testing.T) {
	d := checkoutDiagram(t)

	out, err := Render(d, Options{Format: FormatJSON, Theme: ThemeDark})
	require.NoError(t, err)

	var doc struct {
		Title    string                `json:"title"`
		Options  schema.DiagramOptions `json:"options"`
		Nodes    []schema.Node         `json:"nodes"`
		Edges    []schema.Edge         `json:"edges"`
		Metadata struct {
			NodeCount   int    `json:"node_count"`
			EdgeCount   int    `json:"edge_count"`
			GeneratedAt string `json:"generated_at"`
			Format      string `json:"format"`
			Theme       string `json:"theme"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "Checkout", doc.Title)
	assert.Len(t, doc.Nodes, 4)
	assert.Len(t, doc.Edges, 3)
	assert.Equal(t, 4, doc.Metadata.NodeCount)
	assert.Equal(t, 3, doc.Metadata.EdgeCount)
	assert.Equal(t, "json", doc.Metadata.Format)
	assert.Equal(t, "dark", doc.Metadata.Theme)

	_, err = time.Parse(time.RFC3339, doc.Metadata.GeneratedAt)
	assert.NoError(t, err)
}

func TestRenderDOT(t *testing.T) {
	d := checkoutDiagram(t)

	out, err := Render(d, Options{Format: FormatDOT, ShowLabels: true})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "digraph flow {"))
	assert.Contains(t, out, "rankdir=TB;")
	assert.Contains(t, out, `label="Checkout";`)
	assert.Contains(t, out, `"node_2" [label="In stock?", shape=diamond];`)
	assert.Contains(t, out, `"node_2" -> "node_3" [label="yes"];`)
	assert.Contains(t, out, "}\n")
}

func TestRenderDOTHorizontal(t *testing.T) {
	d := checkoutDiagram(t)

	out, err := Render(d, Options{Format: FormatDOT, Direction: DirectionHorizontal})
	require.NoError(t, err)
	assert.Contains(t, out, "rankdir=LR;")
}

func TestSummaryLayout(t *testing.T) {
	d := store.New(schema.DiagramOptions{Title: "Orders"})
	a := d.AddNode(store.NodeInput{Label: "Start", Type: schema.NodeTypeStart})
	b := d.AddNode(store.NodeInput{Label: "Middle"})
	_, err := d.AddEdge(store.EdgeInput{Source: a, Target: b, Label: "go"})
	require.NoError(t, err)

	out := Summary(d)

	expected := "Flow Diagram: Orders\n" +
		"Nodes: 2, Edges: 1\n" +
		"\n" +
		"Nodes:\n" +
		"  - node_1: Start (start)\n" +
		"  - node_2: Middle (default)\n" +
		"\n" +
		"Edges:\n" +
		"  - Start -> Middle (go)\n"
	assert.Equal(t, expected, out)
}

func TestSummaryOmitsEmptySuffixes(t *testing.T) {
	snap := &schema.Snapshot{
		Options: schema.DiagramOptions{Title: "Bare"},
		Nodes: []schema.Node{
			{ID: "node_1", Label: "A"},
			{ID: "node_2", Label: "B"},
		},
		Edges: []schema.Edge{
			{ID: "edge_1", Source: "node_1", Target: "node_2"},
		},
	}
	d := store.FromSnapshot(snap)

	out := Summary(d)
	assert.Contains(t, out, "  - node_1: A\n")
	assert.Contains(t, out, "  - A -> B\n")
	assert.NotContains(t, out, "()")
}
