package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrmcauliffe00/flow-diagram/internal/render"
	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

func newImporter(t *testing.T) *Importer {
	t.Helper()
	im, err := New()
	require.NoError(t, err)
	return im
}

func TestImportEmptyInput(t *testing.T) {
	im := newImporter(t)

	_, err := im.Import([]byte("   \n "))
	require.Error(t, err)

	dErr, ok := err.(*schema.DiagramError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeParse, dErr.Code)
}

func TestImportUnrecognizedFormat(t *testing.T) {
	im := newImporter(t)

	_, err := im.Import([]byte("definitely not a diagram"))
	require.Error(t, err)

	dErr, ok := err.(*schema.DiagramError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeParse, dErr.Code)
	assert.Contains(t, dErr.Message, "unrecognized format")
}

func TestImportJSONRoundTrip(t *testing.T) {
	d := store.New(schema.DiagramOptions{Title: "Orders", Width: 800, Height: 600})
	a := d.AddNode(store.NodeInput{Label: "Start", Type: schema.NodeTypeStart})
	b := d.AddNode(store.NodeInput{Label: "Finish", Type: schema.NodeTypeEnd})
	_, err := d.AddEdge(store.EdgeInput{Source: a, Target: b, Label: "go"})
	require.NoError(t, err)

	data, err := json.Marshal(d.Snapshot())
	require.NoError(t, err)

	im := newImporter(t)
	snap, err := im.Import(data)
	require.NoError(t, err)

	restored := store.FromSnapshot(snap)
	assert.Equal(t, 2, restored.NodeCount())
	assert.Equal(t, 1, restored.EdgeCount())
	assert.Equal(t, "Orders", restored.Options().Title)

	n, ok := restored.GetNode(a)
	require.True(t, ok)
	assert.Equal(t, "Start", n.Label)
	assert.Equal(t, schema.NodeTypeStart, n.Type)
}

func TestImportJSONFromRenderer(t *testing.T) {
	d := store.New(schema.DiagramOptions{Title: "Rendered"})
	a := d.AddNode(store.NodeInput{Label: "A"})
	b := d.AddNode(store.NodeInput{Label: "B"})
	_, err := d.AddEdge(store.EdgeInput{Source: a, Target: b})
	require.NoError(t, err)

	// The structured render output is a re-loadable snapshot; the extra
	// title and metadata fields must not break import.
	out, err := render.Render(d, render.Options{Format: render.FormatJSON})
	require.NoError(t, err)

	im := newImporter(t)
	snap, err := im.Import([]byte(out))
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 2)
	assert.Len(t, snap.Edges, 1)
}

func TestImportJSONMalformed(t *testing.T) {
	im := newImporter(t)

	_, err := im.Import([]byte(`{"nodes": [`))
	require.Error(t, err)

	dErr, ok := err.(*schema.DiagramError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeParse, dErr.Code)
}

func TestImportJSONWrongShape(t *testing.T) {
	im := newImporter(t)

	_, err := im.Import([]byte(`{"nodes": "oops", "edges": []}`))
	require.Error(t, err)

	dErr, ok := err.(*schema.DiagramError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeValidation, dErr.Code)
}

func TestImportJSONTrustsDanglingEdges(t *testing.T) {
	im := newImporter(t)

	snap, err := im.Import([]byte(`{
		"nodes": [{"id": "node_1", "label": "A"}],
		"edges": [{"id": "edge_1", "source": "node_1", "target": "node_42"}]
	}`))
	require.NoError(t, err, "import never re-validates endpoint existence")
	assert.Equal(t, "node_42", snap.Edges[0].Target)
}

func TestImportTextRoundTrip(t *testing.T) {
	d := store.New(schema.DiagramOptions{Title: "Pipeline"})
	a := d.AddNode(store.NodeInput{Label: "Extract", Type: schema.NodeTypeStart})
	b := d.AddNode(store.NodeInput{Label: "Transform"})
	c := d.AddNode(store.NodeInput{Label: "Load", Type: schema.NodeTypeEnd})
	_, err := d.AddEdge(store.EdgeInput{Source: a, Target: b})
	require.NoError(t, err)
	_, err = d.AddEdge(store.EdgeInput{Source: b, Target: c, Label: "batched"})
	require.NoError(t, err)

	im := newImporter(t)
	snap, err := im.Import([]byte(render.Summary(d)))
	require.NoError(t, err)

	assert.Equal(t, "Pipeline", snap.Options.Title)
	require.Len(t, snap.Nodes, 3)
	assert.Equal(t, a, snap.Nodes[0].ID, "ids are recovered directly")
	assert.Equal(t, "Extract", snap.Nodes[0].Label)
	assert.Equal(t, schema.NodeTypeStart, snap.Nodes[0].Type)

	require.Len(t, snap.Edges, 2)
	assert.Equal(t, a, snap.Edges[0].Source)
	assert.Equal(t, b, snap.Edges[0].Target)
	assert.Equal(t, "", snap.Edges[0].Label)
	assert.Equal(t, "batched", snap.Edges[1].Label)
}

func TestImportTextMinimal(t *testing.T) {
	text := "Flow Diagram: Tiny\n" +
		"Nodes: 2, Edges: 1\n" +
		"\n" +
		"Nodes:\n" +
		"  - node_1: First\n" +
		"  - node_2: Second (process)\n" +
		"\n" +
		"Edges:\n" +
		"  - First -> Second\n"

	im := newImporter(t)
	snap, err := im.Import([]byte(text))
	require.NoError(t, err)

	assert.Equal(t, "Tiny", snap.Options.Title)
	assert.Equal(t, "", snap.Nodes[0].Type, "no suffix means no type")
	assert.Equal(t, schema.NodeTypeProcess, snap.Nodes[1].Type)

	require.Len(t, snap.Edges, 1)
	assert.Equal(t, "edge_1", snap.Edges[0].ID)
	assert.Equal(t, "node_1", snap.Edges[0].Source)
	assert.Equal(t, "node_2", snap.Edges[0].Target)
}

func TestImportTextDuplicateLabelsLastSeenWins(t *testing.T) {
	text := "Flow Diagram: Dupes\n" +
		"Nodes: 3, Edges: 1\n" +
		"\n" +
		"Nodes:\n" +
		"  - node_1: Job\n" +
		"  - node_2: Job\n" +
		"  - node_3: Other\n" +
		"\n" +
		"Edges:\n" +
		"  - Job -> Other\n"

	im := newImporter(t)
	snap, err := im.Import([]byte(text))
	require.NoError(t, err)

	assert.Equal(t, "node_2", snap.Edges[0].Source, "ambiguous labels resolve to the last node seen")
}

func TestImportTextUnknownLabel(t *testing.T) {
	text := "Flow Diagram: Broken\n" +
		"Nodes: 1, Edges: 1\n" +
		"\n" +
		"Nodes:\n" +
		"  - node_1: Here\n" +
		"\n" +
		"Edges:\n" +
		"  - Here -> Nowhere\n"

	im := newImporter(t)
	_, err := im.Import([]byte(text))
	require.Error(t, err)

	dErr, ok := err.(*schema.DiagramError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeParse, dErr.Code)
	assert.Contains(t, dErr.Message, "Nowhere")
}

func TestImportTextEntryOutsideSection(t *testing.T) {
	text := "Flow Diagram: Wild\n" +
		"  - node_1: stray\n"

	im := newImporter(t)
	_, err := im.Import([]byte(text))
	require.Error(t, err)
}

func TestImportTextGarbageLine(t *testing.T) {
	text := "Flow Diagram: Noisy\n" +
		"Nodes:\n" +
		"  - node_1: A\n" +
		"?? what is this\n"

	im := newImporter(t)
	_, err := im.Import([]byte(text))
	require.Error(t, err)

	dErr, ok := err.(*schema.DiagramError)
	require.True(t, ok)
	assert.Contains(t, dErr.Message, "line 4")
}

func TestImportTextEdgeLabelSuffix(t *testing.T) {
	text := "Flow Diagram: Suffixes\n" +
		"Nodes:\n" +
		"  - node_1: Ask (decision)\n" +
		"  - node_2: Act\n" +
		"Edges:\n" +
		"  - Ask -> Act (yes)\n"

	im := newImporter(t)
	snap, err := im.Import([]byte(text))
	require.NoError(t, err)

	assert.Equal(t, schema.NodeTypeDecision, snap.Nodes[0].Type)
	assert.Equal(t, "yes", snap.Edges[0].Label)
}
