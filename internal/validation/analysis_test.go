package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

func buildChain(t *testing.T, labels ...string) *store.Diagram {
	t.Helper()
	d := store.New(schema.DiagramOptions{})
	prev := ""
	for _, label := range labels {
		id := d.AddNode(store.NodeInput{Label: label})
		if prev != "" {
			_, err := d.AddEdge(store.EdgeInput{Source: prev, Target: id})
			require.NoError(t, err)
		}
		prev = id
	}
	return d
}

func TestAnalyzeCleanChain(t *testing.T) {
	d := buildChain(t, "fetch", "parse", "store")

	result := Analyze(d.Snapshot())
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestAnalyzeNilSnapshot(t *testing.T) {
	result := Analyze(nil)
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)
}

func TestAnalyzeCycle(t *testing.T) {
	d := store.New(schema.DiagramOptions{})
	a := d.AddNode(store.NodeInput{Label: "A"})
	b := d.AddNode(store.NodeInput{Label: "B"})
	c := d.AddNode(store.NodeInput{Label: "C"})
	_, err := d.AddEdge(store.EdgeInput{Source: a, Target: b})
	require.NoError(t, err)
	_, err = d.AddEdge(store.EdgeInput{Source: b, Target: c})
	require.NoError(t, err)
	_, err = d.AddEdge(store.EdgeInput{Source: c, Target: b})
	require.NoError(t, err)

	result := Analyze(d.Snapshot())
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, "CYCLE", result.Warnings[0].Code)
	assert.Contains(t, result.Warnings[0].Message, "2 nodes")
}

func TestAnalyzeCycleListsMembers(t *testing.T) {
	snap := &schema.Snapshot{
		Nodes: []schema.Node{
			{ID: "node_1", Label: "A"},
			{ID: "node_2", Label: "B"},
		},
		Edges: []schema.Edge{
			{ID: "edge_1", Source: "node_1", Target: "node_2"},
			{ID: "edge_2", Source: "node_2", Target: "node_1"},
		},
	}

	result := Analyze(snap)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "node_1")
	assert.Contains(t, result.Warnings[0].Message, "node_2")
}

func TestAnalyzeUnreachableNode(t *testing.T) {
	// node_3 hangs off a cycle that no source node leads into.
	snap := &schema.Snapshot{
		Nodes: []schema.Node{
			{ID: "node_1", Label: "start"},
			{ID: "node_2", Label: "loop a"},
			{ID: "node_3", Label: "loop b"},
		},
		Edges: []schema.Edge{
			{ID: "edge_1", Source: "node_2", Target: "node_3"},
			{ID: "edge_2", Source: "node_3", Target: "node_2"},
		},
	}

	result := Analyze(snap)

	var codes []string
	for _, w := range result.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, "CYCLE")
	assert.Contains(t, codes, "UNREACHABLE_NODE")

	var unreachable []string
	for _, w := range result.Warnings {
		if w.Code == "UNREACHABLE_NODE" {
			unreachable = append(unreachable, w.Path)
		}
	}
	assert.ElementsMatch(t, []string{"nodes/node_2", "nodes/node_3"}, unreachable)
}

func TestAnalyzeIsolatedNodeIsItsOwnSource(t *testing.T) {
	d := buildChain(t, "a", "b")
	d.AddNode(store.NodeInput{Label: "floating"})

	result := Analyze(d.Snapshot())
	assert.Empty(t, result.Warnings, "a node with no edges is a source, not unreachable")
}

func TestAnalyzeAllNodesOnCycleSkipsReachability(t *testing.T) {
	snap := &schema.Snapshot{
		Nodes: []schema.Node{
			{ID: "node_1", Label: "A"},
			{ID: "node_2", Label: "B"},
		},
		Edges: []schema.Edge{
			{ID: "edge_1", Source: "node_1", Target: "node_2"},
			{ID: "edge_2", Source: "node_2", Target: "node_1"},
		},
	}

	result := Analyze(snap)
	for _, w := range result.Warnings {
		assert.NotEqual(t, "UNREACHABLE_NODE", w.Code,
			"with no source node the reachability walk says nothing useful")
	}
}

func TestAnalyzeDuplicateLabels(t *testing.T) {
	d := store.New(schema.DiagramOptions{})
	d.AddNode(store.NodeInput{Label: "review"})
	d.AddNode(store.NodeInput{Label: "review"})
	d.AddNode(store.NodeInput{Label: "ship"})

	result := Analyze(d.Snapshot())
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "AMBIGUOUS_LABEL", result.Warnings[0].Code)
	assert.Contains(t, result.Warnings[0].Message, `"review"`)
	assert.Contains(t, result.Warnings[0].Message, "2 nodes")
}

func TestAnalyzeEmptyLabelsNotAmbiguous(t *testing.T) {
	snap := &schema.Snapshot{
		Nodes: []schema.Node{
			{ID: "node_1"},
			{ID: "node_2"},
		},
	}

	result := Analyze(snap)
	assert.Empty(t, result.Warnings)
}

func TestAnalyzeSelfLoop(t *testing.T) {
	snap := &schema.Snapshot{
		Nodes: []schema.Node{{ID: "node_1", Label: "retry"}},
		Edges: []schema.Edge{{ID: "edge_1", Source: "node_1", Target: "node_1"}},
	}

	result := Analyze(snap)
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, "CYCLE", result.Warnings[0].Code)
}

func TestAnalyzeSkipsDanglingEdges(t *testing.T) {
	// Dangling endpoints are Check's findings; Analyze must not trip over them.
	snap := &schema.Snapshot{
		Nodes: []schema.Node{{ID: "node_1", Label: "A"}},
		Edges: []schema.Edge{{ID: "edge_1", Source: "node_1", Target: "node_9"}},
	}

	result := Analyze(snap)
	assert.Empty(t, result.Warnings)
}
