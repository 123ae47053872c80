package expressions

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

func TestNewCELEngine(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)
	assert.NotNil(t, e)
	assert.Equal(t, "cel", e.Name())
}

// --- Basic evaluation ---

func TestCEL_BooleanLiteral(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	out, err := e.Evaluate(context.Background(), "true", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCEL_IntegerArithmetic(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	out, err := e.Evaluate(context.Background(), "1 + 2", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out)
}

// --- Node selectors ---

func TestCEL_NodeSelector(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	data := map[string]any{
		"node": map[string]any{
			"id":    "node_2",
			"label": "Ship order",
			"type":  "process",
			"position": map[string]any{
				"x": 400.0,
				"y": 180.0,
			},
		},
	}

	t.Run("label match", func(t *testing.T) {
		out, err := e.Evaluate(context.Background(), `node.label == "Ship order"`, data)
		require.NoError(t, err)
		assert.Equal(t, true, out)
	})

	t.Run("type match", func(t *testing.T) {
		out, err := e.Evaluate(context.Background(), `node.type == "process"`, data)
		require.NoError(t, err)
		assert.Equal(t, true, out)
	})

	t.Run("position comparison", func(t *testing.T) {
		out, err := e.Evaluate(context.Background(), `node.position.y > 100.0`, data)
		require.NoError(t, err)
		assert.Equal(t, true, out)
	})

	t.Run("string function", func(t *testing.T) {
		out, err := e.Evaluate(context.Background(), `node.label.startsWith("Ship")`, data)
		require.NoError(t, err)
		assert.Equal(t, true, out)
	})
}

func TestCEL_EdgeSelector(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	data := map[string]any{
		"edge": map[string]any{
			"id":     "edge_1",
			"source": "node_1",
			"target": "node_2",
			"label":  "yes",
		},
	}

	out, err := e.Evaluate(context.Background(), `edge.source == "node_1" && edge.label == "yes"`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCEL_DiagramMetadata(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	data := map[string]any{
		"diagram": map[string]any{
			"title":      "Checkout",
			"node_count": 4,
			"edge_count": 3,
		},
	}

	out, err := e.Evaluate(context.Background(), `diagram.node_count > diagram.edge_count`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCEL_MissingKeysDefaultToEmptyMaps(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	// No node key provided; the activation substitutes an empty map so
	// the program still runs.
	out, err := e.Evaluate(context.Background(), `size(node) == 0`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

// --- Errors ---

func TestCEL_EmptyExpression(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), "", map[string]any{})
	require.Error(t, err)

	dErr, ok := err.(*schema.DiagramError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeValidation, dErr.Code)
}

func TestCEL_CompileError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), "node.label ==", map[string]any{})
	require.Error(t, err)

	dErr, ok := err.(*schema.DiagramError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeValidation, dErr.Code)
	assert.Contains(t, dErr.Message, "compile error")
}

func TestCEL_RuntimeError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	// node is an empty map at runtime, so the key lookup fails.
	_, err = e.Evaluate(context.Background(), `node.position.x > 0.0`, map[string]any{})
	require.Error(t, err)

	dErr, ok := err.(*schema.DiagramError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeEvaluation, dErr.Code)
}

// --- Caching ---

func TestCEL_ProgramCaching(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	for range 3 {
		_, err := e.Evaluate(context.Background(), `1 < 2`, map[string]any{})
		require.NoError(t, err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	assert.Len(t, e.cache, 1, "repeated expressions compile once")
}

func TestCEL_ConcurrentEvaluation(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	data := map[string]any{
		"node": map[string]any{"type": "process"},
	}

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := e.Evaluate(context.Background(), `node.type == "process"`, data)
			assert.NoError(t, err)
			assert.Equal(t, true, out)
		}()
	}
	wg.Wait()
}
