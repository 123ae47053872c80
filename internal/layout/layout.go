package layout

import (
	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Algorithm selects a node-positioning strategy by name.
type Algorithm string

const (
	AlgorithmHierarchical Algorithm = "hierarchical"
	AlgorithmCircular     Algorithm = "circular"
	AlgorithmGrid         Algorithm = "grid"
)

// Canvas dimensions used when diagram options leave them unset.
const (
	defaultCanvasWidth  = 800.0
	defaultCanvasHeight = 600.0
)

// Apply runs the named algorithm over the diagram, overwriting every node's
// position. An empty name selects hierarchical. Unknown names fail without
// touching any position.
func Apply(algo Algorithm, d *store.Diagram) error {
	switch algo {
	case AlgorithmHierarchical, "":
		Hierarchical(d)
	case AlgorithmCircular:
		Circular(d)
	case AlgorithmGrid:
		Grid(d)
	default:
		return schema.NewErrorf(schema.ErrCodeUnknownAlgorithm, "unknown layout algorithm: %s", algo)
	}
	return nil
}

// canvasSize reads the diagram canvas dimensions, falling back to defaults
// for unset or nonsensical values.
func canvasSize(opts schema.DiagramOptions) (float64, float64) {
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = defaultCanvasWidth
	}
	if h <= 0 {
		h = defaultCanvasHeight
	}
	return w, h
}
