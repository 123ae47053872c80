package layout

import (
	"math"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Cell pitch and origin for the grid arrangement.
const (
	gridCellWidth  = 180.0
	gridCellHeight = 120.0
	gridMargin     = 60.0
)

// Grid places nodes in row-major order into a square-ish grid starting near
// the canvas top-left. Column count is ceil(sqrt(nodeCount)).
func Grid(d *store.Diagram) {
	nodes := d.Nodes()
	if len(nodes) == 0 {
		return
	}

	cols := int(math.Ceil(math.Sqrt(float64(len(nodes)))))
	for i, n := range nodes {
		row := i / cols
		col := i % cols
		n.Position = &schema.Position{
			X: gridMargin + float64(col)*gridCellWidth,
			Y: gridMargin + float64(row)*gridCellHeight,
		}
	}
}
