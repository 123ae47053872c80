package layout

import (
	"math"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

const circularMargin = 80.0

// Circular places nodes evenly around a circle centered in the canvas, in
// store order, starting at the top and proceeding clockwise.
func Circular(d *store.Diagram) {
	nodes := d.Nodes()
	if len(nodes) == 0 {
		return
	}

	width, height := canvasSize(d.Options())
	centerX := width / 2
	centerY := height / 2
	radius := math.Min(width/2, height/2) - circularMargin
	if radius < 0 {
		radius = 0
	}

	for i, n := range nodes {
		angle := 2 * math.Pi * float64(i) / float64(len(nodes))
		n.Position = &schema.Position{
			X: centerX + radius*math.Sin(angle),
			Y: centerY - radius*math.Cos(angle),
		}
	}
}
