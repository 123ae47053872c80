package layout

import (
	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Spacing for the hierarchical arrangement.
const (
	hierLevelPitch = 120.0 // vertical distance between levels
	hierNodePitch  = 180.0 // horizontal distance between siblings
	hierTopMargin  = 60.0
)

// Hierarchical organizes nodes into discrete horizontal levels by breadth-first
// traversal from every root (zero incoming edges) simultaneously. A node keeps
// its first-assigned level; ties resolve by root order in the store's node list,
// then by edge enumeration order. Nodes unreachable from any root are never
// visited and stay at level 0 alongside true roots.
func Hierarchical(d *store.Diagram) {
	nodes := d.Nodes()
	if len(nodes) == 0 {
		return
	}

	// Adjacency and in-degree from the current edge set.
	outgoing := make(map[string][]string, len(nodes))
	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		inDegree[n.ID] = 0
	}
	for _, e := range d.Edges() {
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
		inDegree[e.Target]++
	}

	// Queue every root in store order.
	level := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			level[n.ID] = 0
			queue = append(queue, n.ID)
		}
	}

	// Multi-source BFS; first-reached wins.
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range outgoing[id] {
			if _, seen := level[next]; seen {
				continue
			}
			level[next] = level[id] + 1
			queue = append(queue, next)
		}
	}

	// Group by level in store order; unvisited nodes land at level 0.
	maxLevel := 0
	for _, lv := range level {
		if lv > maxLevel {
			maxLevel = lv
		}
	}
	rows := make([][]*schema.Node, maxLevel+1)
	for _, n := range nodes {
		lv := level[n.ID]
		rows[lv] = append(rows[lv], n)
	}

	// Each level centers around the canvas mid-x at a fixed pitch.
	width, _ := canvasSize(d.Options())
	midX := width / 2
	for lv, row := range rows {
		y := hierTopMargin + float64(lv)*hierLevelPitch
		startX := midX - float64(len(row)-1)*hierNodePitch/2
		for i, n := range row {
			n.Position = &schema.Position{
				X: startX + float64(i)*hierNodePitch,
				Y: y,
			}
		}
	}
}
