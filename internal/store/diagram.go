package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Diagram owns the node and edge collections for one diagram instance.
// It is a plain in-memory structure with no internal locking; the
// hosting layer serializes access per diagram (see Registry).
//
// Ids are generated from per-store monotonic counters and are never
// reused within the store's lifetime, even after removal.
type Diagram struct {
	opts schema.DiagramOptions

	nodes     map[string]*schema.Node
	edges     map[string]*schema.Edge
	nodeOrder []string
	edgeOrder []string

	nodeSeq int
	edgeSeq int
}

// New creates an empty diagram with the given options.
func New(opts schema.DiagramOptions) *Diagram {
	return &Diagram{
		opts:  opts,
		nodes: make(map[string]*schema.Node),
		edges: make(map[string]*schema.Edge),
	}
}

// Options returns the diagram-level configuration.
func (d *Diagram) Options() schema.DiagramOptions {
	return d.opts
}

// AddNode inserts a new node and returns its assigned id. Unset optional
// fields receive defaults: position (0,0), type "default", empty style,
// empty attribute bag. AddNode always succeeds.
func (d *Diagram) AddNode(in NodeInput) string {
	d.nodeSeq++
	id := fmt.Sprintf("node_%d", d.nodeSeq)

	n := &schema.Node{
		ID:       id,
		Label:    in.Label,
		Type:     in.Type,
		Position: in.Position,
		Style:    in.Style,
		Attrs:    in.Attrs,
	}
	if n.Type == "" {
		n.Type = schema.NodeTypeDefault
	}
	if n.Position == nil {
		n.Position = &schema.Position{}
	}
	if n.Style == nil {
		n.Style = &schema.NodeStyle{}
	}
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}

	d.nodes[id] = n
	d.nodeOrder = append(d.nodeOrder, id)
	return id
}

// GetNode returns the node with the given id, if present.
func (d *Diagram) GetNode(id string) (*schema.Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// UpdateNode shallow-merges the given fields over an existing node.
// Reports false without mutating anything if the id is unknown. A changed
// type is not validated against the recognized type tags.
func (d *Diagram) UpdateNode(id string, update NodeUpdate) bool {
	n, ok := d.nodes[id]
	if !ok {
		return false
	}
	if update.Label != nil {
		n.Label = *update.Label
	}
	if update.Type != nil {
		n.Type = *update.Type
	}
	if update.Position != nil {
		p := *update.Position
		n.Position = &p
	}
	if update.Style != nil {
		s := *update.Style
		n.Style = &s
	}
	if update.Attrs != nil {
		n.Attrs = update.Attrs
	}
	return true
}

// RemoveNode deletes the node and every edge whose source or target
// equals it. Reports false if the id is unknown.
func (d *Diagram) RemoveNode(id string) bool {
	if _, ok := d.nodes[id]; !ok {
		return false
	}
	delete(d.nodes, id)
	d.nodeOrder = removeID(d.nodeOrder, id)

	// Cascade: drop every edge touching the node, both directions.
	kept := d.edgeOrder[:0]
	for _, eid := range d.edgeOrder {
		e := d.edges[eid]
		if e.Source == id || e.Target == id {
			delete(d.edges, eid)
			continue
		}
		kept = append(kept, eid)
	}
	d.edgeOrder = kept
	return true
}

// AddEdge inserts a new edge and returns its assigned id. It fails,
// leaving the store untouched, when either endpoint is not a currently
// known node id.
func (d *Diagram) AddEdge(in EdgeInput) (string, error) {
	if _, ok := d.nodes[in.Source]; !ok {
		return "", schema.NewErrorf(schema.ErrCodeValidation,
			"source node %s does not exist", in.Source)
	}
	if _, ok := d.nodes[in.Target]; !ok {
		return "", schema.NewErrorf(schema.ErrCodeValidation,
			"target node %s does not exist", in.Target)
	}

	d.edgeSeq++
	id := fmt.Sprintf("edge_%d", d.edgeSeq)

	e := &schema.Edge{
		ID:     id,
		Source: in.Source,
		Target: in.Target,
		Label:  in.Label,
		Style:  in.Style,
		Attrs:  in.Attrs,
	}
	if e.Attrs == nil {
		e.Attrs = make(map[string]any)
	}

	d.edges[id] = e
	d.edgeOrder = append(d.edgeOrder, id)
	return id, nil
}

// GetEdge returns the edge with the given id, if present.
func (d *Diagram) GetEdge(id string) (*schema.Edge, bool) {
	e, ok := d.edges[id]
	return e, ok
}

// UpdateEdge shallow-merges the given fields over an existing edge.
// Reports false without mutating anything if the id is unknown.
func (d *Diagram) UpdateEdge(id string, update EdgeUpdate) bool {
	e, ok := d.edges[id]
	if !ok {
		return false
	}
	if update.Label != nil {
		e.Label = *update.Label
	}
	if update.Style != nil {
		s := *update.Style
		e.Style = &s
	}
	if update.Attrs != nil {
		e.Attrs = update.Attrs
	}
	return true
}

// RemoveEdge deletes a single edge by id, no cascade. Reports false if
// the id is unknown.
func (d *Diagram) RemoveEdge(id string) bool {
	if _, ok := d.edges[id]; !ok {
		return false
	}
	delete(d.edges, id)
	d.edgeOrder = removeID(d.edgeOrder, id)
	return true
}

// Nodes returns all nodes in insertion order.
func (d *Diagram) Nodes() []*schema.Node {
	out := make([]*schema.Node, 0, len(d.nodeOrder))
	for _, id := range d.nodeOrder {
		out = append(out, d.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (d *Diagram) Edges() []*schema.Edge {
	out := make([]*schema.Edge, 0, len(d.edgeOrder))
	for _, id := range d.edgeOrder {
		out = append(out, d.edges[id])
	}
	return out
}

// EdgesTouching returns every edge whose source or target is the given
// node id, in insertion order.
func (d *Diagram) EdgesTouching(nodeID string) []*schema.Edge {
	var out []*schema.Edge
	for _, id := range d.edgeOrder {
		e := d.edges[id]
		if e.Source == nodeID || e.Target == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the source nodes of every edge targeting the given
// node id, in edge insertion order.
func (d *Diagram) Incoming(nodeID string) []*schema.Node {
	var out []*schema.Node
	for _, id := range d.edgeOrder {
		e := d.edges[id]
		if e.Target != nodeID {
			continue
		}
		if n, ok := d.nodes[e.Source]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Outgoing returns the target nodes of every edge sourced at the given
// node id, in edge insertion order.
func (d *Diagram) Outgoing(nodeID string) []*schema.Node {
	var out []*schema.Node
	for _, id := range d.edgeOrder {
		e := d.edges[id]
		if e.Source != nodeID {
			continue
		}
		if n, ok := d.nodes[e.Target]; ok {
			out = append(out, n)
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (d *Diagram) NodeCount() int {
	return len(d.nodeOrder)
}

// EdgeCount returns the number of edges.
func (d *Diagram) EdgeCount() int {
	return len(d.edgeOrder)
}

// Snapshot serializes the diagram into a plain structured snapshot with
// deep-copied records.
func (d *Diagram) Snapshot() *schema.Snapshot {
	snap := &schema.Snapshot{
		Options: d.opts,
		Nodes:   make([]schema.Node, 0, len(d.nodeOrder)),
		Edges:   make([]schema.Edge, 0, len(d.edgeOrder)),
	}
	for _, id := range d.nodeOrder {
		snap.Nodes = append(snap.Nodes, d.nodes[id].Clone())
	}
	for _, id := range d.edgeOrder {
		snap.Edges = append(snap.Edges, d.edges[id].Clone())
	}
	return snap
}

// FromSnapshot reconstructs a diagram by direct reinsertion, bypassing
// the edge endpoint check. The snapshot is trusted. Id counters are
// restored from the highest generated id so no id is ever reassigned
// after a load.
func FromSnapshot(snap *schema.Snapshot) *Diagram {
	d := New(snap.Options)
	for i := range snap.Nodes {
		n := snap.Nodes[i].Clone()
		d.nodes[n.ID] = &n
		d.nodeOrder = append(d.nodeOrder, n.ID)
		if seq, ok := idSeq(n.ID, "node_"); ok && seq > d.nodeSeq {
			d.nodeSeq = seq
		}
	}
	for i := range snap.Edges {
		e := snap.Edges[i].Clone()
		d.edges[e.ID] = &e
		d.edgeOrder = append(d.edgeOrder, e.ID)
		if seq, ok := idSeq(e.ID, "edge_"); ok && seq > d.edgeSeq {
			d.edgeSeq = seq
		}
	}
	return d
}

// idSeq extracts the counter from a generated id like "node_12".
func idSeq(id, prefix string) (int, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// removeID drops the first occurrence of id from the order slice.
func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
