package schema

// Node type tags that carry layout/rendering meaning. The type field is
// free-form; unrecognized values are stored and rendered with defaults.
const (
	NodeTypeDefault   = "default"
	NodeTypeStart     = "start"
	NodeTypeEnd       = "end"
	NodeTypeProcess   = "process"
	NodeTypeDecision  = "decision"
	NodeTypeCondition = "condition"
	NodeTypeAction    = "action"
	NodeTypeParallel  = "parallel"
)

// Position is a 2-D point on the diagram canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeStyle holds per-node visual overrides. Zero values defer to the
// active theme; explicit Width/Height disable label-based sizing.
type NodeStyle struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	TextColor   string  `json:"text_color,omitempty"`
	FontSize    float64 `json:"font_size,omitempty"`
	FontFamily  string  `json:"font_family,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
}

// EdgeStyle holds per-edge visual overrides.
type EdgeStyle struct {
	Color       string  `json:"color,omitempty"`
	Width       float64 `json:"width,omitempty"`
	DashPattern string  `json:"dash_pattern,omitempty"`
	ArrowSize   float64 `json:"arrow_size,omitempty"`
}

// Node is a labeled vertex. IDs are assigned by the store and immutable.
// Attrs is caller metadata, never interpreted by the core.
type Node struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Type     string         `json:"type,omitempty"`
	Position *Position      `json:"position,omitempty"`
	Style    *NodeStyle     `json:"style,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty"`
}

// Edge is a directed, optionally labeled connection between two nodes.
type Edge struct {
	ID     string         `json:"id"`
	Source string         `json:"source"`
	Target string         `json:"target"`
	Label  string         `json:"label,omitempty"`
	Style  *EdgeStyle     `json:"style,omitempty"`
	Attrs  map[string]any `json:"attrs,omitempty"`
}

// DiagramOptions is diagram-level configuration. It carries no behavior;
// the renderer and the layout centering logic read it.
type DiagramOptions struct {
	Title      string  `json:"title,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Background string  `json:"background,omitempty"`
	GridSize   float64 `json:"grid_size,omitempty"`
	SnapToGrid bool    `json:"snap_to_grid,omitempty"`
}

// Snapshot is the complete, reconstructible serialization of a diagram.
// Reconstruction trusts edge endpoints without re-validating existence.
type Snapshot struct {
	Options DiagramOptions `json:"options"`
	Nodes   []Node         `json:"nodes"`
	Edges   []Edge         `json:"edges"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.Position != nil {
		p := *n.Position
		out.Position = &p
	}
	if n.Style != nil {
		s := *n.Style
		out.Style = &s
	}
	out.Attrs = cloneAttrs(n.Attrs)
	return out
}

// Clone returns a deep copy of the edge.
func (e Edge) Clone() Edge {
	out := e
	if e.Style != nil {
		s := *e.Style
		out.Style = &s
	}
	out.Attrs = cloneAttrs(e.Attrs)
	return out
}

// cloneAttrs copies one map level. Nested values stay shared; the core
// never inspects or mutates them.
func cloneAttrs(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
