package store

import (
	"time"

	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// NodeInput holds the caller-settable fields for a new node.
// The store assigns the id and fills defaults for unset fields.
type NodeInput struct {
	Label    string            `json:"label"`
	Type     string            `json:"type,omitempty"`
	Position *schema.Position  `json:"position,omitempty"`
	Style    *schema.NodeStyle `json:"style,omitempty"`
	Attrs    map[string]any    `json:"attrs,omitempty"`
}

// EdgeInput holds the caller-settable fields for a new edge.
// Source and Target must reference existing nodes.
type EdgeInput struct {
	Source string            `json:"source"`
	Target string            `json:"target"`
	Label  string            `json:"label,omitempty"`
	Style  *schema.EdgeStyle `json:"style,omitempty"`
	Attrs  map[string]any    `json:"attrs,omitempty"`
}

// NodeUpdate specifies mutable fields of a node. Nil fields are left
// untouched; a set field replaces the stored value wholesale.
type NodeUpdate struct {
	Label    *string           `json:"label,omitempty"`
	Type     *string           `json:"type,omitempty"`
	Position *schema.Position  `json:"position,omitempty"`
	Style    *schema.NodeStyle `json:"style,omitempty"`
	Attrs    map[string]any    `json:"attrs,omitempty"`
}

// EdgeUpdate specifies mutable fields of an edge. Endpoints are fixed at
// creation; changing a connection means removing and re-adding the edge.
type EdgeUpdate struct {
	Label *string           `json:"label,omitempty"`
	Style *schema.EdgeStyle `json:"style,omitempty"`
	Attrs map[string]any    `json:"attrs,omitempty"`
}

// DiagramInfo is the registry's listing view of a managed diagram.
type DiagramInfo struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	NodeCount  int       `json:"node_count"`
	EdgeCount  int       `json:"edge_count"`
	CreatedAt  time.Time `json:"created_at"`
	LastAccess time.Time `json:"last_access"`
}
