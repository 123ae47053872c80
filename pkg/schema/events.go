package schema

// Event type constants for the diagram event stream.
const (
	EventDiagramCreated  = "diagram_created"
	EventDiagramImported = "diagram_imported"
	EventDiagramRemoved  = "diagram_removed"
	EventDiagramExpired  = "diagram_expired"

	EventNodeAdded   = "node_added"
	EventNodeUpdated = "node_updated"
	EventNodeRemoved = "node_removed"

	EventEdgeAdded   = "edge_added"
	EventEdgeUpdated = "edge_updated"
	EventEdgeRemoved = "edge_removed"

	EventLayoutApplied   = "layout_applied"
	EventDiagramRendered = "diagram_rendered"
	EventDiagramExported = "diagram_exported"
)
