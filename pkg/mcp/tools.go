package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jrmcauliffe00/flow-diagram/internal/expressions"
	"github.com/jrmcauliffe00/flow-diagram/internal/flows"
	"github.com/jrmcauliffe00/flow-diagram/internal/layout"
	"github.com/jrmcauliffe00/flow-diagram/internal/render"
	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/internal/streaming"
	"github.com/jrmcauliffe00/flow-diagram/internal/validation"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// handleCreate registers a new empty diagram.
func (s *DiagramServer) handleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := schema.DiagramOptions{
		Title:      req.GetString("title", ""),
		Width:      mcp.ParseFloat64(req, "width", 0),
		Height:     mcp.ParseFloat64(req, "height", 0),
		Background: req.GetString("background", ""),
		GridSize:   mcp.ParseFloat64(req, "grid_size", 0),
		SnapToGrid: mcp.ParseBoolean(req, "snap_to_grid", false),
	}

	id := s.registry.Create(opts)
	s.trackSession(ctx, id)
	s.publish(ctx, streaming.StreamEvent{
		DiagramID: id,
		EventType: schema.EventDiagramCreated,
		Payload:   map[string]any{"title": opts.Title},
	})

	return marshalResult(map[string]any{"diagram_id": id})
}

// handleAddNode adds a node to the target diagram.
func (s *DiagramServer) handleAddNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := s.resolveDiagram(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError("label is required"), nil
	}

	in := store.NodeInput{
		Label: label,
		Type:  req.GetString("type", ""),
		Attrs: mcp.ParseStringMap(req, "attrs", nil),
	}
	x, xok := floatArg(req, "x")
	y, yok := floatArg(req, "y")
	if xok || yok {
		in.Position = &schema.Position{X: x, Y: y}
	}
	if style := mcp.ParseStringMap(req, "style", nil); style != nil {
		var ns schema.NodeStyle
		if decErr := decodeArgument(style, &ns); decErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid style: %v", decErr)), nil
		}
		in.Style = &ns
	}

	d, release, ok := s.registry.Acquire(diagramID)
	if !ok {
		return diagramNotFound(diagramID), nil
	}
	nodeID := d.AddNode(in)
	release()

	s.trackSession(ctx, diagramID)
	s.publish(ctx, streaming.StreamEvent{
		DiagramID: diagramID,
		ElementID: nodeID,
		EventType: schema.EventNodeAdded,
		Payload:   map[string]any{"label": label},
	})

	return marshalResult(map[string]any{"diagram_id": diagramID, "node_id": nodeID})
}

// handleAddEdge connects two existing nodes.
func (s *DiagramServer) handleAddEdge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := s.resolveDiagram(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("source is required"), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError("target is required"), nil
	}

	in := store.EdgeInput{
		Source: source,
		Target: target,
		Label:  req.GetString("label", ""),
		Attrs:  mcp.ParseStringMap(req, "attrs", nil),
	}
	if style := mcp.ParseStringMap(req, "style", nil); style != nil {
		var es schema.EdgeStyle
		if decErr := decodeArgument(style, &es); decErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid style: %v", decErr)), nil
		}
		in.Style = &es
	}

	d, release, ok := s.registry.Acquire(diagramID)
	if !ok {
		return diagramNotFound(diagramID), nil
	}
	edgeID, addErr := d.AddEdge(in)
	release()
	if addErr != nil {
		return mcp.NewToolResultError(addErr.Error()), nil
	}

	s.trackSession(ctx, diagramID)
	s.publish(ctx, streaming.StreamEvent{
		DiagramID: diagramID,
		ElementID: edgeID,
		EventType: schema.EventEdgeAdded,
		Payload:   map[string]any{"source": source, "target": target},
	})

	return marshalResult(map[string]any{"diagram_id": diagramID, "edge_id": edgeID})
}

// handleUpdate applies a partial update to a node or edge.
func (s *DiagramServer) handleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := s.resolveDiagram(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	resource, err := req.RequireString("resource")
	if err != nil {
		return mcp.NewToolResultError("resource is required"), nil
	}
	elementID, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}
	fields := mcp.ParseStringMap(req, "fields", nil)
	if len(fields) == 0 {
		return mcp.NewToolResultError("fields is required and must name at least one field"), nil
	}

	var (
		updated   bool
		eventType string
	)
	switch resource {
	case "node":
		var upd store.NodeUpdate
		if decErr := decodeArgument(fields, &upd); decErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid fields: %v", decErr)), nil
		}
		d, release, ok := s.registry.Acquire(diagramID)
		if !ok {
			return diagramNotFound(diagramID), nil
		}
		updated = d.UpdateNode(elementID, upd)
		release()
		eventType = schema.EventNodeUpdated
	case "edge":
		if _, present := fields["source"]; present {
			return mcp.NewToolResultError(schema.NewError(schema.ErrCodeValidation,
				"edge endpoints are immutable; remove the edge and add a new one").Error()), nil
		}
		if _, present := fields["target"]; present {
			return mcp.NewToolResultError(schema.NewError(schema.ErrCodeValidation,
				"edge endpoints are immutable; remove the edge and add a new one").Error()), nil
		}
		var upd store.EdgeUpdate
		if decErr := decodeArgument(fields, &upd); decErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid fields: %v", decErr)), nil
		}
		d, release, ok := s.registry.Acquire(diagramID)
		if !ok {
			return diagramNotFound(diagramID), nil
		}
		updated = d.UpdateEdge(elementID, upd)
		release()
		eventType = schema.EventEdgeUpdated
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown resource type: %s", resource)), nil
	}

	if !updated {
		return mcp.NewToolResultError(schema.NewErrorf(schema.ErrCodeNotFound,
			"%s not found: %s", resource, elementID).Error()), nil
	}

	changed := make([]string, 0, len(fields))
	for k := range fields {
		changed = append(changed, k)
	}
	sort.Strings(changed)

	s.trackSession(ctx, diagramID)
	s.publish(ctx, streaming.StreamEvent{
		DiagramID: diagramID,
		ElementID: elementID,
		EventType: eventType,
		Payload:   map[string]any{"fields": changed},
	})

	return marshalResult(map[string]any{"diagram_id": diagramID, "id": elementID, "updated": true})
}

// handleRemove deletes a node (with its edges) or a single edge.
func (s *DiagramServer) handleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := s.resolveDiagram(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	resource, err := req.RequireString("resource")
	if err != nil {
		return mcp.NewToolResultError("resource is required"), nil
	}
	elementID, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	d, release, ok := s.registry.Acquire(diagramID)
	if !ok {
		return diagramNotFound(diagramID), nil
	}
	var (
		removed   bool
		eventType string
	)
	switch resource {
	case "node":
		removed = d.RemoveNode(elementID)
		eventType = schema.EventNodeRemoved
	case "edge":
		removed = d.RemoveEdge(elementID)
		eventType = schema.EventEdgeRemoved
	default:
		release()
		return mcp.NewToolResultError(fmt.Sprintf("unknown resource type: %s", resource)), nil
	}
	release()

	if !removed {
		return mcp.NewToolResultError(schema.NewErrorf(schema.ErrCodeNotFound,
			"%s not found: %s", resource, elementID).Error()), nil
	}

	s.trackSession(ctx, diagramID)
	s.publish(ctx, streaming.StreamEvent{
		DiagramID: diagramID,
		ElementID: elementID,
		EventType: eventType,
	})

	return marshalResult(map[string]any{"diagram_id": diagramID, "id": elementID, "removed": true})
}

// handleLayout repositions every node with the named algorithm.
func (s *DiagramServer) handleLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := s.resolveDiagram(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	algo := req.GetString("algorithm", "")

	d, release, ok := s.registry.Acquire(diagramID)
	if !ok {
		return diagramNotFound(diagramID), nil
	}
	applyErr := layout.Apply(layout.Algorithm(algo), d)
	nodeCount := d.NodeCount()
	release()
	if applyErr != nil {
		return mcp.NewToolResultError(applyErr.Error()), nil
	}

	effective := algo
	if effective == "" {
		effective = string(layout.AlgorithmHierarchical)
	}

	s.trackSession(ctx, diagramID)
	s.publish(ctx, streaming.StreamEvent{
		DiagramID: diagramID,
		EventType: schema.EventLayoutApplied,
		Payload:   map[string]any{"algorithm": effective},
	})

	return marshalResult(map[string]any{
		"diagram_id": diagramID,
		"algorithm":  effective,
		"positioned": nodeCount,
	})
}

// handleRender produces the diagram in one output format. Text formats
// come back verbatim; png comes back base64-encoded.
func (s *DiagramServer) handleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := s.resolveDiagram(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("format is required"), nil
	}

	opts := render.DefaultOptions()
	if theme := req.GetString("theme", ""); theme != "" {
		opts.Theme = render.Theme(theme)
	}
	if dir := req.GetString("direction", ""); dir != "" {
		opts.Direction = render.Direction(dir)
	}
	opts.ShowLabels = mcp.ParseBoolean(req, "show_labels", true)
	opts.ShowGrid = mcp.ParseBoolean(req, "show_grid", false)

	d, release, ok := s.registry.Acquire(diagramID)
	if !ok {
		return diagramNotFound(diagramID), nil
	}

	var (
		text      string
		renderErr error
	)
	if format == "png" {
		var png []byte
		png, renderErr = render.Image(ctx, d, opts)
		if renderErr == nil {
			text = base64.StdEncoding.EncodeToString(png)
		}
	} else {
		opts.Format = render.Format(format)
		text, renderErr = render.Render(d, opts)
	}
	release()
	if renderErr != nil {
		return mcp.NewToolResultError(renderErr.Error()), nil
	}

	s.trackSession(ctx, diagramID)
	s.publish(ctx, streaming.StreamEvent{
		DiagramID: diagramID,
		EventType: schema.EventDiagramRendered,
		Payload:   map[string]any{"format": format},
	})

	return mcp.NewToolResultText(text), nil
}

// handleDescribe returns the plain-text summary.
func (s *DiagramServer) handleDescribe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := s.resolveDiagram(ctx, req)
	if errRes != nil {
		return errRes, nil
	}

	d, release, ok := s.registry.Acquire(diagramID)
	if !ok {
		return diagramNotFound(diagramID), nil
	}
	text := render.Summary(d)
	release()

	s.trackSession(ctx, diagramID)
	return mcp.NewToolResultText(text), nil
}

// handleScaffold builds a diagram from one of the stock shapes.
func (s *DiagramServer) handleScaffold(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind is required"), nil
	}
	title := req.GetString("title", "")

	var (
		d        *store.Diagram
		buildErr error
	)
	switch kind {
	case "linear":
		labels := stringSliceArg(req, "labels")
		if len(labels) == 0 {
			return mcp.NewToolResultError("linear scaffold requires a labels array"), nil
		}
		d, buildErr = flows.LinearFlow(title, labels)
	case "branching":
		question := req.GetString("question", "")
		if question == "" {
			return mcp.NewToolResultError("branching scaffold requires a question"), nil
		}
		raw := mcp.ParseArgument(req, "branches", nil)
		if raw == nil {
			return mcp.NewToolResultError("branching scaffold requires a branches array"), nil
		}
		var branches []flows.Branch
		if decErr := decodeArgument(raw, &branches); decErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid branches: %v", decErr)), nil
		}
		d, buildErr = flows.BranchingFlow(title, question, branches)
	case "decision_tree":
		tree := mcp.ParseStringMap(req, "tree", nil)
		if tree == nil {
			return mcp.NewToolResultError("decision_tree scaffold requires a tree object"), nil
		}
		var root flows.DecisionNode
		if decErr := decodeArgument(tree, &root); decErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid tree: %v", decErr)), nil
		}
		d, buildErr = flows.DecisionTree(title, &root)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown scaffold kind: %s", kind)), nil
	}
	if buildErr != nil {
		return mcp.NewToolResultError(buildErr.Error()), nil
	}

	id := s.registry.Insert(d)
	s.trackSession(ctx, id)
	s.publish(ctx, streaming.StreamEvent{
		DiagramID: id,
		EventType: schema.EventDiagramCreated,
		Payload:   map[string]any{"kind": kind},
	})

	return marshalResult(map[string]any{
		"diagram_id": id,
		"kind":       kind,
		"node_count": d.NodeCount(),
		"edge_count": d.EdgeCount(),
	})
}

// handleImport reconstructs a diagram from serialized form.
func (s *DiagramServer) handleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError("data is required"), nil
	}

	snap, impErr := s.importer.Import([]byte(data))
	if impErr != nil {
		return mcp.NewToolResultError(impErr.Error()), nil
	}

	d := store.FromSnapshot(snap)
	id := s.registry.Insert(d)
	s.trackSession(ctx, id)
	s.publish(ctx, streaming.StreamEvent{
		DiagramID: id,
		EventType: schema.EventDiagramImported,
		Payload: map[string]any{
			"node_count": d.NodeCount(),
			"edge_count": d.EdgeCount(),
		},
	})

	return marshalResult(map[string]any{
		"diagram_id": id,
		"title":      snap.Options.Title,
		"node_count": d.NodeCount(),
		"edge_count": d.EdgeCount(),
	})
}

// handleExport writes the diagram to files in the requested formats.
func (s *DiagramServer) handleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := s.resolveDiagram(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	dir, err := req.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError("directory is required"), nil
	}
	baseName := req.GetString("base_name", "diagram")
	formats := stringSliceArg(req, "formats")

	opts := render.DefaultOptions()
	if theme := req.GetString("theme", ""); theme != "" {
		opts.Theme = render.Theme(theme)
	}

	d, release, ok := s.registry.Acquire(diagramID)
	if !ok {
		return diagramNotFound(diagramID), nil
	}
	results, expErr := s.exporter.Export(ctx, d, dir, baseName, formats, opts)
	release()
	if expErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", expErr)), nil
	}

	s.trackSession(ctx, diagramID)
	s.publish(ctx, streaming.StreamEvent{
		DiagramID: diagramID,
		EventType: schema.EventDiagramExported,
		Payload:   map[string]any{"directory": dir, "files": len(results)},
	})

	return marshalResult(map[string]any{"diagram_id": diagramID, "files": results})
}

// handleValidate reports structural errors and consistency warnings.
func (s *DiagramServer) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := s.resolveDiagram(ctx, req)
	if errRes != nil {
		return errRes, nil
	}

	d, release, ok := s.registry.Acquire(diagramID)
	if !ok {
		return diagramNotFound(diagramID), nil
	}
	snap := d.Snapshot()
	release()

	result := validation.Check(snap)
	result.Merge(validation.Analyze(snap))

	s.trackSession(ctx, diagramID)
	return marshalResult(map[string]any{
		"diagram_id": diagramID,
		"valid":      result.Valid(),
		"errors":     result.Errors,
		"warnings":   result.Warnings,
	})
}

// handleQuery dispatches to the per-resource query helpers.
func (s *DiagramServer) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resource, err := req.RequireString("resource")
	if err != nil {
		return mcp.NewToolResultError("resource is required"), nil
	}

	switch resource {
	case "diagrams":
		return s.queryDiagrams()
	case "nodes", "edges":
		return s.queryElements(ctx, req, resource)
	case "snapshot":
		return s.querySnapshot(ctx, req)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown resource type: %s", resource)), nil
	}
}

// --- Query helpers ---

func (s *DiagramServer) queryDiagrams() (*mcp.CallToolResult, error) {
	infos := s.registry.List()
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return marshalResult(map[string]any{"diagrams": infos, "count": len(infos)})
}

func (s *DiagramServer) queryElements(ctx context.Context, req mcp.CallToolRequest, kind string) (*mcp.CallToolResult, error) {
	diagramID, errRes := s.resolveDiagram(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	expression, err := req.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError("expression is required"), nil
	}
	lang := req.GetString("language", "expr")
	eng, ok := s.selector[lang]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown selector language: %s (expected expr or cel)", lang)), nil
	}

	d, release, found := s.registry.Acquire(diagramID)
	if !found {
		return diagramNotFound(diagramID), nil
	}
	snap := d.Snapshot()
	release()

	s.trackSession(ctx, diagramID)

	if kind == "nodes" {
		nodes, selErr := expressions.SelectNodes(ctx, eng, expression, snap)
		if selErr != nil {
			return mcp.NewToolResultError(selErr.Error()), nil
		}
		return marshalResult(map[string]any{"diagram_id": diagramID, "count": len(nodes), "nodes": nodes})
	}
	edges, selErr := expressions.SelectEdges(ctx, eng, expression, snap)
	if selErr != nil {
		return mcp.NewToolResultError(selErr.Error()), nil
	}
	return marshalResult(map[string]any{"diagram_id": diagramID, "count": len(edges), "edges": edges})
}

func (s *DiagramServer) querySnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := s.resolveDiagram(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	program, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program is required"), nil
	}

	d, release, found := s.registry.Acquire(diagramID)
	if !found {
		return diagramNotFound(diagramID), nil
	}
	snap := d.Snapshot()
	release()

	data, dataErr := expressions.SnapshotData(snap)
	if dataErr != nil {
		return mcp.NewToolResultError(dataErr.Error()), nil
	}
	out, evalErr := s.jq.Evaluate(ctx, program, data)
	if evalErr != nil {
		return mcp.NewToolResultError(evalErr.Error()), nil
	}

	s.trackSession(ctx, diagramID)
	return marshalResult(map[string]any{"diagram_id": diagramID, "result": out})
}

// --- Internal helpers ---

// resolveDiagram returns the target diagram id: the explicit argument when
// present, otherwise the session's last-used diagram.
func (s *DiagramServer) resolveDiagram(ctx context.Context, req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	if id := req.GetString("diagram_id", ""); id != "" {
		return id, nil
	}
	if session := server.ClientSessionFromContext(ctx); session != nil {
		if id, ok := s.sessions.CurrentDiagram(session.SessionID()); ok {
			return id, nil
		}
	}
	return "", mcp.NewToolResultError("diagram_id is required (the session has no current diagram)")
}

// trackSession records the diagram this session worked on last.
func (s *DiagramServer) trackSession(ctx context.Context, diagramID string) {
	if session := server.ClientSessionFromContext(ctx); session != nil {
		s.sessions.Touch(session.SessionID(), diagramID)
	}
}

// publish sends an event to the hub. Tool calls never fail because the
// event stream is saturated, so failures only get logged.
func (s *DiagramServer) publish(ctx context.Context, ev streaming.StreamEvent) {
	if err := s.hub.Publish(ctx, ev); err != nil {
		s.logger.Debug("event publish failed",
			slog.String("diagram_id", ev.DiagramID),
			slog.String("event_type", ev.EventType),
			slog.String("error", err.Error()),
		)
	}
}

// diagramNotFound builds the soft-failure result for an unknown diagram id.
func diagramNotFound(diagramID string) *mcp.CallToolResult {
	return mcp.NewToolResultError(schema.NewErrorf(schema.ErrCodeNotFound,
		"diagram not found: %s", diagramID).Error())
}

// floatArg reads a numeric argument, reporting whether it was present.
func floatArg(req mcp.CallToolRequest, key string) (float64, bool) {
	v := mcp.ParseArgument(req, key, nil)
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// stringSliceArg reads an array argument, keeping only string elements.
func stringSliceArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := mcp.ParseArgument(req, key, nil).([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if str, isStr := v.(string); isStr {
			out = append(out, str)
		}
	}
	return out
}

// decodeArgument converts a loosely typed argument into a typed struct by
// round-tripping through JSON.
func decodeArgument(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
