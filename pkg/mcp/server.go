package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jrmcauliffe00/flow-diagram/internal/expressions"
	"github.com/jrmcauliffe00/flow-diagram/internal/export"
	"github.com/jrmcauliffe00/flow-diagram/internal/ingest"
	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/internal/streaming"
)

// DiagramServerDeps holds the dependencies for creating a DiagramServer.
// Registry is required; nil optional deps get working defaults.
type DiagramServerDeps struct {
	Registry *store.Registry
	Hub      streaming.EventHub
	Exporter *export.Exporter
	Importer *ingest.Importer
	Logger   *slog.Logger
}

// DiagramServer wraps an MCP server with the diagram tool set. Every tool
// goes through the registry's per-diagram locking, so concurrent sessions
// never mutate the same diagram at once.
type DiagramServer struct {
	registry *store.Registry
	hub      streaming.EventHub
	exporter *export.Exporter
	importer *ingest.Importer
	selector map[string]expressions.Engine
	jq       expressions.Engine
	sessions *SessionRegistry
	logger   *slog.Logger

	mcpServer *server.MCPServer
}

// NewDiagramServer creates a DiagramServer with all tools registered.
func NewDiagramServer(deps DiagramServerDeps) (*DiagramServer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	registry := deps.Registry
	if registry == nil {
		registry = store.NewRegistry(logger)
	}
	hub := deps.Hub
	if hub == nil {
		hub = streaming.NewMemoryHub()
	}
	importer := deps.Importer
	if importer == nil {
		var err error
		importer, err = ingest.New()
		if err != nil {
			return nil, fmt.Errorf("build importer: %w", err)
		}
	}
	exporter := deps.Exporter
	if exporter == nil {
		exporter = export.NewExporter(4, logger)
	}

	celEngine, err := expressions.NewCELEngine()
	if err != nil {
		return nil, fmt.Errorf("build cel engine: %w", err)
	}

	s := &DiagramServer{
		registry: registry,
		hub:      hub,
		exporter: exporter,
		importer: importer,
		selector: map[string]expressions.Engine{
			"expr": expressions.NewExprEngine(),
			"cel":  celEngine,
		},
		jq:       expressions.NewGoJQEngine(),
		sessions: NewSessionRegistry(),
		logger:   logger,
	}

	mcpSrv := server.NewMCPServer(
		"flow-diagram",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("flow-diagram builds and renders directed flow diagrams. Start with diagram.create (or diagram.scaffold for common shapes), add content with diagram.add_node and diagram.add_edge, position nodes with diagram.layout, then read the result with diagram.render (svg, html, mermaid, json, dot, png), diagram.describe, or diagram.export. The server remembers the diagram each session touched last, so diagram_id may be omitted after the first call."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s, nil
}

// Serve starts the stdio transport and blocks until ctx is cancelled or
// stdin closes.
func (s *DiagramServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// ServeSSE starts the SSE transport on addr and blocks until ctx is
// cancelled. Returns http.ErrServerClosed after a graceful shutdown.
func (s *DiagramServer) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			return err
		}
		return <-errCh
	}
}

// MCPServer returns the underlying MCPServer for testing or custom
// transports.
func (s *DiagramServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Sessions returns the session-to-diagram registry.
func (s *DiagramServer) Sessions() *SessionRegistry {
	return s.sessions
}

// tools returns the registered MCP tools as ServerTool entries.
func (s *DiagramServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: createTool(), Handler: s.handleCreate},
		{Tool: addNodeTool(), Handler: s.handleAddNode},
		{Tool: addEdgeTool(), Handler: s.handleAddEdge},
		{Tool: updateTool(), Handler: s.handleUpdate},
		{Tool: removeTool(), Handler: s.handleRemove},
		{Tool: layoutTool(), Handler: s.handleLayout},
		{Tool: renderTool(), Handler: s.handleRender},
		{Tool: describeTool(), Handler: s.handleDescribe},
		{Tool: scaffoldTool(), Handler: s.handleScaffold},
		{Tool: importTool(), Handler: s.handleImport},
		{Tool: exportTool(), Handler: s.handleExport},
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: queryTool(), Handler: s.handleQuery},
	}
}

// --- Tool definitions ---

func createTool() mcp.Tool {
	return mcp.NewTool("diagram.create",
		mcp.WithDescription("Create a new empty flow diagram and return its id"),
		mcp.WithString("title", mcp.Description("Diagram title")),
		mcp.WithNumber("width", mcp.Description("Canvas width in pixels (default 800)")),
		mcp.WithNumber("height", mcp.Description("Canvas height in pixels (default 600)")),
		mcp.WithString("background", mcp.Description("Background color (CSS color, overrides the theme)")),
		mcp.WithNumber("grid_size", mcp.Description("Grid pitch in pixels (default 20)")),
		mcp.WithBoolean("snap_to_grid", mcp.Description("Snap node positions to the grid")),
	)
}

func addNodeTool() mcp.Tool {
	return mcp.NewTool("diagram.add_node",
		mcp.WithDescription("Add a node to a diagram and return its assigned node id"),
		mcp.WithString("diagram_id", mcp.Description("Target diagram (defaults to the session's last-used diagram)")),
		mcp.WithString("label", mcp.Required(), mcp.Description("Display label")),
		mcp.WithString("type", mcp.Description("Semantic type: start, end, process, decision, condition, action, parallel (default: default)")),
		mcp.WithNumber("x", mcp.Description("Explicit x position (otherwise layout assigns one)")),
		mcp.WithNumber("y", mcp.Description("Explicit y position")),
		mcp.WithObject("style", mcp.Description("Visual overrides: fill, stroke, stroke_width, text_color, font_size, font_family, width, height")),
		mcp.WithObject("attrs", mcp.Description("Opaque caller metadata attached to the node")),
	)
}

func addEdgeTool() mcp.Tool {
	return mcp.NewTool("diagram.add_edge",
		mcp.WithDescription("Add a directed edge between two existing nodes and return its assigned edge id"),
		mcp.WithString("diagram_id", mcp.Description("Target diagram (defaults to the session's last-used diagram)")),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithString("label", mcp.Description("Edge label")),
		mcp.WithObject("style", mcp.Description("Visual overrides: color, width, dash_pattern, arrow_size")),
		mcp.WithObject("attrs", mcp.Description("Opaque caller metadata attached to the edge")),
	)
}

func updateTool() mcp.Tool {
	return mcp.NewTool("diagram.update",
		mcp.WithDescription("Update fields of a node or edge. Only the fields present in 'fields' change; everything else is left untouched"),
		mcp.WithString("diagram_id", mcp.Description("Target diagram (defaults to the session's last-used diagram)")),
		mcp.WithString("resource", mcp.Required(),
			mcp.Enum("node", "edge"),
			mcp.Description("Kind of element to update"),
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node or edge id")),
		mcp.WithObject("fields", mcp.Required(), mcp.Description("Fields to change. Node: label, type, position {x, y}, style, attrs. Edge: label, style, attrs (endpoints are immutable)")),
	)
}

func removeTool() mcp.Tool {
	return mcp.NewTool("diagram.remove",
		mcp.WithDescription("Remove a node or edge. Removing a node also removes every edge touching it"),
		mcp.WithString("diagram_id", mcp.Description("Target diagram (defaults to the session's last-used diagram)")),
		mcp.WithString("resource", mcp.Required(),
			mcp.Enum("node", "edge"),
			mcp.Description("Kind of element to remove"),
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node or edge id")),
	)
}

func layoutTool() mcp.Tool {
	return mcp.NewTool("diagram.layout",
		mcp.WithDescription("Run an automatic layout over the diagram, overwriting every node position"),
		mcp.WithString("diagram_id", mcp.Description("Target diagram (defaults to the session's last-used diagram)")),
		mcp.WithString("algorithm",
			mcp.Enum("hierarchical", "circular", "grid"),
			mcp.Description("Layout algorithm (default: hierarchical)"),
		),
	)
}

func renderTool() mcp.Tool {
	return mcp.NewTool("diagram.render",
		mcp.WithDescription("Render the diagram to a string in the requested format. png returns base64-encoded bytes"),
		mcp.WithString("diagram_id", mcp.Description("Target diagram (defaults to the session's last-used diagram)")),
		mcp.WithString("format", mcp.Required(),
			mcp.Enum("svg", "html", "mermaid", "json", "dot", "png"),
			mcp.Description("Output format"),
		),
		mcp.WithString("theme",
			mcp.Enum("light", "dark"),
			mcp.Description("Color theme (default: light)"),
		),
		mcp.WithString("direction",
			mcp.Enum("vertical", "horizontal"),
			mcp.Description("Layout flow direction (default: vertical)"),
		),
		mcp.WithBoolean("show_labels", mcp.Description("Draw edge labels (default: true)")),
		mcp.WithBoolean("show_grid", mcp.Description("Draw background grid lines (default: false)")),
	)
}

func describeTool() mcp.Tool {
	return mcp.NewTool("diagram.describe",
		mcp.WithDescription("Return a plain-text summary of the diagram: title, counts, one line per node and edge"),
		mcp.WithString("diagram_id", mcp.Description("Target diagram (defaults to the session's last-used diagram)")),
	)
}

func scaffoldTool() mcp.Tool {
	return mcp.NewTool("diagram.scaffold",
		mcp.WithDescription("Create a new diagram from a common shape: a linear chain, a branching decision, or a yes/no decision tree"),
		mcp.WithString("kind", mcp.Required(),
			mcp.Enum("linear", "branching", "decision_tree"),
			mcp.Description("Shape to build"),
		),
		mcp.WithString("title", mcp.Description("Diagram title")),
		mcp.WithArray("labels",
			mcp.Items(map[string]any{"type": "string"}),
			mcp.Description("linear: node labels in chain order"),
		),
		mcp.WithString("question", mcp.Description("branching: the decision question")),
		mcp.WithArray("branches",
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"when": map[string]any{"type": "string"},
					"then": map[string]any{"type": "string"},
				},
			}),
			mcp.Description("branching: one {when, then} per branch"),
		),
		mcp.WithObject("tree", mcp.Description("decision_tree: nested {text, yes, no} nodes; leaves have neither yes nor no")),
	)
}

func importTool() mcp.Tool {
	return mcp.NewTool("diagram.import",
		mcp.WithDescription("Import a diagram from a JSON snapshot or a flow diagram text summary. The encoding is detected automatically"),
		mcp.WithString("data", mcp.Required(), mcp.Description("Serialized diagram")),
	)
}

func exportTool() mcp.Tool {
	return mcp.NewTool("diagram.export",
		mcp.WithDescription("Write the diagram to files in one or more formats"),
		mcp.WithString("diagram_id", mcp.Description("Target diagram (defaults to the session's last-used diagram)")),
		mcp.WithString("directory", mcp.Required(), mcp.Description("Output directory (created if missing)")),
		mcp.WithString("base_name", mcp.Description("File name without extension (default: diagram)")),
		mcp.WithArray("formats",
			mcp.Items(map[string]any{"type": "string"}),
			mcp.Description("Formats to write: svg, html, mermaid, json, dot, png, text (default: all)"),
		),
		mcp.WithString("theme",
			mcp.Enum("light", "dark"),
			mcp.Description("Color theme (default: light)"),
		),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("diagram.validate",
		mcp.WithDescription("Check the diagram for structural problems: dangling edge endpoints, duplicate ids, cycles, unreachable nodes, ambiguous labels. Diagnostic only; the diagram is never changed"),
		mcp.WithString("diagram_id", mcp.Description("Target diagram (defaults to the session's last-used diagram)")),
	)
}

func queryTool() mcp.Tool {
	return mcp.NewTool("diagram.query",
		mcp.WithDescription("Query diagrams or their contents. 'diagrams' lists every registered diagram; 'nodes' and 'edges' filter with a boolean selector expression; 'snapshot' runs a jq program over the diagram snapshot"),
		mcp.WithString("resource", mcp.Required(),
			mcp.Enum("diagrams", "nodes", "edges", "snapshot"),
			mcp.Description("What to query"),
		),
		mcp.WithString("diagram_id", mcp.Description("Target diagram (not needed for 'diagrams')")),
		mcp.WithString("expression", mcp.Description("nodes/edges: boolean selector, e.g. node.type == \"decision\"")),
		mcp.WithString("language",
			mcp.Enum("expr", "cel"),
			mcp.Description("Selector language (default: expr)"),
		),
		mcp.WithString("program", mcp.Description("snapshot: jq program, e.g. .nodes | length")),
	)
}
