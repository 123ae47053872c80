package expressions

import (
	"context"
	"encoding/json"

	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Selector environments expose diagram elements to the engines as plain
// JSON-shaped maps, so an expression sees the same field names the wire
// format uses (node.id, node.label, node.position.x, edge.source, ...).

// DiagramMeta builds the shared "diagram" variable for a snapshot.
func DiagramMeta(snap *schema.Snapshot) map[string]any {
	if snap == nil {
		return map[string]any{}
	}
	return map[string]any{
		"title":      snap.Options.Title,
		"node_count": len(snap.Nodes),
		"edge_count": len(snap.Edges),
	}
}

// NodeEnv builds the evaluation environment for a single node.
func NodeEnv(n schema.Node, meta map[string]any) (map[string]any, error) {
	plain, err := toPlain(n)
	if err != nil {
		return nil, err
	}
	return map[string]any{"node": plain, "diagram": meta}, nil
}

// EdgeEnv builds the evaluation environment for a single edge.
func EdgeEnv(e schema.Edge, meta map[string]any) (map[string]any, error) {
	plain, err := toPlain(e)
	if err != nil {
		return nil, err
	}
	return map[string]any{"edge": plain, "diagram": meta}, nil
}

// SelectNodes evaluates a boolean expression against every node of the
// snapshot and returns the matches in snapshot order.
func SelectNodes(ctx context.Context, eng Engine, expression string, snap *schema.Snapshot) ([]schema.Node, error) {
	meta := DiagramMeta(snap)
	var matched []schema.Node
	for _, n := range snap.Nodes {
		env, err := NodeEnv(n, meta)
		if err != nil {
			return nil, err
		}
		out, err := eng.Evaluate(ctx, expression, env)
		if err != nil {
			return nil, err
		}
		ok, err := asBool(out)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

// SelectEdges evaluates a boolean expression against every edge of the
// snapshot and returns the matches in snapshot order.
func SelectEdges(ctx context.Context, eng Engine, expression string, snap *schema.Snapshot) ([]schema.Edge, error) {
	meta := DiagramMeta(snap)
	var matched []schema.Edge
	for _, e := range snap.Edges {
		env, err := EdgeEnv(e, meta)
		if err != nil {
			return nil, err
		}
		out, err := eng.Evaluate(ctx, expression, env)
		if err != nil {
			return nil, err
		}
		ok, err := asBool(out)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// SnapshotData converts a snapshot into the plain map form jq programs
// run against.
func SnapshotData(snap *schema.Snapshot) (map[string]any, error) {
	return toPlain(snap)
}

// toPlain round-trips a value through JSON so engines see maps and
// float64 numbers instead of Go structs.
func toPlain(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeEvaluation, "encode selector environment").WithCause(err)
	}
	var plain map[string]any
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, schema.NewError(schema.ErrCodeEvaluation, "decode selector environment").WithCause(err)
	}
	return plain, nil
}

// asBool interprets an evaluation result as a selector verdict. Anything
// other than a real boolean is an error, so typos fail loudly instead of
// silently matching nothing.
func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeEvaluation,
			"selector must evaluate to a boolean, got %T", v)
	}
	return b, nil
}
