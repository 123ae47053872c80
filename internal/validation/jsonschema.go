package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// snapshotSchemaJSON is the JSON Schema for serialized diagram snapshots.
// Embedded as a constant to avoid filesystem dependencies. Top-level title
// and metadata are tolerated so structured render output round-trips.
const snapshotSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flow-diagram.dev/schemas/snapshot.json",
  "type": "object",
  "required": ["nodes", "edges"],
  "properties": {
    "title": { "type": "string" },
    "metadata": { "type": "object" },
    "options": { "$ref": "#/$defs/options" },
    "nodes": {
      "type": "array",
      "items": { "$ref": "#/$defs/node" }
    },
    "edges": {
      "type": "array",
      "items": { "$ref": "#/$defs/edge" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "options": {
      "type": "object",
      "properties": {
        "title": { "type": "string" },
        "width": { "type": "number", "minimum": 0 },
        "height": { "type": "number", "minimum": 0 },
        "background": { "type": "string" },
        "grid_size": { "type": "number", "minimum": 0 },
        "snap_to_grid": { "type": "boolean" }
      },
      "additionalProperties": false
    },
    "position": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {
        "x": { "type": "number" },
        "y": { "type": "number" }
      },
      "additionalProperties": false
    },
    "node_style": {
      "type": "object",
      "properties": {
        "fill": { "type": "string" },
        "stroke": { "type": "string" },
        "stroke_width": { "type": "number", "minimum": 0 },
        "text_color": { "type": "string" },
        "font_size": { "type": "number", "minimum": 0 },
        "font_family": { "type": "string" },
        "width": { "type": "number", "minimum": 0 },
        "height": { "type": "number", "minimum": 0 }
      },
      "additionalProperties": false
    },
    "edge_style": {
      "type": "object",
      "properties": {
        "color": { "type": "string" },
        "width": { "type": "number", "minimum": 0 },
        "dash_pattern": { "type": "string" },
        "arrow_size": { "type": "number", "minimum": 0 }
      },
      "additionalProperties": false
    },
    "node": {
      "type": "object",
      "required": ["id", "label"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "label": { "type": "string" },
        "type": { "type": "string" },
        "position": { "$ref": "#/$defs/position" },
        "style": { "$ref": "#/$defs/node_style" },
        "attrs": { "type": "object" }
      },
      "additionalProperties": false
    },
    "edge": {
      "type": "object",
      "required": ["id", "source", "target"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "source": { "type": "string", "minLength": 1 },
        "target": { "type": "string", "minLength": 1 },
        "label": { "type": "string" },
        "style": { "$ref": "#/$defs/edge_style" },
        "attrs": { "type": "object" }
      },
      "additionalProperties": false
    }
  }
}`

// JSONSchemaValidator implements the Validator interface using JSON Schema
// Draft 2020-12. It is safe for concurrent use.
type JSONSchemaValidator struct {
	snapshotSchema *jsonschema.Schema

	// mu guards the cache for dynamic schema compilation.
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator creates a JSONSchemaValidator with the snapshot
// schema pre-compiled.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(snapshotSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal snapshot schema: %w", err)
	}
	if err := c.AddResource("https://flow-diagram.dev/schemas/snapshot.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("add snapshot schema resource: %w", err)
	}

	snapSchema, err := c.Compile("https://flow-diagram.dev/schemas/snapshot.json")
	if err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}

	return &JSONSchemaValidator{
		snapshotSchema: snapSchema,
		cache:          make(map[string]*jsonschema.Schema),
	}, nil
}

// ValidateSnapshot validates a snapshot's shape against the snapshot JSON
// Schema. It checks structure only; edge endpoints are deliberately not
// resolved here.
func (v *JSONSchemaValidator) ValidateSnapshot(snap *schema.Snapshot) error {
	if snap == nil {
		return schema.NewError(schema.ErrCodeValidation, "snapshot is nil")
	}

	doc, err := toJSONValue(snap)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize snapshot").WithCause(err)
	}

	if err := v.snapshotSchema.Validate(doc); err != nil {
		return toDiagramError(err)
	}
	return nil
}

// ValidateSnapshotBytes validates raw JSON against the snapshot schema
// without decoding it into Go structs first, so malformed shapes are caught
// before any unmarshal.
func (v *JSONSchemaValidator) ValidateSnapshotBytes(data []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return schema.NewError(schema.ErrCodeParse, "invalid json").WithCause(err)
	}
	if err := v.snapshotSchema.Validate(doc); err != nil {
		return toDiagramError(err)
	}
	return nil
}

// ValidateAttrs validates an attribute bag against a JSON Schema provided as
// raw bytes. The schema is compiled and cached for subsequent calls with the
// same schema.
func (v *JSONSchemaValidator) ValidateAttrs(attrs map[string]any, attrsSchema []byte) error {
	if len(attrsSchema) == 0 {
		return nil // no schema means no validation needed
	}
	if attrs == nil {
		attrs = map[string]any{}
	}

	compiled, err := v.getOrCompile(attrsSchema)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "invalid attrs schema").WithCause(err)
	}

	// Convert to JSON-compatible value (json.Number for numbers).
	doc, err := toJSONValue(attrs)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize attrs").WithCause(err)
	}

	if err := compiled.Validate(doc); err != nil {
		return toDiagramError(err)
	}
	return nil
}

// getOrCompile returns a cached compiled schema or compiles and caches a new
// one.
func (v *JSONSchemaValidator) getOrCompile(schemaBytes []byte) (*jsonschema.Schema, error) {
	key := string(schemaBytes)

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	// Double-check after acquiring write lock.
	if cached, ok := v.cache[key]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// Each dynamic schema gets a unique URL to avoid compiler collisions.
	url := fmt.Sprintf("flowdiagram://attrs-schema/%d", len(v.cache))

	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toDiagramError converts a jsonschema.ValidationError into a DiagramError
// with clear, actionable messages.
func toDiagramError(err error) *schema.DiagramError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
