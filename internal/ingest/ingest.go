package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jrmcauliffe00/flow-diagram/internal/validation"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Importer parses serialized diagram data back into snapshots. It accepts
// the two round-trippable encodings: the structured JSON snapshot and the
// plain-text summary layout. Safe for concurrent use.
type Importer struct {
	validator validation.Validator
}

// New creates an Importer with a pre-compiled snapshot schema.
func New() (*Importer, error) {
	v, err := validation.NewJSONSchemaValidator()
	if err != nil {
		return nil, fmt.Errorf("ingest: build validator: %w", err)
	}
	return &Importer{validator: v}, nil
}

// Import detects the encoding and parses. Data that is neither a JSON
// snapshot nor the text summary layout fails with an unrecognized-format
// error; nothing is ever partially imported.
func (im *Importer) Import(data []byte) (*schema.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil, schema.NewError(schema.ErrCodeParse, "empty input")
	case trimmed[0] == '{':
		return im.importJSON(trimmed)
	case bytes.HasPrefix(trimmed, []byte(textHeader)):
		return parseSummary(trimmed)
	default:
		return nil, schema.NewError(schema.ErrCodeParse,
			"unrecognized format: expected a json snapshot or a flow diagram text summary")
	}
}

// importJSON validates the raw shape against the snapshot schema, then
// decodes. Edge endpoints are trusted verbatim.
func (im *Importer) importJSON(data []byte) (*schema.Snapshot, error) {
	if err := im.validator.ValidateSnapshotBytes(data); err != nil {
		return nil, err
	}
	var snap schema.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, schema.NewError(schema.ErrCodeParse, "decode snapshot").WithCause(err)
	}
	return &snap, nil
}
