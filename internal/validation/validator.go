package validation

import "github.com/jrmcauliffe00/flow-diagram/pkg/schema"

// Validator checks serialized diagram data before it enters a store.
// Uses JSON Schema Draft 2020-12.
type Validator interface {
	ValidateSnapshot(snap *schema.Snapshot) error
	ValidateSnapshotBytes(data []byte) error
	ValidateAttrs(attrs map[string]any, attrsSchema []byte) error
}
