package validation

import (
	"fmt"

	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Check walks a snapshot and collects structural findings without failing:
// dangling edge endpoints, duplicate node ids, duplicate edge ids. It is
// diagnostic only; nothing is mutated and no error is returned.
func Check(snap *schema.Snapshot) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	if snap == nil {
		result.AddError("", "EMPTY_SNAPSHOT", "snapshot is nil")
		return result
	}

	nodeIDs := make(map[string]bool, len(snap.Nodes))
	for _, n := range snap.Nodes {
		if nodeIDs[n.ID] {
			result.AddError("nodes/"+n.ID, "DUPLICATE_NODE_ID",
				fmt.Sprintf("duplicate node id %s", n.ID))
		}
		nodeIDs[n.ID] = true
		if n.Label == "" {
			result.AddWarning("nodes/"+n.ID, "EMPTY_LABEL",
				fmt.Sprintf("node %s has an empty label", n.ID))
		}
	}

	edgeIDs := make(map[string]bool, len(snap.Edges))
	for _, e := range snap.Edges {
		if edgeIDs[e.ID] {
			result.AddError("edges/"+e.ID, "DUPLICATE_EDGE_ID",
				fmt.Sprintf("duplicate edge id %s", e.ID))
		}
		edgeIDs[e.ID] = true

		if !nodeIDs[e.Source] {
			result.AddError("edges/"+e.ID, "DANGLING_EDGE",
				fmt.Sprintf("edge %s references missing source node %s", e.ID, e.Source))
		}
		if !nodeIDs[e.Target] {
			result.AddError("edges/"+e.ID, "DANGLING_EDGE",
				fmt.Sprintf("edge %s references missing target node %s", e.ID, e.Target))
		}
	}
	return result
}
