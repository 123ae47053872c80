package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Analyze performs graph analysis on a snapshot: cycle detection (Kahn's
// algorithm), reachability from the source nodes (BFS), and label
// ambiguity. Everything it finds is a warning; a diagram with a loop or a
// stranded node still renders fine, it just usually isn't what the author
// meant.
func Analyze(snap *schema.Snapshot) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	if snap == nil {
		return result
	}

	nodeIDs := make(map[string]bool, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodeIDs[n.ID] = true
	}

	// adjacency[id] = targets of id's outgoing edges. Edges with missing
	// endpoints are skipped; Check already reports those as errors.
	adjacency := make(map[string][]string, len(snap.Nodes))
	inDegree := make(map[string]int, len(snap.Nodes))
	for id := range nodeIDs {
		inDegree[id] = 0
	}
	for _, e := range snap.Edges {
		if !nodeIDs[e.Source] || !nodeIDs[e.Target] {
			continue
		}
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		inDegree[e.Target]++
	}

	// Kahn's algorithm: every id not drained from the queue sits on a cycle.
	queue := make([]string, 0, len(nodeIDs))
	degrees := make(map[string]int, len(inDegree))
	for id, deg := range inDegree {
		degrees[id] = deg
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adjacency[id] {
			degrees[next]--
			if degrees[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != len(nodeIDs) {
		cyclic := make([]string, 0, len(nodeIDs)-visited)
		for id, deg := range degrees {
			if deg > 0 {
				cyclic = append(cyclic, id)
			}
		}
		sort.Strings(cyclic)
		result.AddWarning("edges", "CYCLE",
			fmt.Sprintf("diagram contains a cycle through %d nodes (%s)", len(cyclic), joinIDs(cyclic)))
	}

	// Reachability: BFS from the source nodes (no incoming edges). With no
	// source at all every node sits on a cycle, so the walk would flag
	// everything and say nothing new.
	roots := make([]string, 0)
	for id, deg := range inDegree {
		if deg == 0 {
			roots = append(roots, id)
		}
	}
	if len(roots) > 0 {
		reachable := make(map[string]bool, len(nodeIDs))
		bfs := make([]string, len(roots))
		copy(bfs, roots)
		for _, r := range roots {
			reachable[r] = true
		}
		for len(bfs) > 0 {
			id := bfs[0]
			bfs = bfs[1:]
			for _, next := range adjacency[id] {
				if !reachable[next] {
					reachable[next] = true
					bfs = append(bfs, next)
				}
			}
		}
		for _, n := range snap.Nodes {
			if !reachable[n.ID] {
				result.AddWarning("nodes/"+n.ID, "UNREACHABLE_NODE",
					fmt.Sprintf("node %s (%q) is unreachable from any source node", n.ID, n.Label))
			}
		}
	}

	// Duplicate labels survive rendering but break the text summary round
	// trip: the importer resolves a label to the last node carrying it.
	byLabel := make(map[string][]string, len(snap.Nodes))
	for _, n := range snap.Nodes {
		if n.Label == "" {
			continue
		}
		byLabel[n.Label] = append(byLabel[n.Label], n.ID)
	}
	labels := make([]string, 0, len(byLabel))
	for label, ids := range byLabel {
		if len(ids) > 1 {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	for _, label := range labels {
		result.AddWarning("nodes", "AMBIGUOUS_LABEL",
			fmt.Sprintf("label %q is shared by %d nodes; text import will resolve it to one of them", label, len(byLabel[label])))
	}

	return result
}

// joinIDs renders a short id list for warning messages, eliding long ones.
func joinIDs(ids []string) string {
	const max = 5
	if len(ids) <= max {
		return strings.Join(ids, ", ")
	}
	return strings.Join(ids[:max], ", ") + ", ..."
}
