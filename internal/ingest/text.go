package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Markers of the text summary layout.
const (
	textHeader  = "Flow Diagram:"
	nodesHeader = "Nodes:"
	edgesHeader = "Edges:"
)

var (
	nodeLineRe = regexp.MustCompile(`^(\S+): (.*?)(?: \(([^()]*)\))?$`)
	edgeLineRe = regexp.MustCompile(`^(.*?) -> (.*?)(?: \(([^()]*)\))?$`)
)

type summarySection int

const (
	sectionNone summarySection = iota
	sectionNodes
	sectionEdges
)

// parseSummary reads the text summary layout back into a snapshot. Node ids
// come straight off the node lines; edge endpoints are resolved by matching
// node labels through a label-to-id map built while scanning the Nodes
// section, so a label shared by two nodes resolves to the last one seen.
func parseSummary(data []byte) (*schema.Snapshot, error) {
	snap := &schema.Snapshot{
		Nodes: []schema.Node{},
		Edges: []schema.Edge{},
	}
	labelToID := make(map[string]string)
	section := sectionNone
	edgeSeq := 0

	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			// section separator
		case strings.HasPrefix(line, textHeader):
			snap.Options.Title = strings.TrimSpace(strings.TrimPrefix(line, textHeader))
		case line == nodesHeader:
			section = sectionNodes
		case line == edgesHeader:
			section = sectionEdges
		case strings.HasPrefix(line, "- "):
			entry := strings.TrimPrefix(line, "- ")
			switch section {
			case sectionNodes:
				node, err := parseNodeLine(entry, lineNo)
				if err != nil {
					return nil, err
				}
				labelToID[node.Label] = node.ID
				snap.Nodes = append(snap.Nodes, node)
			case sectionEdges:
				edgeSeq++
				edge, err := parseEdgeLine(entry, lineNo, edgeSeq, labelToID)
				if err != nil {
					return nil, err
				}
				snap.Edges = append(snap.Edges, edge)
			default:
				return nil, schema.NewErrorf(schema.ErrCodeParse,
					"line %d: entry outside the Nodes or Edges section", lineNo)
			}
		case strings.HasPrefix(line, nodesHeader+" "):
			// the counts line; counts are recomputed on load
		default:
			return nil, schema.NewErrorf(schema.ErrCodeParse, "line %d: unrecognized line %q", lineNo, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, schema.NewError(schema.ErrCodeParse, "read summary").WithCause(err)
	}
	return snap, nil
}

// parseNodeLine parses "<id>: <label>" with an optional " (<type>)" suffix.
func parseNodeLine(entry string, lineNo int) (schema.Node, error) {
	m := nodeLineRe.FindStringSubmatch(entry)
	if m == nil {
		return schema.Node{}, schema.NewErrorf(schema.ErrCodeParse,
			"line %d: malformed node entry %q", lineNo, entry)
	}
	return schema.Node{
		ID:    m[1],
		Label: m[2],
		Type:  m[3],
	}, nil
}

// parseEdgeLine parses "<sourceLabel> -> <targetLabel>" with an optional
// " (<edgeLabel>)" suffix, resolving both labels to node ids.
func parseEdgeLine(entry string, lineNo, seq int, labelToID map[string]string) (schema.Edge, error) {
	m := edgeLineRe.FindStringSubmatch(entry)
	if m == nil {
		return schema.Edge{}, schema.NewErrorf(schema.ErrCodeParse,
			"line %d: malformed edge entry %q", lineNo, entry)
	}

	srcID, ok := labelToID[m[1]]
	if !ok {
		return schema.Edge{}, schema.NewErrorf(schema.ErrCodeParse,
			"line %d: edge references unknown node label %q", lineNo, m[1])
	}
	dstID, ok := labelToID[m[2]]
	if !ok {
		return schema.Edge{}, schema.NewErrorf(schema.ErrCodeParse,
			"line %d: edge references unknown node label %q", lineNo, m[2])
	}

	return schema.Edge{
		ID:     fmt.Sprintf("edge_%d", seq),
		Source: srcID,
		Target: dstID,
		Label:  m[3],
	}, nil
}
