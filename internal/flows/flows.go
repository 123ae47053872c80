// Package flows provides convenience constructors for common diagram
// shapes. Each builder returns a fully populated store.Diagram with
// typed nodes and edges added in a stable, documented order, ready for
// layout and rendering.
package flows

import (
	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Branch describes one arm leaving a decision node: When is the label
// carried by the outgoing edge, Then the label of the process node the
// arm leads to.
type Branch struct {
	When string
	Then string
}

// DecisionNode is one node of a decision tree. A node with neither Yes
// nor No child is a leaf outcome; anything else renders as a decision
// with its answers on the outgoing edges.
type DecisionNode struct {
	Text string
	Yes  *DecisionNode
	No   *DecisionNode
}

// LinearFlow builds a straight chain from the given labels: the first
// node is typed start, the last end, everything between process. Edges
// connect consecutive labels in order, so labels[i] always points at
// labels[i+1].
func LinearFlow(title string, labels []string) (*store.Diagram, error) {
	if len(labels) == 0 {
		return nil, schema.NewError(schema.ErrCodeValidation, "a linear flow needs at least one label")
	}

	d := store.New(schema.DiagramOptions{Title: title})
	ids := make([]string, len(labels))
	for i, label := range labels {
		ids[i] = d.AddNode(store.NodeInput{Label: label, Type: chainType(i, len(labels))})
	}
	for i := 0; i < len(ids)-1; i++ {
		if _, err := d.AddEdge(store.EdgeInput{Source: ids[i], Target: ids[i+1]}); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// chainType picks the node type for position i of an n-label chain.
func chainType(i, n int) string {
	switch {
	case i == 0:
		return schema.NodeTypeStart
	case i == n-1:
		return schema.NodeTypeEnd
	default:
		return schema.NodeTypeProcess
	}
}

// BranchingFlow builds the classic fan-out-and-merge shape: a start
// node, the question as a decision, one process node per branch, and a
// shared end node every branch converges on. Branches are added in the
// order given; each decision edge carries the branch's When label.
func BranchingFlow(title, question string, branches []Branch) (*store.Diagram, error) {
	if question == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "a branching flow needs a question")
	}
	if len(branches) == 0 {
		return nil, schema.NewError(schema.ErrCodeValidation, "a branching flow needs at least one branch")
	}

	d := store.New(schema.DiagramOptions{Title: title})
	start := d.AddNode(store.NodeInput{Label: "Start", Type: schema.NodeTypeStart})
	decision := d.AddNode(store.NodeInput{Label: question, Type: schema.NodeTypeDecision})
	if _, err := d.AddEdge(store.EdgeInput{Source: start, Target: decision}); err != nil {
		return nil, err
	}

	arms := make([]string, len(branches))
	for i, b := range branches {
		arms[i] = d.AddNode(store.NodeInput{Label: b.Then, Type: schema.NodeTypeProcess})
		if _, err := d.AddEdge(store.EdgeInput{Source: decision, Target: arms[i], Label: b.When}); err != nil {
			return nil, err
		}
	}

	end := d.AddNode(store.NodeInput{Label: "End", Type: schema.NodeTypeEnd})
	for _, arm := range arms {
		if _, err := d.AddEdge(store.EdgeInput{Source: arm, Target: end}); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// DecisionTree builds a diagram from a nested yes/no tree. The root is
// reached from a start node; internal nodes become decisions with
// "yes"/"no" edge labels and leaves become end nodes. The tree is
// walked depth first, yes arm before no arm, so node and edge ids are
// stable for a given tree.
func DecisionTree(title string, root *DecisionNode) (*store.Diagram, error) {
	if root == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "a decision tree needs a root node")
	}

	d := store.New(schema.DiagramOptions{Title: title})
	start := d.AddNode(store.NodeInput{Label: "Start", Type: schema.NodeTypeStart})
	rootID, err := addSubtree(d, root)
	if err != nil {
		return nil, err
	}
	if _, err := d.AddEdge(store.EdgeInput{Source: start, Target: rootID}); err != nil {
		return nil, err
	}
	return d, nil
}

// addSubtree inserts the subtree rooted at node and returns its id.
func addSubtree(d *store.Diagram, node *DecisionNode) (string, error) {
	if node.Yes == nil && node.No == nil {
		return d.AddNode(store.NodeInput{Label: node.Text, Type: schema.NodeTypeEnd}), nil
	}

	id := d.AddNode(store.NodeInput{Label: node.Text, Type: schema.NodeTypeDecision})
	if node.Yes != nil {
		yesID, err := addSubtree(d, node.Yes)
		if err != nil {
			return "", err
		}
		if _, err := d.AddEdge(store.EdgeInput{Source: id, Target: yesID, Label: "yes"}); err != nil {
			return "", err
		}
	}
	if node.No != nil {
		noID, err := addSubtree(d, node.No)
		if err != nil {
			return "", err
		}
		if _, err := d.AddEdge(store.EdgeInput{Source: id, Target: noID, Label: "no"}); err != nil {
			return "", err
		}
	}
	return id, nil
}
