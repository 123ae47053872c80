package expressions

import "context"

// Engine evaluates selector expressions against diagram data.
// Three implementations: Expr (default node/edge selectors), CEL
// (alternate selector syntax), GoJQ (snapshot queries).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
