package render

import (
	"encoding/json"
	"time"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// jsonMetadata describes one structured render invocation.
type jsonMetadata struct {
	NodeCount   int    `json:"node_count"`
	EdgeCount   int    `json:"edge_count"`
	GeneratedAt string `json:"generated_at"`
	Format      string `json:"format"`
	Theme       string `json:"theme"`
}

// jsonDocument is the structured render output: a complete re-loadable
// snapshot plus descriptive metadata.
type jsonDocument struct {
	Title    string                `json:"title,omitempty"`
	Options  schema.DiagramOptions `json:"options"`
	Nodes    []schema.Node         `json:"nodes"`
	Edges    []schema.Edge         `json:"edges"`
	Metadata jsonMetadata          `json:"metadata"`
}

func renderJSON(d *store.Diagram, opts Options) (string, error) {
	theme := opts.Theme
	if theme == "" {
		theme = ThemeLight
	}

	snap := d.Snapshot()
	doc := jsonDocument{
		Title:   snap.Options.Title,
		Options: snap.Options,
		Nodes:   snap.Nodes,
		Edges:   snap.Edges,
		Metadata: jsonMetadata{
			NodeCount:   len(snap.Nodes),
			EdgeCount:   len(snap.Edges),
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Format:      string(opts.Format),
			Theme:       string(theme),
		},
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", schema.NewError(schema.ErrCodeRender, "encode structured output").WithCause(err)
	}
	return string(out) + "\n", nil
}
