package render

import (
	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Format names one supported output encoding.
type Format string

const (
	FormatSVG     Format = "svg"
	FormatHTML    Format = "html"
	FormatMermaid Format = "mermaid"
	FormatJSON    Format = "json"
	FormatDOT     Format = "dot"
)

// Direction controls which axis the layout flows along. Horizontal swaps
// every node's x/y before any further geometry.
type Direction string

const (
	DirectionVertical   Direction = "vertical"
	DirectionHorizontal Direction = "horizontal"
)

// Options is the render option bundle.
type Options struct {
	Format     Format
	Theme      Theme
	Direction  Direction
	ShowLabels bool
	ShowGrid   bool
}

// DefaultOptions returns the options used when a caller specifies nothing:
// SVG, light theme, vertical flow, edge labels on, grid off.
func DefaultOptions() Options {
	return Options{
		Format:     FormatSVG,
		Theme:      ThemeLight,
		Direction:  DirectionVertical,
		ShowLabels: true,
	}
}

// Formats lists every value accepted by Render.
func Formats() []Format {
	return []Format{FormatSVG, FormatHTML, FormatMermaid, FormatJSON, FormatDOT}
}

// Render produces one self-contained string in the requested format. The
// diagram is never mutated. Unsupported formats fail with an explicit error.
func Render(d *store.Diagram, opts Options) (string, error) {
	switch opts.Format {
	case FormatSVG:
		return renderSVG(d, opts), nil
	case FormatHTML:
		return renderHTML(d, opts), nil
	case FormatMermaid:
		return renderMermaid(d), nil
	case FormatJSON:
		return renderJSON(d, opts)
	case FormatDOT:
		return renderDOT(d, opts), nil
	default:
		return "", schema.NewErrorf(schema.ErrCodeUnsupportedFormat, "unsupported render format: %s", opts.Format)
	}
}
