package render

// Theme selects the default color set for the vector formats.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// palette is the resolved color set for one theme. Per-element style
// overrides win over these defaults.
type palette struct {
	Background string
	Grid       string
	NodeFill   string
	NodeStroke string
	NodeText   string
	EdgeStroke string
	EdgeText   string
}

var lightPalette = palette{
	Background: "#ffffff",
	Grid:       "#e5e7eb",
	NodeFill:   "#f8fafc",
	NodeStroke: "#334155",
	NodeText:   "#1e293b",
	EdgeStroke: "#475569",
	EdgeText:   "#475569",
}

var darkPalette = palette{
	Background: "#0f172a",
	Grid:       "#1e293b",
	NodeFill:   "#1e293b",
	NodeStroke: "#94a3b8",
	NodeText:   "#e2e8f0",
	EdgeStroke: "#94a3b8",
	EdgeText:   "#cbd5e1",
}

// themePalette resolves a theme name; anything other than dark gets light.
func themePalette(t Theme) palette {
	if t == ThemeDark {
		return darkPalette
	}
	return lightPalette
}
