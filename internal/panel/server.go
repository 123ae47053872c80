// Package panel serves a read-only web view of the live diagram
// registry: a list page, a per-diagram page with the rendered SVG
// inline, and SSE streams that push change events to the browser.
package panel

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/internal/streaming"
)

//go:embed templates static
var content embed.FS

// PanelDeps holds the dependencies for the panel server.
type PanelDeps struct {
	Registry *store.Registry
	Hub      streaming.EventHub
	Logger   *slog.Logger
}

// PanelServer serves the web preview panel.
type PanelServer struct {
	deps  PanelDeps
	pages map[string]*template.Template
}

// NewPanelServer creates a new PanelServer with parsed templates.
func NewPanelServer(deps PanelDeps) *PanelServer {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	funcMap := template.FuncMap{
		"timeAgo":  timeAgo,
		"truncate": truncate,
		"shortID":  shortID,
	}

	// Parse shared templates (base layout + partials).
	base := template.Must(
		template.New("").Funcs(funcMap).ParseFS(content,
			"templates/base.html",
			"templates/partials/*.html",
		),
	)

	// Build per-page template sets. Each page clones the shared set
	// so that its {{define "content"}} doesn't collide with others.
	pageFiles := []string{
		"diagrams.html",
		"diagram_detail.html",
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, pf := range pageFiles {
		clone := template.Must(base.Clone())
		pages[pf] = template.Must(clone.ParseFS(content, "templates/"+pf))
	}

	return &PanelServer{
		deps:  deps,
		pages: pages,
	}
}

// Handler returns the HTTP handler for the panel routes.
func (s *PanelServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// Static files.
	staticFS, _ := fs.Sub(content, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Pages.
	mux.HandleFunc("GET /{$}", s.handleDiagrams)
	mux.HandleFunc("GET /diagrams/{id}", s.handleDiagramDetail)
	mux.HandleFunc("GET /diagrams/{id}/svg", s.handleDiagramSVG)

	// SSE streams.
	mux.HandleFunc("GET /sse/events", s.handleSSEGlobal)
	mux.HandleFunc("GET /sse/diagrams/{id}", s.handleSSEDiagram)

	// Read-only JSON API.
	mux.HandleFunc("GET /api/diagrams", s.handleListDiagrams)
	mux.HandleFunc("GET /api/diagrams/{id}", s.handleGetDiagram)

	return mux
}

// renderPage executes a page template by name.
func (s *PanelServer) renderPage(w http.ResponseWriter, page string, data any) {
	tmpl, ok := s.pages[page]
	if !ok {
		s.deps.Logger.Error("template not found", "page", page)
		http.Error(w, fmt.Sprintf("template %q not found", page), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		s.deps.Logger.Error("template render error", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
