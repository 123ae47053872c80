package panel

import (
	"html/template"
	"net/http"
	"sort"

	"github.com/jrmcauliffe00/flow-diagram/internal/render"
	"github.com/jrmcauliffe00/flow-diagram/internal/store"
)

// --- Page data types ---

type pageData struct {
	Title  string
	Active string
}

type diagramsData struct {
	pageData
	Diagrams []store.DiagramInfo
}

type diagramDetailData struct {
	pageData
	Info store.DiagramInfo
	SVG  template.HTML
}

// --- Page handlers ---

func (s *PanelServer) handleDiagrams(w http.ResponseWriter, r *http.Request) {
	infos := s.deps.Registry.List()
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastAccess.After(infos[j].LastAccess)
	})

	s.renderPage(w, "diagrams.html", diagramsData{
		pageData: pageData{Title: "Diagrams", Active: "diagrams"},
		Diagrams: infos,
	})
}

func (s *PanelServer) handleDiagramDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	d, release, ok := s.deps.Registry.Acquire(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	svg, err := render.Render(d, render.DefaultOptions())
	info := store.DiagramInfo{
		ID:        id,
		Title:     d.Options().Title,
		NodeCount: d.NodeCount(),
		EdgeCount: d.EdgeCount(),
	}
	release()
	if err != nil {
		s.deps.Logger.Error("render diagram page failed", "diagram_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	title := info.Title
	if title == "" {
		title = "Diagram"
	}
	s.renderPage(w, "diagram_detail.html", diagramDetailData{
		pageData: pageData{Title: title, Active: "diagrams"},
		Info:     info,
		SVG:      template.HTML(svg),
	})
}

// handleDiagramSVG returns the diagram as a bare SVG document. The detail
// page refetches this endpoint whenever the SSE stream reports a change.
func (s *PanelServer) handleDiagramSVG(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	opts := render.DefaultOptions()
	if theme := r.URL.Query().Get("theme"); theme != "" {
		opts.Theme = render.Theme(theme)
	}

	d, release, ok := s.deps.Registry.Acquire(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	svg, err := render.Render(d, opts)
	release()
	if err != nil {
		s.deps.Logger.Error("render svg failed", "diagram_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(svg))
}
