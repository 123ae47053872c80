package panel

import (
	"net/http"
	"sort"
)

// handleListDiagrams returns summary info for every registered diagram.
func (s *PanelServer) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	infos := s.deps.Registry.List()
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastAccess.After(infos[j].LastAccess)
	})

	limit := queryInt(r, "limit", 100)
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(infos),
		"diagrams": infos,
	})
}

// handleGetDiagram returns the full snapshot of one diagram.
func (s *PanelServer) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	d, release, ok := s.deps.Registry.Acquire(id)
	if !ok {
		writeError(w, http.StatusNotFound, "diagram not found: "+id)
		return
	}
	snap := d.Snapshot()
	release()

	writeJSON(w, http.StatusOK, snap)
}
