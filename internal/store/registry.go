package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Registry manages the set of live diagrams and serializes access to
// each one. Diagram instances carry no locking of their own, so every
// caller that mutates or reads a diagram must go through Acquire.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	logger  *slog.Logger
}

type registryEntry struct {
	mu         sync.Mutex
	diagram    *Diagram
	createdAt  time.Time
	lastAccess time.Time
}

// NewRegistry creates an empty diagram registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]*registryEntry),
		logger:  logger,
	}
}

// Create registers a new empty diagram and returns its id.
func (r *Registry) Create(opts schema.DiagramOptions) string {
	return r.Insert(New(opts))
}

// Insert registers an existing diagram (e.g. an imported one) under a
// fresh id.
func (r *Registry) Insert(d *Diagram) string {
	id := uuid.New().String()
	now := time.Now().UTC()

	r.mu.Lock()
	r.entries[id] = &registryEntry{
		diagram:    d,
		createdAt:  now,
		lastAccess: now,
	}
	r.mu.Unlock()

	r.logger.Debug("diagram registered", slog.String("diagram_id", id))
	return id
}

// Acquire locks the diagram with the given id for exclusive use and
// returns it with a release function. Reports false if the id is
// unknown. Callers must invoke release when done.
func (r *Registry) Acquire(id string) (*Diagram, func(), bool) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return nil, nil, false
	}

	entry.mu.Lock()
	entry.lastAccess = time.Now().UTC()
	return entry.diagram, entry.mu.Unlock, true
}

// List returns summary information for every registered diagram.
func (r *Registry) List() []DiagramInfo {
	r.mu.Lock()
	ids := make([]string, 0, len(r.entries))
	entries := make([]*registryEntry, 0, len(r.entries))
	for id, e := range r.entries {
		ids = append(ids, id)
		entries = append(entries, e)
	}
	r.mu.Unlock()

	infos := make([]DiagramInfo, 0, len(entries))
	for i, e := range entries {
		e.mu.Lock()
		infos = append(infos, DiagramInfo{
			ID:         ids[i],
			Title:      e.diagram.Options().Title,
			NodeCount:  e.diagram.NodeCount(),
			EdgeCount:  e.diagram.EdgeCount(),
			CreatedAt:  e.createdAt,
			LastAccess: e.lastAccess,
		})
		e.mu.Unlock()
	}
	return infos
}

// Delete removes a diagram from the registry. Reports false if the id
// is unknown.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// SweepIdle removes every diagram whose last access is older than
// maxIdle and returns the removed ids. Used by the janitor.
func (r *Registry) SweepIdle(maxIdle time.Duration) []string {
	cutoff := time.Now().UTC().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id, e := range r.entries {
		e.mu.Lock()
		idle := e.lastAccess.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(r.entries, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// Len returns the number of registered diagrams.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
