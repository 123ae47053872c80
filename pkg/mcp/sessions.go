package mcp

import "sync"

// SessionRegistry tracks the diagram each MCP session touched last.
// Populated automatically on every tool call that resolves a diagram, so
// follow-up calls in the same session may omit diagram_id.
type SessionRegistry struct {
	mu      sync.RWMutex
	current map[string]string // sessionID → diagramID
}

// NewSessionRegistry creates a new empty SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{current: make(map[string]string)}
}

// Touch records the diagram a session is working on, replacing any
// previous mapping for that session.
func (r *SessionRegistry) Touch(sessionID, diagramID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current[sessionID] = diagramID
}

// CurrentDiagram returns the diagram the session touched last, if any.
func (r *SessionRegistry) CurrentDiagram(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.current[sessionID]
	return id, ok
}

// SessionsFor returns every session currently pointed at the diagram.
func (r *SessionRegistry) SessionsFor(diagramID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sessions []string
	for sid, did := range r.current {
		if did == diagramID {
			sessions = append(sessions, sid)
		}
	}
	return sessions
}

// Remove deletes the mapping for a session. Called when a session
// disconnects.
func (r *SessionRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.current, sessionID)
}

// Forget clears every session mapping that points at the diagram.
// Called when a diagram is deleted or expires.
func (r *SessionRegistry) Forget(diagramID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sid, did := range r.current {
		if did == diagramID {
			delete(r.current, sid)
		}
	}
}

// Len returns the number of tracked sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.current)
}
