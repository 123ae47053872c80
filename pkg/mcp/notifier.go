package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/jrmcauliffe00/flow-diagram/internal/streaming"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Notifier forwards diagram events to the MCP sessions watching the
// affected diagram. Delivery is best-effort: a disconnected session is
// dropped from the registry, never retried.
type Notifier struct {
	mcpServer *server.MCPServer
	sessions  *SessionRegistry
	hub       streaming.EventHub
	logger    *slog.Logger

	mu     sync.Mutex
	cancel func()
	done   chan struct{}
}

// NewNotifier creates a notifier that pushes hub events over MCP.
func NewNotifier(mcpServer *server.MCPServer, sessions *SessionRegistry, hub streaming.EventHub, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		mcpServer: mcpServer,
		sessions:  sessions,
		hub:       hub,
		logger:    logger,
	}
}

// Start subscribes to the hub and forwards events until ctx is cancelled
// or Stop is called.
func (n *Notifier) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	events, unsubscribe, err := n.hub.Subscribe(ctx, streaming.EventFilter{})
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	n.mu.Lock()
	n.cancel = cancel
	n.done = done
	n.mu.Unlock()

	go func() {
		defer close(done)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				n.forward(ev)
			}
		}
	}()
	return nil
}

// Stop cancels the hub subscription and waits for the forwarding
// goroutine to exit. Safe to call without a prior Start.
func (n *Notifier) Stop() {
	n.mu.Lock()
	cancel, done := n.cancel, n.done
	n.cancel, n.done = nil, nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// forward pushes one event to every session tracking its diagram. When
// the diagram itself went away, the sessions are forgotten afterwards so
// stale ids stop resolving.
func (n *Notifier) forward(ev streaming.StreamEvent) {
	payload := map[string]any{
		"diagram_id": ev.DiagramID,
		"event_type": ev.EventType,
	}
	if ev.ElementID != "" {
		payload["element_id"] = ev.ElementID
	}
	if ev.Payload != nil {
		payload["payload"] = ev.Payload
	}

	for _, sid := range n.sessions.SessionsFor(ev.DiagramID) {
		err := n.mcpServer.SendNotificationToSpecificClient(sid, "notifications/message", payload)
		if errors.Is(err, server.ErrSessionNotFound) {
			n.sessions.Remove(sid)
			continue
		}
		if err != nil {
			n.logger.Debug("notification dropped",
				slog.String("session_id", sid),
				slog.String("diagram_id", ev.DiagramID),
				slog.String("event_type", ev.EventType),
				slog.String("error", err.Error()),
			)
		}
	}

	if ev.EventType == schema.EventDiagramRemoved || ev.EventType == schema.EventDiagramExpired {
		n.sessions.Forget(ev.DiagramID)
	}
}
