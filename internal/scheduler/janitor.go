// Package scheduler runs the registry janitor: a cron-driven background
// loop that evicts diagrams nobody has touched for a while and notifies
// subscribers through the event hub.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/internal/streaming"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// Janitor sweeps idle diagrams out of the registry on a cron schedule.
type Janitor struct {
	registry *store.Registry
	hub      streaming.EventHub
	schedule cron.Schedule
	maxIdle  time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewJanitor creates a Janitor. cronExpr uses the standard five-field
// cron syntax; maxIdle is how long a diagram may go untouched before a
// sweep evicts it. The expression is parsed eagerly so misconfiguration
// fails at startup, not at the first sweep.
func NewJanitor(registry *store.Registry, hub streaming.EventHub, cronExpr string, maxIdle time.Duration, logger *slog.Logger) (*Janitor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse janitor schedule %q: %w", cronExpr, err)
	}

	return &Janitor{
		registry: registry,
		hub:      hub,
		schedule: schedule,
		maxIdle:  maxIdle,
		logger:   logger,
	}, nil
}

// NextSweep returns the first sweep time after from.
func (j *Janitor) NextSweep(from time.Time) time.Time {
	return j.schedule.Next(from)
}

// Start launches the background sweep loop.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.done != nil {
		j.mu.Unlock()
		return fmt.Errorf("janitor already started")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.done = make(chan struct{})
	j.mu.Unlock()

	go j.loop(loopCtx)
	j.logger.Info("janitor started",
		slog.Time("next_sweep", j.NextSweep(time.Now())),
		slog.Duration("max_idle", j.maxIdle),
	)
	return nil
}

func (j *Janitor) loop(ctx context.Context) {
	defer close(j.done)

	for {
		timer := time.NewTimer(time.Until(j.schedule.Next(time.Now())))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.sweep(ctx)
		}
	}
}

// SweepNow runs a single sweep immediately, outside the cron cadence,
// and returns the evicted diagram ids.
func (j *Janitor) SweepNow(ctx context.Context) []string {
	return j.sweep(ctx)
}

// sweep evicts idle diagrams and publishes an expiry event per eviction.
func (j *Janitor) sweep(ctx context.Context) []string {
	removed := j.registry.SweepIdle(j.maxIdle)
	if len(removed) == 0 {
		return nil
	}

	for _, id := range removed {
		if err := j.hub.Publish(ctx, streaming.StreamEvent{
			DiagramID: id,
			EventType: schema.EventDiagramExpired,
			Payload:   map[string]any{"max_idle": j.maxIdle.String()},
		}); err != nil {
			j.logger.Error("failed to publish expiry event",
				slog.String("diagram_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	j.logger.Info("swept idle diagrams", slog.Int("count", len(removed)))
	return removed
}

// Stop gracefully shuts down the janitor.
func (j *Janitor) Stop() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancel == nil {
		return nil
	}

	j.cancel()
	<-j.done
	j.cancel = nil
	j.done = nil

	j.logger.Info("janitor stopped")
	return nil
}
