package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/metrics"
	"github.com/google/uuid"
)

// Publisher accepts events once the producing transaction has committed.
type Publisher interface {
	Publish(ctx context.Context, evts ...Event)
}

type Handler func(ctx context.Context, env Envelope) error

type subscription struct {
	name    string
	types   map[Type]bool
	handler Handler
}

func (s subscription) wants(t Type) bool {
	return len(s.types) == 0 || s.types[t]
}

// Dispatcher fans events out to subscribers on a background worker. Publish never blocks:
// when the queue is full the event is dropped and counted.
type Dispatcher struct {
	queue   chan Envelope
	logger  *slog.Logger
	metrics metrics.Metrics
	now     func() time.Time

	mu   sync.RWMutex
	subs []subscription
}

func NewDispatcher(queueSize int, logger *slog.Logger, m metrics.Metrics) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		queue:   make(chan Envelope, queueSize),
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Subscribe registers a handler for the given types, or for every type when none are given.
func (d *Dispatcher) Subscribe(name string, h Handler, types ...Type) {
	set := make(map[Type]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	d.mu.Lock()
	d.subs = append(d.subs, subscription{name: name, types: set, handler: h})
	d.mu.Unlock()
}

func (d *Dispatcher) Publish(_ context.Context, evts ...Event) {
	for _, e := range evts {
		env := Envelope{
			ID:         uuid.NewString(),
			Type:       e.EventType(),
			DivisionID: e.Division(),
			OccurredAt: d.now().UTC(),
			Payload:    e,
		}
		select {
		case d.queue <- env:
		default:
			d.metrics.IncEventsDropped()
			d.logger.Warn("Event queue full, dropping event", "type", env.Type, "division_id", env.DivisionID)
		}
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is already queued.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case env := <-d.queue:
			d.deliver(ctx, env)
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for {
				select {
				case env := <-d.queue:
					d.deliver(drainCtx, env)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, env Envelope) {
	d.mu.RLock()
	subs := append([]subscription(nil), d.subs...)
	d.mu.RUnlock()

	for _, s := range subs {
		if !s.wants(env.Type) {
			continue
		}
		if err := s.handler(ctx, env); err != nil {
			d.metrics.IncEventHandlerFailed(s.name)
			d.logger.Warn("Event handler failed", "handler", s.name, "type", env.Type, "division_id", env.DivisionID, "error", err)
		}
	}
	d.metrics.IncEventsDispatched(string(env.Type))
}
