package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/events"
	"github.com/LegalDragon/Pickleball-Community-sub007/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type collector struct {
	mu   sync.Mutex
	seen []events.Envelope
	done chan struct{}
	want int
}

func newCollector(want int) *collector {
	return &collector{done: make(chan struct{}), want: want}
}

func (c *collector) handle(_ context.Context, env events.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, env)
	if len(c.seen) == c.want {
		close(c.done)
	}
	return nil
}

func (c *collector) wait(t *testing.T) []events.Envelope {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Envelope(nil), c.seen...)
}

func TestDispatcherDeliversToMatchingSubscribers(t *testing.T) {
	m := metrics.NewMock()
	d := events.NewDispatcher(8, discardLogger(), m)

	all := newCollector(2)
	drawsOnly := newCollector(1)
	d.Subscribe("all", all.handle)
	d.Subscribe("draws", drawsOnly.handle, events.TypeUnitDrawn)
	d.Subscribe("broken", func(context.Context, events.Envelope) error {
		return errors.New("boom")
	}, events.TypeUnitRegistered)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Publish(ctx,
		events.UnitRegistered{DivisionID: "div-1", UnitID: "u1"},
		events.UnitDrawn{DivisionID: "div-1", UnitID: "u1", UnitNumber: 3},
	)

	got := all.wait(t)
	require.Len(t, got, 2)
	assert.Equal(t, events.TypeUnitRegistered, got[0].Type)
	assert.Equal(t, "div-1", got[0].DivisionID)
	assert.NotEmpty(t, got[0].ID)

	draws := drawsOnly.wait(t)
	require.Len(t, draws, 1)
	drawn, ok := draws[0].Payload.(events.UnitDrawn)
	require.True(t, ok)
	assert.Equal(t, 3, drawn.UnitNumber)

	assert.Eventually(t, func() bool { return m.HandlerFailures("broken") == 1 }, time.Second, 10*time.Millisecond)
}

func TestFailingSubscriberDoesNotBlockOthers(t *testing.T) {
	m := metrics.NewMock()
	d := events.NewDispatcher(8, discardLogger(), m)

	d.Subscribe("email", func(context.Context, events.Envelope) error {
		return errors.New("smtp: connection refused")
	}, events.TypeJoinRequestCreated)
	after := newCollector(1)
	d.Subscribe("webhook", after.handle, events.TypeJoinRequestCreated)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Publish(ctx, events.JoinRequestCreated{DivisionID: "div-1"})

	require.Len(t, after.wait(t), 1)
	assert.Eventually(t, func() bool {
		return m.HandlerFailures("email") == 1 && m.EventsDispatched(string(events.TypeJoinRequestCreated)) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	m := metrics.NewMock()
	d := events.NewDispatcher(1, discardLogger(), m)

	d.Publish(context.Background(),
		events.DrawingCancelled{DivisionID: "a"},
		events.DrawingCancelled{DivisionID: "b"},
	)
	assert.Equal(t, 1, m.EventsDropped())
}

func TestDispatcherDrainsOnShutdown(t *testing.T) {
	m := metrics.NewMock()
	d := events.NewDispatcher(4, discardLogger(), m)
	c := newCollector(2)
	d.Subscribe("collector", c.handle)

	d.Publish(context.Background(),
		events.DrawingCancelled{DivisionID: "a"},
		events.DrawingCancelled{DivisionID: "b"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	assert.Len(t, c.wait(t), 2)
}
