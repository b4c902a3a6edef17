package notifier

import (
	"context"
	"sync"
)

// Mock records notifications. It is safe for concurrent use.
type Mock struct {
	mu         sync.Mutex
	NotifyFunc func(ctx context.Context, n Notification) error
	Calls      []Notification
}

var _ Notifier = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Notify(ctx context.Context, n Notification) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, n)
	fn := m.NotifyFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, n)
	}
	return nil
}

func (m *Mock) Notifications() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.Calls...)
}
