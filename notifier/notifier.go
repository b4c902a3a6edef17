package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LegalDragon/Pickleball-Community-sub007/metrics"
)

type Kind string

const (
	KindJoinRequestCreated  Kind = "join_request_created"
	KindJoinRequestResolved Kind = "join_request_resolved"
	KindUnitsMerged         Kind = "units_merged"
	KindUnitWaitlisted      Kind = "unit_waitlisted"
	KindDrawingCompleted    Kind = "drawing_completed"
)

// Notification is a rendered message about a division. Recipients are email addresses and
// are ignored by channel-wide transports.
type Notification struct {
	Kind       Kind     `json:"kind"`
	DivisionID string   `json:"division_id"`
	Subject    string   `json:"subject"`
	Text       string   `json:"text"`
	Recipients []string `json:"recipients,omitempty"`
}

// Notifier delivers notifications over one transport.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// Multi sends every notification through all configured transports and joins their errors.
type Multi struct {
	notifiers []Notifier
	metrics   metrics.Metrics
	logger    *slog.Logger
}

var _ Notifier = (*Multi)(nil)

func NewMulti(m metrics.Metrics, logger *slog.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, metrics: m, logger: logger}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, target := range m.notifiers {
		if err := target.Notify(ctx, n); err != nil {
			m.metrics.IncNotificationsFailed(target.Name())
			m.logger.Error("Failed to send notification", "channel", target.Name(), "kind", n.Kind, "division_id", n.DivisionID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", target.Name(), err))
			continue
		}
		m.metrics.IncNotificationsSent(target.Name())
	}
	return errors.Join(errs...)
}

// Len reports how many transports are configured.
func (m *Multi) Len() int { return len(m.notifiers) }
