package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

type Service struct {
	CommandDuration     *prometheus.HistogramVec
	CommandFailed       *prometheus.CounterVec
	VersionConflicts    prometheus.Counter
	UnitsRegistered     *prometheus.CounterVec
	JoinRequests        *prometheus.CounterVec
	UnitsMerged         prometheus.Counter
	UnitsDrawn          prometheus.Counter
	SchedulesGenerated  *prometheus.CounterVec
	GamesFinished       prometheus.Counter
	EventsDispatched    *prometheus.CounterVec
	EventsDropped       prometheus.Counter
	EventHandlerFailed  *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	WebsocketClients    prometheus.Gauge
}

// NewMetricsHandler returns an http.Handler for the given Gatherer, or the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus collectors.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "division_command_duration_seconds",
			Help:    "Duration of division commands including retries.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"command"}),
		CommandFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "division_command_failures_total",
			Help: "Division commands rejected or failed, by error kind.",
		}, []string{"command", "kind"}),
		VersionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "division_version_conflicts_total",
			Help: "Saves retried because another writer committed first.",
		}),
		UnitsRegistered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "division_units_registered_total",
			Help: "Units created, by initial status.",
		}, []string{"status"}),
		JoinRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "division_join_requests_total",
			Help: "Join requests by outcome.",
		}, []string{"outcome"}),
		UnitsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "division_units_merged_total",
			Help: "Units absorbed by a merge.",
		}),
		UnitsDrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "division_units_drawn_total",
			Help: "Units drawn during live drawings.",
		}),
		SchedulesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "division_schedules_generated_total",
			Help: "Schedules generated, by bracket type.",
		}, []string{"bracket_type"}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "division_games_finished_total",
			Help: "Games with a confirmed score.",
		}),
		EventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "division_events_dispatched_total",
			Help: "Domain events delivered to subscribers.",
		}, []string{"type"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "division_events_dropped_total",
			Help: "Domain events dropped because the queue was full.",
		}),
		EventHandlerFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "division_event_handler_failures_total",
			Help: "Subscriber errors, by subscriber.",
		}, []string{"handler"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "division_notifications_sent_total",
			Help: "Notifications delivered, by channel.",
		}, []string{"channel"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "division_notifications_failed_total",
			Help: "Notifications that could not be delivered, by channel.",
		}, []string{"channel"}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "division_websocket_clients",
			Help: "Currently connected drawing viewers.",
		}),
	}

	reg.MustRegister(
		s.CommandDuration,
		s.CommandFailed,
		s.VersionConflicts,
		s.UnitsRegistered,
		s.JoinRequests,
		s.UnitsMerged,
		s.UnitsDrawn,
		s.SchedulesGenerated,
		s.GamesFinished,
		s.EventsDispatched,
		s.EventsDropped,
		s.EventHandlerFailed,
		s.NotificationsSent,
		s.NotificationsFailed,
		s.WebsocketClients,
	)

	return s
}

func (s *Service) ObserveCommandDuration(command string, seconds float64) {
	s.CommandDuration.WithLabelValues(command).Observe(seconds)
}

func (s *Service) IncCommandFailed(command, kind string) {
	s.CommandFailed.WithLabelValues(command, kind).Inc()
}

func (s *Service) IncVersionConflicts() {
	s.VersionConflicts.Inc()
}

func (s *Service) IncUnitsRegistered(status string) {
	s.UnitsRegistered.WithLabelValues(status).Inc()
}

func (s *Service) IncJoinRequests(outcome string) {
	s.JoinRequests.WithLabelValues(outcome).Inc()
}

func (s *Service) IncUnitsMerged() {
	s.UnitsMerged.Inc()
}

func (s *Service) IncUnitsDrawn() {
	s.UnitsDrawn.Inc()
}

func (s *Service) IncSchedulesGenerated(bracketType string) {
	s.SchedulesGenerated.WithLabelValues(bracketType).Inc()
}

func (s *Service) IncGamesFinished() {
	s.GamesFinished.Inc()
}

func (s *Service) IncEventsDispatched(eventType string) {
	s.EventsDispatched.WithLabelValues(eventType).Inc()
}

func (s *Service) IncEventsDropped() {
	s.EventsDropped.Inc()
}

func (s *Service) IncEventHandlerFailed(handler string) {
	s.EventHandlerFailed.WithLabelValues(handler).Inc()
}

func (s *Service) IncNotificationsSent(channel string) {
	s.NotificationsSent.WithLabelValues(channel).Inc()
}

func (s *Service) IncNotificationsFailed(channel string) {
	s.NotificationsFailed.WithLabelValues(channel).Inc()
}

func (s *Service) SetWebsocketClients(n int) {
	s.WebsocketClients.Set(float64(n))
}
