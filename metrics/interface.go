package metrics

// Metrics is what the services report. Prometheus backs it in production and Mock in tests.
type Metrics interface {
	ObserveCommandDuration(command string, seconds float64)
	IncCommandFailed(command, kind string)
	IncVersionConflicts()
	IncUnitsRegistered(status string)
	IncJoinRequests(outcome string)
	IncUnitsMerged()
	IncUnitsDrawn()
	IncSchedulesGenerated(bracketType string)
	IncGamesFinished()
	IncEventsDispatched(eventType string)
	IncEventsDropped()
	IncEventHandlerFailed(handler string)
	IncNotificationsSent(channel string)
	IncNotificationsFailed(channel string)
	SetWebsocketClients(n int)
}
