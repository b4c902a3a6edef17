package metrics

import "sync"

var _ Metrics = (*Mock)(nil)

// Mock records calls in memory. It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	durations        map[string][]float64
	failures         map[string]int
	versionConflicts int
	unitsRegistered  map[string]int
	joinRequests     map[string]int
	unitsMerged      int
	unitsDrawn       int
	schedules        map[string]int
	gamesFinished    int
	eventsDispatched map[string]int
	eventsDropped    int
	handlerFailures  map[string]int
	notifSent        map[string]int
	notifFailed      map[string]int
	websocketClients int
}

func NewMock() *Mock {
	return &Mock{
		durations:        make(map[string][]float64),
		failures:         make(map[string]int),
		unitsRegistered:  make(map[string]int),
		joinRequests:     make(map[string]int),
		schedules:        make(map[string]int),
		eventsDispatched: make(map[string]int),
		handlerFailures:  make(map[string]int),
		notifSent:        make(map[string]int),
		notifFailed:      make(map[string]int),
	}
}

func (m *Mock) ObserveCommandDuration(command string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[command] = append(m.durations[command], seconds)
}

func (m *Mock) IncCommandFailed(command, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[command+"/"+kind]++
}

func (m *Mock) IncVersionConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versionConflicts++
}

func (m *Mock) IncUnitsRegistered(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unitsRegistered[status]++
}

func (m *Mock) IncJoinRequests(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joinRequests[outcome]++
}

func (m *Mock) IncUnitsMerged() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unitsMerged++
}

func (m *Mock) IncUnitsDrawn() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unitsDrawn++
}

func (m *Mock) IncSchedulesGenerated(bracketType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[bracketType]++
}

func (m *Mock) IncGamesFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gamesFinished++
}

func (m *Mock) IncEventsDispatched(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsDispatched[eventType]++
}

func (m *Mock) IncEventsDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsDropped++
}

func (m *Mock) IncEventHandlerFailed(handler string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlerFailures[handler]++
}

func (m *Mock) IncNotificationsSent(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifSent[channel]++
}

func (m *Mock) IncNotificationsFailed(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifFailed[channel]++
}

func (m *Mock) SetWebsocketClients(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.websocketClients = n
}

// CommandRuns returns how many durations were observed for the command.
func (m *Mock) CommandRuns(command string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.durations[command])
}

func (m *Mock) CommandFailures(command, kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[command+"/"+kind]
}

func (m *Mock) VersionConflicts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versionConflicts
}

func (m *Mock) UnitsRegistered(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unitsRegistered[status]
}

func (m *Mock) JoinRequests(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.joinRequests[outcome]
}

func (m *Mock) UnitsMerged() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unitsMerged
}

func (m *Mock) UnitsDrawn() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unitsDrawn
}

func (m *Mock) GamesFinished() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gamesFinished
}

func (m *Mock) EventsDispatched(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsDispatched[eventType]
}

func (m *Mock) EventsDropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsDropped
}

func (m *Mock) HandlerFailures(handler string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handlerFailures[handler]
}

func (m *Mock) NotificationsSent(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifSent[channel]
}

func (m *Mock) NotificationsFailed(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifFailed[channel]
}
