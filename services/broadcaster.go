package services

import (
	"sync"

	"github.com/LegalDragon/Pickleball-Community-sub007/brackets"
)

const (
	MessageDrawingStarted   = "DRAWING_STARTED"
	MessageUnitDrawn        = "UNIT_DRAWN"
	MessageDrawingCompleted = "DRAWING_COMPLETED"
	MessageDrawingCancelled = "DRAWING_CANCELLED"
	MessageDrawingState     = "DRAWING_STATE"
)

// DrawingBroadcaster pushes drawing progress to live viewers. Delivery is fire and forget;
// viewers resync from GetDrawingState.
type DrawingBroadcaster interface {
	BroadcastDrawingStarted(divisionID string, state *DrawingStateView)
	BroadcastUnitDrawn(divisionID string, unit DrawnUnit)
	BroadcastDrawingCompleted(divisionID string, result *DrawingResult)
	BroadcastDrawingCancelled(divisionID string)
}

type HubBroadcaster struct {
	hub *brackets.Hub
}

func NewHubBroadcaster(hub *brackets.Hub) *HubBroadcaster {
	return &HubBroadcaster{hub: hub}
}

func (b *HubBroadcaster) send(divisionID, msgType string, payload any) {
	room := brackets.DivisionRoom(divisionID)
	b.hub.BroadcastToRoom(room, brackets.WebSocketMessage{Type: msgType, Payload: payload, RoomID: room})
}

func (b *HubBroadcaster) BroadcastDrawingStarted(divisionID string, state *DrawingStateView) {
	b.send(divisionID, MessageDrawingStarted, state)
}

func (b *HubBroadcaster) BroadcastUnitDrawn(divisionID string, unit DrawnUnit) {
	b.send(divisionID, MessageUnitDrawn, unit)
}

func (b *HubBroadcaster) BroadcastDrawingCompleted(divisionID string, result *DrawingResult) {
	b.send(divisionID, MessageDrawingCompleted, result)
}

func (b *HubBroadcaster) BroadcastDrawingCancelled(divisionID string) {
	b.send(divisionID, MessageDrawingCancelled, map[string]string{"division_id": divisionID})
}

type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastDrawingStarted(string, *DrawingStateView) {}
func (NoopBroadcaster) BroadcastUnitDrawn(string, DrawnUnit)              {}
func (NoopBroadcaster) BroadcastDrawingCompleted(string, *DrawingResult)  {}
func (NoopBroadcaster) BroadcastDrawingCancelled(string)                  {}

// BroadcastCall is one recorded broadcast.
type BroadcastCall struct {
	Type       string
	DivisionID string
	Payload    any
}

type BroadcasterMock struct {
	mu    sync.Mutex
	calls []BroadcastCall
}

func NewBroadcasterMock() *BroadcasterMock {
	return &BroadcasterMock{}
}

func (m *BroadcasterMock) record(msgType, divisionID string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, BroadcastCall{Type: msgType, DivisionID: divisionID, Payload: payload})
}

func (m *BroadcasterMock) BroadcastDrawingStarted(divisionID string, state *DrawingStateView) {
	m.record(MessageDrawingStarted, divisionID, state)
}

func (m *BroadcasterMock) BroadcastUnitDrawn(divisionID string, unit DrawnUnit) {
	m.record(MessageUnitDrawn, divisionID, unit)
}

func (m *BroadcasterMock) BroadcastDrawingCompleted(divisionID string, result *DrawingResult) {
	m.record(MessageDrawingCompleted, divisionID, result)
}

func (m *BroadcasterMock) BroadcastDrawingCancelled(divisionID string) {
	m.record(MessageDrawingCancelled, divisionID, nil)
}

func (m *BroadcasterMock) Calls() []BroadcastCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BroadcastCall(nil), m.calls...)
}

// Types lists the recorded message types in order.
func (m *BroadcasterMock) Types() []string {
	var out []string
	for _, c := range m.Calls() {
		out = append(out, c.Type)
	}
	return out
}
