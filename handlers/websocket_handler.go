package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/LegalDragon/Pickleball-Community-sub007/brackets"
	"github.com/LegalDragon/Pickleball-Community-sub007/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	responder
	hub      *brackets.Hub
	drawing  services.DrawingService
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts viewers from the given origins; "*" allows any.
func NewWebSocketHandler(hub *brackets.Hub, drawing services.DrawingService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return &WebSocketHandler{
		responder: responder{logger: logger},
		hub:       hub,
		drawing:   drawing,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// ServeWs handles GET /ws/divisions/{divisionID}. The viewer gets the current drawing state
// first, then live drawing messages.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	divisionID := urlParam(r, "divisionID")
	state, err := h.drawing.GetDrawingState(r.Context(), divisionID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	room := brackets.DivisionRoom(divisionID)
	initial, err := json.Marshal(brackets.WebSocketMessage{Type: services.MessageDrawingState, Payload: state, RoomID: room})
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade viewer connection", slog.String("division_id", divisionID), slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: room,
	}
	client.Send <- initial
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("Drawing viewer connected", slog.String("room", room))
}
