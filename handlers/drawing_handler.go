package handlers

import (
	"log/slog"
	"net/http"

	"github.com/LegalDragon/Pickleball-Community-sub007/services"
)

type DrawingHandler struct {
	responder
	drawing services.DrawingService
}

func NewDrawingHandler(drawing services.DrawingService, logger *slog.Logger) *DrawingHandler {
	return &DrawingHandler{responder: responder{logger: logger}, drawing: drawing}
}

func (h *DrawingHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.drawing.GetDrawingState(r.Context(), urlParam(r, "divisionID"))
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"drawing": state})
}

func (h *DrawingHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	state, err := h.drawing.StartDrawing(r.Context(), actor, urlParam(r, "divisionID"))
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"drawing": state})
}

func (h *DrawingHandler) Next(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	drawn, err := h.drawing.DrawNext(r.Context(), actor, urlParam(r, "divisionID"))
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"drawn": drawn})
}

func (h *DrawingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	result, err := h.drawing.CompleteDrawing(r.Context(), actor, urlParam(r, "divisionID"))
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"result": result})
}

func (h *DrawingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.drawing.CancelDrawing(r.Context(), actor, urlParam(r, "divisionID")); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignNumbers handles POST /divisions/{divisionID}/unit-numbers. Without a body the numbers
// are shuffled.
func (h *DrawingHandler) AssignNumbers(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var input struct {
		Numbers map[string]int `json:"numbers"`
	}
	if err := readOptionalJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	result, err := h.drawing.AssignUnitNumbers(r.Context(), actor, urlParam(r, "divisionID"), input.Numbers)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"result": result})
}
