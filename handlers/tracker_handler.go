package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/LegalDragon/Pickleball-Community-sub007/services"
)

type TrackerHandler struct {
	responder
	tracker services.TrackerService
}

func NewTrackerHandler(tracker services.TrackerService, logger *slog.Logger) *TrackerHandler {
	return &TrackerHandler{responder: responder{logger: logger}, tracker: tracker}
}

func (h *TrackerHandler) gameResult(w http.ResponseWriter, r *http.Request, game *models.Game, err error) {
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"game": game})
}

func (h *TrackerHandler) readScore(w http.ResponseWriter, r *http.Request) (services.ScoreInput, bool) {
	var input services.ScoreInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return input, false
	}
	return input, true
}

func (h *TrackerHandler) CreateCourt(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var input struct {
		Label string `json:"label"`
	}
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	court, err := h.tracker.CreateCourt(r.Context(), actor, urlParam(r, "divisionID"), input.Label)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, jsonResponse{"court": court})
}

func (h *TrackerHandler) ListCourts(w http.ResponseWriter, r *http.Request) {
	courts, err := h.tracker.ListCourts(r.Context(), urlParam(r, "divisionID"))
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"courts": courts})
}

func (h *TrackerHandler) Queue(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var input struct {
		CourtID string `json:"court_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if input.CourtID == "" {
		h.badRequestResponse(w, r, errors.New("court_id is required"))
		return
	}
	game, err := h.tracker.QueueGame(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "gameID"), input.CourtID)
	h.gameResult(w, r, game, err)
}

func (h *TrackerHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	game, err := h.tracker.StartGame(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "gameID"))
	h.gameResult(w, r, game, err)
}

func (h *TrackerHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	score, ok := h.readScore(w, r)
	if !ok {
		return
	}
	game, err := h.tracker.SubmitScore(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "gameID"), score)
	h.gameResult(w, r, game, err)
}

func (h *TrackerHandler) ConfirmScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	game, err := h.tracker.ConfirmScore(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "gameID"))
	h.gameResult(w, r, game, err)
}

func (h *TrackerHandler) DisputeScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var input struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	game, err := h.tracker.DisputeScore(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "gameID"), input.Reason)
	h.gameResult(w, r, game, err)
}

func (h *TrackerHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	score, ok := h.readScore(w, r)
	if !ok {
		return
	}
	game, err := h.tracker.ResolveDispute(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "gameID"), score)
	h.gameResult(w, r, game, err)
}
