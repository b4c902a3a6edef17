package handlers

import (
	"log/slog"
	"net/http"

	"github.com/LegalDragon/Pickleball-Community-sub007/services"
)

type ScheduleHandler struct {
	responder
	schedule services.ScheduleService
	reads    services.ReadService
}

func NewScheduleHandler(schedule services.ScheduleService, reads services.ReadService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{responder: responder{logger: logger}, schedule: schedule, reads: reads}
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.schedule.GetSchedule(r.Context(), urlParam(r, "divisionID"))
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"schedule": view})
}

// Generate handles POST /divisions/{divisionID}/schedule. Body fields override the stored
// configuration.
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var input services.GenerateScheduleInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	input.DivisionID = urlParam(r, "divisionID")
	view, err := h.schedule.GenerateSchedule(r.Context(), actor, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, jsonResponse{"schedule": view})
}

func (h *ScheduleHandler) Clear(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.schedule.ClearSchedule(r.Context(), actor, urlParam(r, "divisionID")); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ScheduleHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	division, err := h.schedule.FinalizeSchedule(r.Context(), actor, urlParam(r, "divisionID"))
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"division": division})
}

func (h *ScheduleHandler) SeedPlayoff(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	view, err := h.schedule.SeedPlayoff(r.Context(), actor, urlParam(r, "divisionID"))
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"schedule": view})
}

func (h *ScheduleHandler) Standings(w http.ResponseWriter, r *http.Request) {
	pools, err := h.schedule.PoolStandings(r.Context(), urlParam(r, "divisionID"))
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"pools": pools})
}

// AssignMatchUnits handles PUT /divisions/{divisionID}/matches/{matchID}/units.
func (h *ScheduleHandler) AssignMatchUnits(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var input struct {
		Unit1ID *string `json:"unit1_id"`
		Unit2ID *string `json:"unit2_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	match, err := h.schedule.AssignMatchUnits(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "matchID"), input.Unit1ID, input.Unit2ID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

func (h *ScheduleHandler) MatchScore(w http.ResponseWriter, r *http.Request) {
	score, err := h.reads.MatchScore(r.Context(), urlParam(r, "divisionID"), urlParam(r, "matchID"))
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"match": score})
}
