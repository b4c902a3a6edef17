package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/LegalDragon/Pickleball-Community-sub007/services"
)

type UnitHandler struct {
	responder
	units services.UnitService
	reads services.ReadService
}

func NewUnitHandler(units services.UnitService, reads services.ReadService, logger *slog.Logger) *UnitHandler {
	return &UnitHandler{responder: responder{logger: logger}, units: units, reads: reads}
}

type acceptInput struct {
	Accept *bool `json:"accept"`
}

func (in acceptInput) value() (bool, error) {
	if in.Accept == nil {
		return false, errors.New("accept is required")
	}
	return *in.Accept, nil
}

// readAccept decodes {"accept": bool}.
func (h *UnitHandler) readAccept(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var input acceptInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return false, false
	}
	accept, err := input.value()
	if err != nil {
		h.badRequestResponse(w, r, err)
		return false, false
	}
	return accept, true
}

func (h *UnitHandler) unitResult(w http.ResponseWriter, r *http.Request, status int, snap *services.UnitSnapshot, err error) {
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, status, jsonResponse{"unit": snap})
}

func (h *UnitHandler) joinResult(w http.ResponseWriter, r *http.Request, status int, res *services.JoinResult, err error) {
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, status, jsonResponse{"result": res})
}

// Summary handles GET /divisions/{divisionID}.
func (h *UnitHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reads.DivisionSummary(r.Context(), urlParam(r, "divisionID"))
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"division": summary})
}

// SetRegistration handles PUT /divisions/{divisionID}/registration.
func (h *UnitHandler) SetRegistration(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var input struct {
		Open *bool `json:"open"`
	}
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if input.Open == nil {
		h.badRequestResponse(w, r, errors.New("open is required"))
		return
	}
	division, err := h.units.SetRegistrationOpen(r.Context(), actor, urlParam(r, "divisionID"), *input.Open)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"division": division})
}

// Register handles POST /divisions/{divisionID}/units.
func (h *UnitHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var input services.RegisterUnitInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	input.DivisionID = urlParam(r, "divisionID")
	snap, err := h.units.RegisterUnit(r.Context(), actor, input)
	h.unitResult(w, r, http.StatusCreated, snap, err)
}

// Unregister handles DELETE /divisions/{divisionID}/registration/me.
func (h *UnitHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.units.UnregisterFromDivision(r.Context(), actor, urlParam(r, "divisionID")); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /divisions/{divisionID}/units/{unitID}.
func (h *UnitHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.reads.UnitSnapshot(r.Context(), urlParam(r, "divisionID"), urlParam(r, "unitID"))
	h.unitResult(w, r, http.StatusOK, snap, err)
}

// RespondToInvite handles POST /divisions/{divisionID}/units/{unitID}/invite.
func (h *UnitHandler) RespondToInvite(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	accept, ok := h.readAccept(w, r)
	if !ok {
		return
	}
	snap, err := h.units.RespondToInvite(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "unitID"), accept)
	h.unitResult(w, r, http.StatusOK, snap, err)
}

// RequestToJoin handles POST /divisions/{divisionID}/units/{unitID}/join-requests.
func (h *UnitHandler) RequestToJoin(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var input services.JoinRequestInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	input.DivisionID = urlParam(r, "divisionID")
	input.UnitID = urlParam(r, "unitID")
	res, err := h.units.RequestToJoin(r.Context(), actor, input)
	h.joinResult(w, r, http.StatusCreated, res, err)
}

// RespondToJoinRequest handles POST /divisions/{divisionID}/join-requests/{requestID}/respond.
func (h *UnitHandler) RespondToJoinRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	accept, ok := h.readAccept(w, r)
	if !ok {
		return
	}
	res, err := h.units.RespondToJoinRequest(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "requestID"), accept)
	h.joinResult(w, r, http.StatusOK, res, err)
}

// CancelJoinRequest handles DELETE /divisions/{divisionID}/join-requests/{requestID}.
func (h *UnitHandler) CancelJoinRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.units.CancelJoinRequest(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "requestID")); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Leave handles POST /divisions/{divisionID}/units/{unitID}/leave.
func (h *UnitHandler) Leave(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	snap, err := h.units.LeaveUnit(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "unitID"))
	h.unitResult(w, r, http.StatusOK, snap, err)
}

// TransferCaptaincy handles PUT /divisions/{divisionID}/units/{unitID}/captain.
func (h *UnitHandler) TransferCaptaincy(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var input struct {
		UserID string `json:"user_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if input.UserID == "" {
		h.badRequestResponse(w, r, errors.New("user_id is required"))
		return
	}
	snap, err := h.units.TransferCaptaincy(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "unitID"), input.UserID)
	h.unitResult(w, r, http.StatusOK, snap, err)
}

// Break handles POST /divisions/{divisionID}/units/{unitID}/break.
func (h *UnitHandler) Break(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	snaps, err := h.units.BreakUnit(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "unitID"))
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"units": snaps})
}

// Merge handles POST /divisions/{divisionID}/units/{unitID}/merge. The path unit survives.
func (h *UnitHandler) Merge(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var input struct {
		SourceUnitID string `json:"source_unit_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if input.SourceUnitID == "" {
		h.badRequestResponse(w, r, errors.New("source_unit_id is required"))
		return
	}
	snap, err := h.units.MergeUnits(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "unitID"), input.SourceUnitID)
	h.unitResult(w, r, http.StatusOK, snap, err)
}

// RecordPayment handles PUT /divisions/{divisionID}/units/{unitID}/members/{userID}/payment.
func (h *UnitHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var input struct {
		AmountCents *int64 `json:"amount_cents"`
	}
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if input.AmountCents == nil {
		h.badRequestResponse(w, r, errors.New("amount_cents is required"))
		return
	}
	snap, err := h.units.RecordMemberPayment(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "unitID"), urlParam(r, "userID"), *input.AmountCents)
	h.unitResult(w, r, http.StatusOK, snap, err)
}

// Promote handles POST /divisions/{divisionID}/units/{unitID}/promote.
func (h *UnitHandler) Promote(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	snap, err := h.units.PromoteFromWaitlist(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "unitID"))
	h.unitResult(w, r, http.StatusOK, snap, err)
}

// Cancel handles POST /divisions/{divisionID}/units/{unitID}/cancel.
func (h *UnitHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	snap, err := h.units.CancelUnit(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "unitID"))
	h.unitResult(w, r, http.StatusOK, snap, err)
}

// CheckIn handles POST /divisions/{divisionID}/units/{unitID}/check-in.
func (h *UnitHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	snap, err := h.units.CheckInUnit(r.Context(), actor, urlParam(r, "divisionID"), urlParam(r, "unitID"))
	h.unitResult(w, r, http.StatusOK, snap, err)
}
