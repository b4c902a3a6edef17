package services

import "errors"

// Kind classifies a rejected command. Handlers map it to a status code.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindCapacity      Kind = "capacity"
	KindStateConflict Kind = "state_conflict"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// Error is a domain rejection with a stable code for clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// KindOf returns the kind of the first domain error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first domain error in the chain, or "internal_error".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal_error"
}

var (
	ErrValidationFailed    = newError(KindValidation, "validation_failed", "validation failed")
	ErrPartnerNotAllowed   = newError(KindValidation, "partner_not_allowed", "singles divisions do not take a partner")
	ErrInvalidJoinMethod   = newError(KindValidation, "invalid_join_method", "invalid join method")
	ErrInvalidAmount       = newError(KindValidation, "invalid_amount", "amount must not be negative")
	ErrInvalidScore        = newError(KindValidation, "invalid_score", "scores must be non-negative and not tied")
	ErrInvalidAssignment   = newError(KindValidation, "invalid_assignment", "unit numbers must be a permutation of 1..N over the eligible units")
	ErrInvalidScheduleSpec = newError(KindValidation, "invalid_schedule_config", "invalid schedule configuration")
	ErrNotEnoughUnits      = newError(KindValidation, "not_enough_units", "not enough units")
	ErrReasonRequired      = newError(KindValidation, "reason_required", "a dispute reason is required")
	ErrSameUnit            = newError(KindValidation, "same_unit", "a unit cannot be merged with itself")
	ErrInvalidCourtLabel   = newError(KindValidation, "invalid_court_label", "court label is required")

	ErrUnitFull             = newError(KindCapacity, "unit_full", "unit already has a full roster")
	ErrDivisionFull         = newError(KindCapacity, "division_full", "division is at capacity")
	ErrMergeExceedsTeamSize = newError(KindCapacity, "merge_exceeds_team_size", "merged unit would exceed the team size")

	ErrAlreadyRegistered       = newError(KindStateConflict, "already_registered", "user is already registered in this division")
	ErrMultiDivisionNotAllowed = newError(KindStateConflict, "multi_division_not_allowed", "this event allows registration in one division only")
	ErrDuplicateRequest        = newError(KindStateConflict, "duplicate_request", "user already has a pending join request in this division")
	ErrAlreadyMember           = newError(KindStateConflict, "already_member", "user is already a member of this unit")
	ErrPendingInvite           = newError(KindStateConflict, "pending_invite", "user has a pending invitation to this unit")
	ErrCaptainCannotLeave      = newError(KindStateConflict, "captain_cannot_leave", "the captain must transfer captaincy or unregister")
	ErrScheduleLocked          = newError(KindStateConflict, "schedule_locked", "unit is bound to scheduled matches")
	ErrRegistrationOpen        = newError(KindStateConflict, "registration_open", "registration is still open")
	ErrRegistrationClosed      = newError(KindStateConflict, "registration_closed", "registration is closed")
	ErrDrawingInProgress       = newError(KindStateConflict, "drawing_in_progress", "a drawing is in progress")
	ErrDrawingNotInProgress    = newError(KindStateConflict, "drawing_not_in_progress", "no drawing is in progress")
	ErrScheduleFinalized       = newError(KindStateConflict, "schedule_finalized", "the schedule is finalized")
	ErrUnitsAlreadyAssigned    = newError(KindStateConflict, "units_already_assigned", "unit numbers are already assigned")
	ErrIncompleteUnits         = newError(KindStateConflict, "incomplete_units", "some eligible units are incomplete")
	ErrUndrawnUnits            = newError(KindStateConflict, "undrawn_units", "some eligible units have not been drawn")
	ErrNoUndrawnUnits          = newError(KindStateConflict, "no_undrawn_units", "every eligible unit has been drawn")
	ErrSlotsExhausted          = newError(KindStateConflict, "slots_exhausted", "the schedule has fewer slots than eligible units")
	ErrRequestNotPending       = newError(KindStateConflict, "request_not_pending", "join request is no longer pending")
	ErrInvalidTransition       = newError(KindStateConflict, "invalid_transition", "status transition is not allowed")
	ErrCourtBusy               = newError(KindStateConflict, "court_busy", "court is already in use")
	ErrScoreNotSubmitted       = newError(KindStateConflict, "score_not_submitted", "no score is waiting for confirmation")
	ErrScoreDisputed           = newError(KindStateConflict, "score_disputed", "the submitted score is disputed")
	ErrPoolPlayIncomplete      = newError(KindStateConflict, "pool_play_incomplete", "pool play is not finished")
	ErrPlayoffAlreadySeeded    = newError(KindStateConflict, "playoff_already_seeded", "the playoff is already seeded")
	ErrNoSchedule              = newError(KindStateConflict, "no_schedule", "the division has no schedule")
	ErrMatchNotReady           = newError(KindStateConflict, "match_not_ready", "the match does not have both units")
	ErrPreviousGameOpen        = newError(KindStateConflict, "previous_game_open", "the previous game of the match is not finished")
	ErrUnitCancelled           = newError(KindStateConflict, "unit_cancelled", "unit is cancelled")
	ErrConcurrentUpdate        = newError(KindStateConflict, "concurrent_update", "the division changed while the command ran; retry")

	ErrForbidden     = newError(KindAuthorization, "forbidden", "operation not allowed for the current user")
	ErrNotUnitMember = newError(KindAuthorization, "not_unit_member", "user is not a member of a unit in this match")

	ErrDivisionNotFound    = newError(KindNotFound, "division_not_found", "division not found")
	ErrUnitNotFound        = newError(KindNotFound, "unit_not_found", "unit not found")
	ErrJoinRequestNotFound = newError(KindNotFound, "join_request_not_found", "join request not found")
	ErrMemberNotFound      = newError(KindNotFound, "member_not_found", "member not found")
	ErrInviteNotFound      = newError(KindNotFound, "invite_not_found", "invitation not found")
	ErrMatchNotFound       = newError(KindNotFound, "match_not_found", "match not found")
	ErrGameNotFound        = newError(KindNotFound, "game_not_found", "game not found")
	ErrCourtNotFound       = newError(KindNotFound, "court_not_found", "court not found")
	ErrUserNotFound        = newError(KindNotFound, "user_not_found", "user not found")
)
