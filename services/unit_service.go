package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/LegalDragon/Pickleball-Community-sub007/repositories"
	"github.com/jmoiron/sqlx"
)

type UnitService interface {
	RegisterUnit(ctx context.Context, actor models.Actor, in RegisterUnitInput) (*UnitSnapshot, error)
	RespondToInvite(ctx context.Context, actor models.Actor, divisionID, unitID string, accept bool) (*UnitSnapshot, error)
	RequestToJoin(ctx context.Context, actor models.Actor, in JoinRequestInput) (*JoinResult, error)
	RespondToJoinRequest(ctx context.Context, actor models.Actor, divisionID, requestID string, accept bool) (*JoinResult, error)
	CancelJoinRequest(ctx context.Context, actor models.Actor, divisionID, requestID string) error
	LeaveUnit(ctx context.Context, actor models.Actor, divisionID, unitID string) (*UnitSnapshot, error)
	TransferCaptaincy(ctx context.Context, actor models.Actor, divisionID, unitID, newCaptainID string) (*UnitSnapshot, error)
	UnregisterFromDivision(ctx context.Context, actor models.Actor, divisionID string) error
	BreakUnit(ctx context.Context, actor models.Actor, divisionID, unitID string) ([]*UnitSnapshot, error)
	MergeUnits(ctx context.Context, actor models.Actor, divisionID, targetUnitID, sourceUnitID string) (*UnitSnapshot, error)
	RecordMemberPayment(ctx context.Context, actor models.Actor, divisionID, unitID, userID string, amountCents int64) (*UnitSnapshot, error)
	PromoteFromWaitlist(ctx context.Context, actor models.Actor, divisionID, unitID string) (*UnitSnapshot, error)
	CancelUnit(ctx context.Context, actor models.Actor, divisionID, unitID string) (*UnitSnapshot, error)
	CheckInUnit(ctx context.Context, actor models.Actor, divisionID, unitID string) (*UnitSnapshot, error)
	SetRegistrationOpen(ctx context.Context, actor models.Actor, divisionID string, open bool) (*models.Division, error)
}

type unitService struct {
	runner
}

func NewUnitService(deps Deps) UnitService {
	return &unitService{runner{deps: deps.withDefaults()}}
}

// ensurePeople loads profiles the aggregate does not hold yet, so names and emails can be derived.
func (s *unitService) ensurePeople(ctx context.Context, tx *sqlx.Tx, agg *models.DivisionAggregate, ids ...string) error {
	for _, id := range ids {
		if id == "" || agg.HasPerson(id) {
			continue
		}
		p, err := s.deps.Users.GetByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return fmt.Errorf("%w: %s", ErrUserNotFound, id)
			}
			return err
		}
		agg.AddPerson(p)
	}
	return nil
}

func (s *unitService) registeredElsewhere(ctx context.Context, tx *sqlx.Tx, agg *models.DivisionAggregate, userID string) (bool, error) {
	if userID == "" || agg.Event.AllowMultipleDivisions {
		return false, nil
	}
	others, err := s.deps.Divisions.OtherDivisionsOf(ctx, tx, agg.Event.ID, userID, agg.Division.ID)
	if err != nil {
		return false, err
	}
	return len(others) > 0, nil
}

func (s *unitService) RegisterUnit(ctx context.Context, actor models.Actor, in RegisterUnitInput) (*UnitSnapshot, error) {
	var unit *models.Unit
	agg, err := s.execute(ctx, "register_unit", in.DivisionID, func(ctx context.Context, tx *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if err := s.ensurePeople(ctx, tx, agg, actor.UserID, in.PartnerUserID); err != nil {
			return err
		}
		var facts registrationFacts
		var err error
		if facts.actorElsewhere, err = s.registeredElsewhere(ctx, tx, agg, actor.UserID); err != nil {
			return err
		}
		if facts.partnerElsewhere, err = s.registeredElsewhere(ctx, tx, agg, in.PartnerUserID); err != nil {
			return err
		}
		unit, err = registerUnit(agg, actor, in, facts, s.deps.Clock(), out)
		if err != nil {
			return err
		}
		status := unit.Status
		out.afterCommit(func() { s.deps.Metrics.IncUnitsRegistered(string(status)) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshotUnit(agg, unit), nil
}

func (s *unitService) RespondToInvite(ctx context.Context, actor models.Actor, divisionID, unitID string, accept bool) (*UnitSnapshot, error) {
	var unit *models.Unit
	agg, err := s.execute(ctx, "respond_to_invite", divisionID, func(ctx context.Context, tx *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		elsewhere, err := s.registeredElsewhere(ctx, tx, agg, actor.UserID)
		if err != nil {
			return err
		}
		unit, err = respondToInvite(agg, actor, unitID, accept, elsewhere, s.deps.Clock(), out)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshotUnit(agg, unit), nil
}

func (s *unitService) RequestToJoin(ctx context.Context, actor models.Actor, in JoinRequestInput) (*JoinResult, error) {
	var result *JoinResult
	_, err := s.execute(ctx, "request_to_join", in.DivisionID, func(ctx context.Context, tx *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if err := s.ensurePeople(ctx, tx, agg, actor.UserID); err != nil {
			return err
		}
		u := agg.Unit(in.UnitID)
		if u == nil {
			return ErrUnitNotFound
		}
		var facts registrationFacts
		var err error
		if facts.actorElsewhere, err = s.registeredElsewhere(ctx, tx, agg, actor.UserID); err != nil {
			return err
		}
		if u.JoinMethod == models.JoinFriendsOnly {
			if facts.friends, err = s.deps.Users.AreFriends(ctx, tx, u.CaptainUserID, actor.UserID); err != nil {
				return err
			}
		}
		result, err = requestToJoin(agg, actor, in, facts, s.deps.Clock(), out)
		if err != nil {
			return err
		}
		outcome := string(result.Status)
		out.afterCommit(func() {
			s.deps.Metrics.IncJoinRequests(outcome)
			if outcome == string(models.JoinRequestMerged) {
				s.deps.Metrics.IncUnitsMerged()
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *unitService) RespondToJoinRequest(ctx context.Context, actor models.Actor, divisionID, requestID string, accept bool) (*JoinResult, error) {
	var result *JoinResult
	_, err := s.execute(ctx, "respond_to_join_request", divisionID, func(ctx context.Context, tx *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		req := agg.JoinRequest(requestID)
		if req == nil {
			return ErrJoinRequestNotFound
		}
		elsewhere, err := s.registeredElsewhere(ctx, tx, agg, req.RequesterUserID)
		if err != nil {
			return err
		}
		if _, err := respondToJoinRequest(agg, actor, requestID, accept, elsewhere, s.deps.Clock(), out); err != nil {
			return err
		}
		status := models.JoinRequestDeclined
		if accept {
			status = models.JoinRequestAccepted
		}
		result = &JoinResult{Status: status, Request: req, Unit: snapshotUnit(agg, agg.Unit(req.UnitID))}
		out.afterCommit(func() { s.deps.Metrics.IncJoinRequests(string(status)) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *unitService) CancelJoinRequest(ctx context.Context, actor models.Actor, divisionID, requestID string) error {
	_, err := s.execute(ctx, "cancel_join_request", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if err := cancelJoinRequest(agg, actor, requestID); err != nil {
			return err
		}
		out.afterCommit(func() { s.deps.Metrics.IncJoinRequests("Cancelled") })
		return nil
	})
	return err
}

// unitCommand runs a rule that returns the unit it changed and snapshots that unit.
func (s *unitService) unitCommand(ctx context.Context, command, divisionID string, managerOnly bool, actor models.Actor, rule func(agg *models.DivisionAggregate, out *outbox) (*models.Unit, error)) (*UnitSnapshot, error) {
	var unit *models.Unit
	agg, err := s.execute(ctx, command, divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if managerOnly {
			if err := requireManager(agg, actor); err != nil {
				return err
			}
		}
		var err error
		unit, err = rule(agg, out)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshotUnit(agg, unit), nil
}

func (s *unitService) LeaveUnit(ctx context.Context, actor models.Actor, divisionID, unitID string) (*UnitSnapshot, error) {
	return s.unitCommand(ctx, "leave_unit", divisionID, false, actor, func(agg *models.DivisionAggregate, _ *outbox) (*models.Unit, error) {
		return leaveUnit(agg, actor, unitID)
	})
}

func (s *unitService) TransferCaptaincy(ctx context.Context, actor models.Actor, divisionID, unitID, newCaptainID string) (*UnitSnapshot, error) {
	return s.unitCommand(ctx, "transfer_captaincy", divisionID, false, actor, func(agg *models.DivisionAggregate, _ *outbox) (*models.Unit, error) {
		return transferCaptaincy(agg, actor, unitID, newCaptainID)
	})
}

func (s *unitService) UnregisterFromDivision(ctx context.Context, actor models.Actor, divisionID string) error {
	_, err := s.execute(ctx, "unregister", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, _ *outbox) error {
		return unregisterFromDivision(agg, actor)
	})
	return err
}

func (s *unitService) BreakUnit(ctx context.Context, actor models.Actor, divisionID, unitID string) ([]*UnitSnapshot, error) {
	var units []*models.Unit
	agg, err := s.execute(ctx, "break_unit", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if err := requireManager(agg, actor); err != nil {
			return err
		}
		var err error
		units, err = breakUnit(agg, unitID, s.deps.Clock(), out)
		return err
	})
	if err != nil {
		return nil, err
	}
	snaps := make([]*UnitSnapshot, 0, len(units))
	for _, u := range units {
		snaps = append(snaps, snapshotUnit(agg, u))
	}
	return snaps, nil
}

func (s *unitService) MergeUnits(ctx context.Context, actor models.Actor, divisionID, targetUnitID, sourceUnitID string) (*UnitSnapshot, error) {
	return s.unitCommand(ctx, "merge_units", divisionID, true, actor, func(agg *models.DivisionAggregate, out *outbox) (*models.Unit, error) {
		target, source := agg.Unit(targetUnitID), agg.Unit(sourceUnitID)
		if target == nil || source == nil {
			return nil, ErrUnitNotFound
		}
		if target.Status == models.UnitCancelled || source.Status == models.UnitCancelled {
			return nil, ErrUnitCancelled
		}
		if err := mergeUnits(agg, target, source, out); err != nil {
			return nil, err
		}
		out.afterCommit(s.deps.Metrics.IncUnitsMerged)
		return target, nil
	})
}

func (s *unitService) RecordMemberPayment(ctx context.Context, actor models.Actor, divisionID, unitID, userID string, amountCents int64) (*UnitSnapshot, error) {
	return s.unitCommand(ctx, "record_payment", divisionID, true, actor, func(agg *models.DivisionAggregate, _ *outbox) (*models.Unit, error) {
		return recordMemberPayment(agg, unitID, userID, amountCents)
	})
}

func (s *unitService) PromoteFromWaitlist(ctx context.Context, actor models.Actor, divisionID, unitID string) (*UnitSnapshot, error) {
	return s.unitCommand(ctx, "promote_unit", divisionID, true, actor, func(agg *models.DivisionAggregate, _ *outbox) (*models.Unit, error) {
		return promoteFromWaitlist(agg, unitID)
	})
}

func (s *unitService) CancelUnit(ctx context.Context, actor models.Actor, divisionID, unitID string) (*UnitSnapshot, error) {
	return s.unitCommand(ctx, "cancel_unit", divisionID, false, actor, func(agg *models.DivisionAggregate, _ *outbox) (*models.Unit, error) {
		return cancelUnit(agg, actor, unitID)
	})
}

func (s *unitService) CheckInUnit(ctx context.Context, actor models.Actor, divisionID, unitID string) (*UnitSnapshot, error) {
	return s.unitCommand(ctx, "check_in_unit", divisionID, true, actor, func(agg *models.DivisionAggregate, _ *outbox) (*models.Unit, error) {
		return checkInUnit(agg, unitID)
	})
}

func (s *unitService) SetRegistrationOpen(ctx context.Context, actor models.Actor, divisionID string, open bool) (*models.Division, error) {
	agg, err := s.execute(ctx, "set_registration", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, _ *outbox) error {
		if err := requireManager(agg, actor); err != nil {
			return err
		}
		agg.Division.RegistrationOpen = open
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agg.Division, nil
}
