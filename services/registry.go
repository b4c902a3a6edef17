package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/events"
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/google/uuid"
)

type RegisterUnitInput struct {
	DivisionID    string            `json:"-"`
	PartnerUserID string            `json:"partner_user_id,omitempty"`
	Name          string            `json:"name,omitempty"`
	JoinMethod    models.JoinMethod `json:"join_method,omitempty"`
}

type JoinRequestInput struct {
	DivisionID string `json:"-"`
	UnitID     string `json:"unit_id"`
	Message    string `json:"message,omitempty"`
}

// registrationFacts are looked up outside the division before a registry rule runs.
type registrationFacts struct {
	actorElsewhere   bool
	partnerElsewhere bool
	friends          bool
}

func checkEligible(agg *models.DivisionAggregate, userID string, elsewhere bool) error {
	if !agg.Division.AllowMultipleUnits && len(agg.UnitsOfUser(userID)) > 0 {
		return ErrAlreadyRegistered
	}
	if elsewhere && !agg.Event.AllowMultipleDivisions {
		return ErrMultiDivisionNotAllowed
	}
	return nil
}

func registerUnit(agg *models.DivisionAggregate, actor models.Actor, in RegisterUnitInput, facts registrationFacts, now time.Time, out *outbox) (*models.Unit, error) {
	d := agg.Division
	if !d.RegistrationOpen {
		return nil, ErrRegistrationClosed
	}
	if in.PartnerUserID != "" {
		if d.TeamSize == 1 {
			return nil, ErrPartnerNotAllowed
		}
		if in.PartnerUserID == actor.UserID {
			return nil, fmt.Errorf("%w: partner must be another player", ErrValidationFailed)
		}
	}
	method := in.JoinMethod
	if method == "" {
		method = models.JoinApproval
	}
	if !method.Valid() {
		return nil, ErrInvalidJoinMethod
	}
	if err := checkEligible(agg, actor.UserID, facts.actorElsewhere); err != nil {
		return nil, err
	}
	if in.PartnerUserID != "" {
		if err := checkEligible(agg, in.PartnerUserID, facts.partnerElsewhere); err != nil {
			return nil, fmt.Errorf("partner: %w", err)
		}
	}

	admitted, reason := admitNewUnit(agg)
	unit := &models.Unit{
		ID:            uuid.NewString(),
		DivisionID:    d.ID,
		Status:        models.UnitRegistered,
		CaptainUserID: actor.UserID,
		JoinMethod:    method,
		PaymentStatus: models.PaymentUnpaid,
		CreatedAt:     now,
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		unit.Name = name
		unit.CustomName = true
	}
	if !admitted {
		waitlistUnit(agg, unit)
	}
	agg.AddUnit(unit)
	agg.AddMember(&models.UnitMember{
		ID:           uuid.NewString(),
		UnitID:       unit.ID,
		UserID:       actor.UserID,
		Role:         models.RoleCaptain,
		InviteStatus: models.InviteAccepted,
		CreatedAt:    now,
		RespondedAt:  &now,
	})
	if in.PartnerUserID != "" {
		agg.AddMember(&models.UnitMember{
			ID:           uuid.NewString(),
			UnitID:       unit.ID,
			UserID:       in.PartnerUserID,
			Role:         models.RolePlayer,
			InviteStatus: models.InvitePending,
			CreatedAt:    now,
		})
	}
	refreshUnitName(agg, unit)
	refreshPayment(agg, unit)

	out.emit(events.UnitRegistered{
		DivisionID:    d.ID,
		UnitID:        unit.ID,
		UnitName:      unit.Name,
		CaptainUserID: unit.CaptainUserID,
		Status:        unit.Status,
	})
	if !admitted {
		out.emit(waitlistedEvent(agg, unit, reason))
	}
	return unit, nil
}

func waitlistedEvent(agg *models.DivisionAggregate, u *models.Unit, reason string) events.UnitWaitlisted {
	e := events.UnitWaitlisted{
		DivisionID:    agg.Division.ID,
		UnitID:        u.ID,
		UnitName:      u.Name,
		Reason:        reason,
		MemberEmails:  memberEmails(agg, u.ID),
		CaptainUserID: u.CaptainUserID,
	}
	if u.WaitlistPosition != nil {
		e.Position = *u.WaitlistPosition
	}
	return e
}

// removeRequestWithRow deletes a join request together with its provisional membership row.
func removeRequestWithRow(agg *models.DivisionAggregate, r *models.JoinRequest) {
	if m := agg.Member(r.UnitID, r.RequesterUserID); m != nil && m.InviteStatus == models.InvitePendingJoinRequest {
		agg.RemoveMember(m.ID)
	}
	agg.RemoveRequest(r.ID)
}

func withdrawPendingRequests(agg *models.DivisionAggregate, userID, keepRequestID string) {
	for _, r := range agg.PendingRequestsBy(userID) {
		if r.ID != keepRequestID {
			removeRequestWithRow(agg, r)
		}
	}
}

// dissolveSoloUnits removes the user's own single-member units when they join another one.
// It returns what the user had paid through those units so the payment follows them.
func dissolveSoloUnits(agg *models.DivisionAggregate, userID, targetUnitID string) (int64, error) {
	if agg.Division.AllowMultipleUnits {
		return 0, nil
	}
	var carried int64
	for _, own := range agg.UnitsOfUser(userID) {
		if own.ID == targetUnitID {
			continue
		}
		accepted := agg.AcceptedMembers(own.ID)
		if own.CaptainUserID != userID || len(accepted) != 1 {
			return 0, ErrAlreadyRegistered
		}
		if err := ensureUnscheduled(agg, own); err != nil {
			return 0, err
		}
		carried += accepted[0].AmountPaidCents
		agg.RemoveUnit(own.ID)
	}
	return carried, nil
}

// acceptIntoUnit turns an invitation or provisional row into an accepted membership.
func acceptIntoUnit(agg *models.DivisionAggregate, u *models.Unit, m *models.UnitMember, keepRequestID string, elsewhere bool, now time.Time, out *outbox) error {
	if err := ensureUnscheduled(agg, u); err != nil {
		return err
	}
	if len(agg.AcceptedMembers(u.ID)) >= agg.Division.TeamSize {
		return ErrUnitFull
	}
	if elsewhere && !agg.Event.AllowMultipleDivisions {
		return ErrMultiDivisionNotAllowed
	}
	carried, err := dissolveSoloUnits(agg, m.UserID, u.ID)
	if err != nil {
		return err
	}
	withdrawPendingRequests(agg, m.UserID, keepRequestID)

	admitted, reason := true, ""
	if u.Status.Admitted() {
		admitted, reason = admitMember(agg)
	}
	m.InviteStatus = models.InviteAccepted
	m.RespondedAt = &now
	m.AmountPaidCents += carried
	if !admitted {
		waitlistUnit(agg, u)
	}
	agg.CompactWaitlist()
	refreshUnitName(agg, u)
	refreshPayment(agg, u)
	if !admitted {
		out.emit(waitlistedEvent(agg, u, reason))
	}
	return nil
}

func respondToInvite(agg *models.DivisionAggregate, actor models.Actor, unitID string, accept, elsewhere bool, now time.Time, out *outbox) (*models.Unit, error) {
	u := agg.Unit(unitID)
	if u == nil {
		return nil, ErrUnitNotFound
	}
	if u.Status == models.UnitCancelled {
		return nil, ErrUnitCancelled
	}
	m := agg.Member(unitID, actor.UserID)
	if m == nil || m.InviteStatus != models.InvitePending {
		return nil, ErrInviteNotFound
	}
	if !accept {
		m.InviteStatus = models.InviteRejected
		m.RespondedAt = &now
		return u, nil
	}
	if err := acceptIntoUnit(agg, u, m, "", elsewhere, now, out); err != nil {
		return nil, err
	}
	return u, nil
}

// mutualPartner finds the requester's own incomplete unit whose pending requests include one
// from the target unit's captain.
func mutualPartner(agg *models.DivisionAggregate, requesterID string, target *models.Unit) *models.Unit {
	for _, own := range agg.UnitsOfUser(requesterID) {
		if own.ID == target.ID || own.CaptainUserID != requesterID || agg.IsComplete(own) {
			continue
		}
		if agg.PendingRequest(target.CaptainUserID, own.ID) != nil {
			return own
		}
	}
	return nil
}

func requestToJoin(agg *models.DivisionAggregate, actor models.Actor, in JoinRequestInput, facts registrationFacts, now time.Time, out *outbox) (*JoinResult, error) {
	d := agg.Division
	u := agg.Unit(in.UnitID)
	if u == nil {
		return nil, ErrUnitNotFound
	}
	if u.Status == models.UnitCancelled {
		return nil, ErrUnitCancelled
	}
	if !d.RegistrationOpen {
		return nil, ErrRegistrationClosed
	}
	if m := agg.Member(u.ID, actor.UserID); m != nil {
		switch m.InviteStatus {
		case models.InviteAccepted:
			return nil, ErrAlreadyMember
		case models.InvitePending:
			return nil, ErrPendingInvite
		case models.InvitePendingJoinRequest:
			return nil, ErrDuplicateRequest
		case models.InviteRejected:
		}
	}
	if len(agg.PendingRequestsBy(actor.UserID)) > 0 {
		return nil, ErrDuplicateRequest
	}
	if len(agg.AcceptedMembers(u.ID)) >= d.TeamSize {
		return nil, ErrUnitFull
	}

	if own := mutualPartner(agg, actor.UserID, u); own != nil {
		if len(agg.AcceptedMembers(own.ID))+len(agg.AcceptedMembers(u.ID)) <= d.TeamSize {
			if err := mergeUnits(agg, own, u, out); err != nil {
				return nil, err
			}
			return &JoinResult{Status: models.JoinRequestMerged, Unit: snapshotUnit(agg, own)}, nil
		}
	}

	if !d.AllowMultipleUnits {
		for _, own := range agg.UnitsOfUser(actor.UserID) {
			if own.CaptainUserID != actor.UserID || len(agg.AcceptedMembers(own.ID)) != 1 {
				return nil, ErrAlreadyRegistered
			}
		}
	}
	if facts.actorElsewhere && !agg.Event.AllowMultipleDivisions {
		return nil, ErrMultiDivisionNotAllowed
	}

	req := &models.JoinRequest{
		ID:              uuid.NewString(),
		DivisionID:      d.ID,
		UnitID:          u.ID,
		RequesterUserID: actor.UserID,
		Message:         strings.TrimSpace(in.Message),
		Status:          models.JoinRequestPending,
		CreatedAt:       now,
	}
	agg.AddRequest(req)
	if m := agg.Member(u.ID, actor.UserID); m != nil {
		m.InviteStatus = models.InvitePendingJoinRequest
		m.Role = models.RolePlayer
		m.RespondedAt = nil
	} else {
		agg.AddMember(&models.UnitMember{
			ID:           uuid.NewString(),
			UnitID:       u.ID,
			UserID:       actor.UserID,
			Role:         models.RolePlayer,
			InviteStatus: models.InvitePendingJoinRequest,
			CreatedAt:    now,
		})
	}

	captain := agg.Person(u.CaptainUserID)
	out.emit(events.JoinRequestCreated{
		DivisionID:      d.ID,
		RequestID:       req.ID,
		UnitID:          u.ID,
		UnitName:        u.Name,
		RequesterUserID: actor.UserID,
		RequesterName:   displayName(agg.Person(actor.UserID)),
		CaptainUserID:   u.CaptainUserID,
		CaptainEmail:    captain.Email,
		Message:         req.Message,
	})

	if u.JoinMethod == models.JoinOpen || (u.JoinMethod == models.JoinFriendsOnly && facts.friends) {
		if err := acceptJoinRequest(agg, req, nil, facts.actorElsewhere, true, now, out); err != nil {
			return nil, err
		}
	}
	return &JoinResult{Status: req.Status, Request: req, Unit: snapshotUnit(agg, u)}, nil
}

func acceptJoinRequest(agg *models.DivisionAggregate, req *models.JoinRequest, responder *string, elsewhere, auto bool, now time.Time, out *outbox) error {
	if req.Status != models.JoinRequestPending {
		return ErrRequestNotPending
	}
	u := agg.Unit(req.UnitID)
	if u == nil {
		return ErrUnitNotFound
	}
	m := agg.Member(u.ID, req.RequesterUserID)
	if m == nil {
		m = &models.UnitMember{
			ID:        uuid.NewString(),
			UnitID:    u.ID,
			UserID:    req.RequesterUserID,
			Role:      models.RolePlayer,
			CreatedAt: now,
		}
		agg.AddMember(m)
	}
	if err := acceptIntoUnit(agg, u, m, req.ID, elsewhere, now, out); err != nil {
		return err
	}
	req.Status = models.JoinRequestAccepted
	req.RespondedAt = &now
	req.RespondedBy = responder

	out.emit(events.JoinRequestResolved{
		DivisionID:      agg.Division.ID,
		RequestID:       req.ID,
		UnitID:          u.ID,
		UnitName:        u.Name,
		RequesterUserID: req.RequesterUserID,
		RequesterEmail:  agg.Person(req.RequesterUserID).Email,
		Accepted:        true,
		AutoAccepted:    auto,
	})
	return nil
}

func declineJoinRequest(agg *models.DivisionAggregate, req *models.JoinRequest, out *outbox) error {
	if req.Status != models.JoinRequestPending {
		return ErrRequestNotPending
	}
	unitName := ""
	if u := agg.Unit(req.UnitID); u != nil {
		unitName = u.Name
	}
	req.Status = models.JoinRequestDeclined
	removeRequestWithRow(agg, req)
	out.emit(events.JoinRequestResolved{
		DivisionID:      agg.Division.ID,
		RequestID:       req.ID,
		UnitID:          req.UnitID,
		UnitName:        unitName,
		RequesterUserID: req.RequesterUserID,
		RequesterEmail:  agg.Person(req.RequesterUserID).Email,
	})
	return nil
}

// respondToJoinRequest lets the unit captain or a manager decide a pending request.
func respondToJoinRequest(agg *models.DivisionAggregate, actor models.Actor, requestID string, accept, elsewhere bool, now time.Time, out *outbox) (*models.JoinRequest, error) {
	req := agg.JoinRequest(requestID)
	if req == nil {
		return nil, ErrJoinRequestNotFound
	}
	u := agg.Unit(req.UnitID)
	if u == nil {
		return nil, ErrUnitNotFound
	}
	if u.CaptainUserID != actor.UserID && !agg.IsManager(actor) {
		return nil, ErrForbidden
	}
	if !accept {
		return req, declineJoinRequest(agg, req, out)
	}
	responder := actor.UserID
	return req, acceptJoinRequest(agg, req, &responder, elsewhere, false, now, out)
}

func cancelJoinRequest(agg *models.DivisionAggregate, actor models.Actor, requestID string) error {
	req := agg.JoinRequest(requestID)
	if req == nil {
		return ErrJoinRequestNotFound
	}
	if req.RequesterUserID != actor.UserID && !agg.IsManager(actor) {
		return ErrForbidden
	}
	if req.Status != models.JoinRequestPending {
		return ErrRequestNotPending
	}
	removeRequestWithRow(agg, req)
	return nil
}

// mergeUnits moves the accepted members of absorbed into survivor and deletes absorbed.
func mergeUnits(agg *models.DivisionAggregate, survivor, absorbed *models.Unit, out *outbox) error {
	if survivor.ID == absorbed.ID {
		return ErrSameUnit
	}
	if err := ensureUnscheduled(agg, survivor, absorbed); err != nil {
		return err
	}
	moving := agg.AcceptedMembers(absorbed.ID)
	combined := len(agg.AcceptedMembers(survivor.ID))
	for _, m := range moving {
		if existing := agg.Member(survivor.ID, m.UserID); existing == nil || !existing.Accepted() {
			combined++
		}
	}
	if combined > agg.Division.TeamSize {
		return ErrMergeExceedsTeamSize
	}

	movingUsers := make(map[string]bool, len(moving))
	for _, m := range moving {
		movingUsers[m.UserID] = true
	}
	for _, r := range agg.RequestsFor(survivor.ID) {
		if r.Status == models.JoinRequestPending && movingUsers[r.RequesterUserID] {
			removeRequestWithRow(agg, r)
		}
	}
	for _, m := range moving {
		if existing := agg.Member(survivor.ID, m.UserID); existing != nil {
			if existing.Accepted() {
				existing.AmountPaidCents += m.AmountPaidCents
				agg.RemoveMember(m.ID)
				continue
			}
			agg.RemoveMember(existing.ID)
		}
		m.UnitID = survivor.ID
		m.Role = models.RolePlayer
	}

	absorbedAdmitted := absorbed.Status.Admitted()
	agg.RemoveUnit(absorbed.ID)
	if survivor.Status == models.UnitWaitlisted && absorbedAdmitted {
		survivor.Status = models.UnitRegistered
	}
	agg.CompactWaitlist()
	refreshUnitName(agg, survivor)
	refreshPayment(agg, survivor)

	out.emit(events.UnitsMerged{
		DivisionID:      agg.Division.ID,
		SurvivingUnitID: survivor.ID,
		RemovedUnitID:   absorbed.ID,
		UnitName:        survivor.Name,
		MemberEmails:    memberEmails(agg, survivor.ID),
	})
	return nil
}

func leaveUnit(agg *models.DivisionAggregate, actor models.Actor, unitID string) (*models.Unit, error) {
	u := agg.Unit(unitID)
	if u == nil {
		return nil, ErrUnitNotFound
	}
	m := agg.Member(unitID, actor.UserID)
	if m == nil || !m.Accepted() {
		return nil, ErrMemberNotFound
	}
	if m.Role == models.RoleCaptain {
		return nil, ErrCaptainCannotLeave
	}
	if err := ensureUnscheduled(agg, u); err != nil {
		return nil, err
	}
	agg.RemoveMember(m.ID)
	refreshUnitName(agg, u)
	refreshPayment(agg, u)
	return u, nil
}

func transferCaptaincy(agg *models.DivisionAggregate, actor models.Actor, unitID, newCaptainID string) (*models.Unit, error) {
	u := agg.Unit(unitID)
	if u == nil {
		return nil, ErrUnitNotFound
	}
	if u.CaptainUserID != actor.UserID && !agg.IsManager(actor) {
		return nil, ErrForbidden
	}
	next := agg.Member(unitID, newCaptainID)
	if next == nil || !next.Accepted() {
		return nil, ErrMemberNotFound
	}
	if current := agg.Captain(unitID); current != nil {
		current.Role = models.RolePlayer
	}
	next.Role = models.RoleCaptain
	u.CaptainUserID = newCaptainID
	refreshUnitName(agg, u)
	return u, nil
}

// unregisterFromDivision withdraws the user from every unit and request in the division.
// A captain hands the unit to the earliest remaining member, or deletes it when alone.
func unregisterFromDivision(agg *models.DivisionAggregate, actor models.Actor) error {
	units := agg.UnitsOfUser(actor.UserID)
	pending := agg.PendingRequestsBy(actor.UserID)
	if len(units) == 0 && len(pending) == 0 {
		return ErrMemberNotFound
	}
	if err := ensureUnscheduled(agg, units...); err != nil {
		return err
	}
	for _, r := range pending {
		removeRequestWithRow(agg, r)
	}
	for _, m := range append([]*models.UnitMember(nil), agg.Members...) {
		if m.UserID == actor.UserID && m.InviteStatus == models.InvitePending {
			agg.RemoveMember(m.ID)
		}
	}
	for _, u := range units {
		m := agg.Member(u.ID, actor.UserID)
		var others []*models.UnitMember
		for _, other := range agg.AcceptedMembers(u.ID) {
			if other.UserID != actor.UserID {
				others = append(others, other)
			}
		}
		switch {
		case m.Role != models.RoleCaptain:
			agg.RemoveMember(m.ID)
		case len(others) > 0:
			heir := others[0]
			heir.Role = models.RoleCaptain
			u.CaptainUserID = heir.UserID
			agg.RemoveMember(m.ID)
		default:
			agg.RemoveUnit(u.ID)
			continue
		}
		refreshUnitName(agg, u)
		refreshPayment(agg, u)
	}
	agg.CompactWaitlist()
	return nil
}

// breakUnit gives every non-captain accepted member a unit of their own.
func breakUnit(agg *models.DivisionAggregate, unitID string, now time.Time, out *outbox) ([]*models.Unit, error) {
	u := agg.Unit(unitID)
	if u == nil {
		return nil, ErrUnitNotFound
	}
	if u.Status == models.UnitCancelled {
		return nil, ErrUnitCancelled
	}
	if err := ensureUnscheduled(agg, u); err != nil {
		return nil, err
	}
	accepted := agg.AcceptedMembers(u.ID)
	if len(accepted) < 2 {
		return nil, fmt.Errorf("%w: unit has a single member", ErrValidationFailed)
	}

	result := []*models.Unit{u}
	var newIDs []string
	for _, m := range accepted {
		if m.UserID == u.CaptainUserID {
			continue
		}
		nu := &models.Unit{
			ID:            uuid.NewString(),
			DivisionID:    u.DivisionID,
			Status:        models.UnitRegistered,
			CaptainUserID: m.UserID,
			JoinMethod:    u.JoinMethod,
			PaymentStatus: models.PaymentUnpaid,
			CreatedAt:     now,
		}
		if u.Status == models.UnitWaitlisted {
			waitlistUnit(agg, nu)
		}
		agg.AddUnit(nu)
		m.UnitID = nu.ID
		m.Role = models.RoleCaptain
		result = append(result, nu)
		newIDs = append(newIDs, nu.ID)
	}
	for _, unit := range result {
		refreshUnitName(agg, unit)
		refreshPayment(agg, unit)
	}
	out.emit(events.UnitBroken{DivisionID: agg.Division.ID, UnitID: u.ID, NewUnitIDs: newIDs})
	return result, nil
}

func recordMemberPayment(agg *models.DivisionAggregate, unitID, userID string, amountCents int64) (*models.Unit, error) {
	if amountCents < 0 {
		return nil, ErrInvalidAmount
	}
	u := agg.Unit(unitID)
	if u == nil {
		return nil, ErrUnitNotFound
	}
	m := agg.Member(unitID, userID)
	if m == nil || (!m.Accepted() && m.InviteStatus != models.InvitePendingJoinRequest) {
		return nil, ErrMemberNotFound
	}
	// Provisional rows keep the amount through acceptance; refreshPayment counts accepted rows only.
	m.AmountPaidCents = amountCents
	refreshPayment(agg, u)
	return u, nil
}

func promoteFromWaitlist(agg *models.DivisionAggregate, unitID string) (*models.Unit, error) {
	u := agg.Unit(unitID)
	if u == nil {
		return nil, ErrUnitNotFound
	}
	if u.Status != models.UnitWaitlisted {
		return nil, fmt.Errorf("%w: unit is %s", ErrInvalidTransition, u.Status)
	}
	if !fitsOnPromotion(agg, u) {
		return nil, ErrDivisionFull
	}
	u.Status = models.UnitRegistered
	agg.CompactWaitlist()
	return u, nil
}

func cancelUnit(agg *models.DivisionAggregate, actor models.Actor, unitID string) (*models.Unit, error) {
	u := agg.Unit(unitID)
	if u == nil {
		return nil, ErrUnitNotFound
	}
	if u.CaptainUserID != actor.UserID && !agg.IsManager(actor) {
		return nil, ErrForbidden
	}
	if !u.Status.CanTransitionTo(models.UnitCancelled) {
		return nil, fmt.Errorf("%w: unit is %s", ErrInvalidTransition, u.Status)
	}
	if err := ensureUnscheduled(agg, u); err != nil {
		return nil, err
	}
	for _, r := range agg.RequestsFor(u.ID) {
		if r.Status == models.JoinRequestPending {
			removeRequestWithRow(agg, r)
		}
	}
	u.Status = models.UnitCancelled
	agg.CompactWaitlist()
	return u, nil
}

func checkInUnit(agg *models.DivisionAggregate, unitID string) (*models.Unit, error) {
	u := agg.Unit(unitID)
	if u == nil {
		return nil, ErrUnitNotFound
	}
	if u.Status != models.UnitRegistered {
		return nil, fmt.Errorf("%w: unit is %s", ErrInvalidTransition, u.Status)
	}
	u.Status = models.UnitCheckedIn
	return u, nil
}
