package services

import (
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
)

type MemberView struct {
	UserID          string              `json:"user_id"`
	Name            string              `json:"name"`
	Role            models.MemberRole   `json:"role"`
	InviteStatus    models.InviteStatus `json:"invite_status"`
	AmountPaidCents int64               `json:"amount_paid_cents"`
}

// UnitSnapshot is a unit with its roster as clients see it.
type UnitSnapshot struct {
	Unit           *models.Unit `json:"unit"`
	Members        []MemberView `json:"members"`
	Complete       bool         `json:"complete"`
	AmountDueCents int64        `json:"amount_due_cents"`
}

type JoinResult struct {
	Status  models.JoinRequestStatus `json:"status"`
	Request *models.JoinRequest      `json:"request,omitempty"`
	Unit    *UnitSnapshot            `json:"unit"`
}

func snapshotUnit(agg *models.DivisionAggregate, u *models.Unit) *UnitSnapshot {
	if u == nil {
		return nil
	}
	snap := &UnitSnapshot{Unit: u, Complete: agg.IsComplete(u)}
	accepted := 0
	for _, m := range agg.MembersOf(u.ID) {
		snap.Members = append(snap.Members, MemberView{
			UserID:          m.UserID,
			Name:            displayName(agg.Person(m.UserID)),
			Role:            m.Role,
			InviteStatus:    m.InviteStatus,
			AmountPaidCents: m.AmountPaidCents,
		})
		if m.Accepted() {
			accepted++
		}
	}
	due := agg.Division.EntryFeeCents*int64(accepted) - u.AmountPaidCents
	if due > 0 {
		snap.AmountDueCents = due
	}
	return snap
}

func memberNames(agg *models.DivisionAggregate, unitID string) []string {
	var out []string
	for _, m := range agg.AcceptedMembers(unitID) {
		out = append(out, displayName(agg.Person(m.UserID)))
	}
	return out
}

func memberEmails(agg *models.DivisionAggregate, unitID string) []string {
	var out []string
	for _, m := range agg.AcceptedMembers(unitID) {
		if email := agg.Person(m.UserID).Email; email != "" {
			out = append(out, email)
		}
	}
	return out
}
