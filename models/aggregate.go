package models

import (
	"sort"
	"time"
)

type CourtOpKind int

const (
	CourtAssign CourtOpKind = iota + 1
	CourtRelease
)

// CourtOp is applied to the shared court table when the aggregate is saved.
type CourtOp struct {
	Kind    CourtOpKind
	CourtID string
	GameID  string
}

// Changes lists what Save must delete or apply beyond upserting the current rows.
type Changes struct {
	RemovedUnits    []string
	RemovedMembers  []string
	RemovedRequests []string
	RemovedMatches  []string
	RemovedGames    []string
	CourtOps        []CourtOp
}

// DivisionAggregate is the consistency boundary for every registration, drawing and
// scoring command. It is loaded and saved as a whole inside one transaction.
type DivisionAggregate struct {
	Event    *Event
	Division *Division
	Managers map[string]bool
	People   map[string]*Person
	Units    []*Unit
	Members  []*UnitMember
	Requests []*JoinRequest
	Matches  []*Match
	Games    []*Game

	changes Changes
}

func (a *DivisionAggregate) Changes() Changes { return a.changes }

func (a *DivisionAggregate) ResetChanges() { a.changes = Changes{} }

// IsManager reports whether the actor may run operator commands for this division.
func (a *DivisionAggregate) IsManager(actor Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	if a.Event != nil && a.Event.OrganizerID == actor.UserID {
		return true
	}
	return a.Managers[actor.UserID]
}

// Person never returns nil so name derivation works for profiles that were not loaded.
func (a *DivisionAggregate) Person(userID string) *Person {
	if p, ok := a.People[userID]; ok {
		return p
	}
	return &Person{ID: userID}
}

func (a *DivisionAggregate) Unit(id string) *Unit {
	for _, u := range a.Units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// UnitsInJoinOrder returns a copy of the units ordered by creation.
func (a *DivisionAggregate) UnitsInJoinOrder() []*Unit {
	out := append([]*Unit(nil), a.Units...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MembersOf returns the unit's members, captain first, then in join order.
func (a *DivisionAggregate) MembersOf(unitID string) []*UnitMember {
	var out []*UnitMember
	for _, m := range a.Members {
		if m.UnitID == unitID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].Role == RoleCaptain, out[j].Role == RoleCaptain
		if ci != cj {
			return ci
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (a *DivisionAggregate) AcceptedMembers(unitID string) []*UnitMember {
	var out []*UnitMember
	for _, m := range a.MembersOf(unitID) {
		if m.Accepted() {
			out = append(out, m)
		}
	}
	return out
}

func (a *DivisionAggregate) Member(unitID, userID string) *UnitMember {
	for _, m := range a.Members {
		if m.UnitID == unitID && m.UserID == userID {
			return m
		}
	}
	return nil
}

func (a *DivisionAggregate) MemberByID(id string) *UnitMember {
	for _, m := range a.Members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (a *DivisionAggregate) Captain(unitID string) *UnitMember {
	for _, m := range a.Members {
		if m.UnitID == unitID && m.Role == RoleCaptain && m.Accepted() {
			return m
		}
	}
	return nil
}

func (a *DivisionAggregate) IsComplete(u *Unit) bool {
	return len(a.AcceptedMembers(u.ID)) >= a.Division.TeamSize
}

// UnitsOfUser lists the non-cancelled units in which the user is an accepted member.
func (a *DivisionAggregate) UnitsOfUser(userID string) []*Unit {
	var out []*Unit
	for _, u := range a.UnitsInJoinOrder() {
		if u.Status == UnitCancelled {
			continue
		}
		if m := a.Member(u.ID, userID); m != nil && m.Accepted() {
			out = append(out, u)
		}
	}
	return out
}

func (a *DivisionAggregate) JoinRequest(id string) *JoinRequest {
	for _, r := range a.Requests {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (a *DivisionAggregate) PendingRequestsBy(userID string) []*JoinRequest {
	var out []*JoinRequest
	for _, r := range a.Requests {
		if r.RequesterUserID == userID && r.Status == JoinRequestPending {
			out = append(out, r)
		}
	}
	return out
}

func (a *DivisionAggregate) PendingRequest(userID, unitID string) *JoinRequest {
	for _, r := range a.Requests {
		if r.RequesterUserID == userID && r.UnitID == unitID && r.Status == JoinRequestPending {
			return r
		}
	}
	return nil
}

func (a *DivisionAggregate) RequestsFor(unitID string) []*JoinRequest {
	var out []*JoinRequest
	for _, r := range a.Requests {
		if r.UnitID == unitID {
			out = append(out, r)
		}
	}
	return out
}

func (a *DivisionAggregate) AddUnit(u *Unit)              { a.Units = append(a.Units, u) }
func (a *DivisionAggregate) AddMember(m *UnitMember)      { a.Members = append(a.Members, m) }
func (a *DivisionAggregate) AddRequest(r *JoinRequest)    { a.Requests = append(a.Requests, r) }
func (a *DivisionAggregate) AddPerson(p *Person)          { a.People[p.ID] = p }
func (a *DivisionAggregate) HasPerson(userID string) bool { _, ok := a.People[userID]; return ok }

func (a *DivisionAggregate) RemoveMember(id string) {
	for i, m := range a.Members {
		if m.ID == id {
			a.Members = append(a.Members[:i], a.Members[i+1:]...)
			a.changes.RemovedMembers = append(a.changes.RemovedMembers, id)
			return
		}
	}
}

func (a *DivisionAggregate) RemoveRequest(id string) {
	for i, r := range a.Requests {
		if r.ID == id {
			a.Requests = append(a.Requests[:i], a.Requests[i+1:]...)
			a.changes.RemovedRequests = append(a.changes.RemovedRequests, id)
			return
		}
	}
}

// RemoveUnit deletes the unit with every membership row and join request attached to it.
func (a *DivisionAggregate) RemoveUnit(id string) {
	for _, r := range a.RequestsFor(id) {
		a.RemoveRequest(r.ID)
	}
	for _, m := range a.MembersOf(id) {
		a.RemoveMember(m.ID)
	}
	for i, u := range a.Units {
		if u.ID == id {
			a.Units = append(a.Units[:i], a.Units[i+1:]...)
			a.changes.RemovedUnits = append(a.changes.RemovedUnits, id)
			return
		}
	}
}

// WaitlistedUnits returns waitlisted units in waitlist order.
func (a *DivisionAggregate) WaitlistedUnits() []*Unit {
	var out []*Unit
	for _, u := range a.UnitsInJoinOrder() {
		if u.Status == UnitWaitlisted {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return position(out[i]) < position(out[j])
	})
	return out
}

func position(u *Unit) int {
	if u.WaitlistPosition == nil {
		return int(^uint(0) >> 1)
	}
	return *u.WaitlistPosition
}

// NextWaitlistPosition is max(existing)+1, or 1 for an empty waitlist.
func (a *DivisionAggregate) NextWaitlistPosition() int {
	maxPos := 0
	for _, u := range a.Units {
		if u.Status == UnitWaitlisted && u.WaitlistPosition != nil && *u.WaitlistPosition > maxPos {
			maxPos = *u.WaitlistPosition
		}
	}
	return maxPos + 1
}

// CompactWaitlist renumbers waitlisted units 1..k keeping their order and clears positions
// held by units that are no longer waitlisted.
func (a *DivisionAggregate) CompactWaitlist() {
	for _, u := range a.Units {
		if u.Status != UnitWaitlisted {
			u.WaitlistPosition = nil
		}
	}
	for i, u := range a.WaitlistedUnits() {
		pos := i + 1
		u.WaitlistPosition = &pos
	}
}

func (a *DivisionAggregate) Match(id string) *Match {
	for _, m := range a.Matches {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (a *DivisionAggregate) Game(id string) *Game {
	for _, g := range a.Games {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// GamesOf returns the match's games in sequence order.
func (a *DivisionAggregate) GamesOf(matchID string) []*Game {
	var out []*Game
	for _, g := range a.Games {
		if g.MatchID == matchID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameNumber < out[j].GameNumber })
	return out
}

// ActiveMatchesFor lists non-cancelled matches the unit is bound to.
func (a *DivisionAggregate) ActiveMatchesFor(unitID string) []*Match {
	var out []*Match
	for _, m := range a.Matches {
		if m.Status != MatchCancelled && m.References(unitID) {
			out = append(out, m)
		}
	}
	return out
}

// ReplaceSchedule drops every match, game and court binding and installs the new set.
func (a *DivisionAggregate) ReplaceSchedule(matches []*Match, games []*Game) {
	for _, g := range a.Games {
		if g.CourtID != nil && (g.Status == GameQueued || g.Status == GamePlaying) {
			a.ReleaseCourt(*g.CourtID, g.ID)
		}
		a.changes.RemovedGames = append(a.changes.RemovedGames, g.ID)
	}
	for _, m := range a.Matches {
		a.changes.RemovedMatches = append(a.changes.RemovedMatches, m.ID)
	}
	a.Matches = matches
	a.Games = games
}

func (a *DivisionAggregate) AssignCourt(courtID, gameID string) {
	a.changes.CourtOps = append(a.changes.CourtOps, CourtOp{Kind: CourtAssign, CourtID: courtID, GameID: gameID})
}

func (a *DivisionAggregate) ReleaseCourt(courtID, gameID string) {
	a.changes.CourtOps = append(a.changes.CourtOps, CourtOp{Kind: CourtRelease, CourtID: courtID, GameID: gameID})
}

// ClearUnitNumbers unbinds every unit from its slot.
func (a *DivisionAggregate) ClearUnitNumbers() {
	for _, u := range a.Units {
		u.UnitNumber = nil
		u.PoolNumber = nil
		u.Seed = nil
	}
}

// Now is the clock for persisted timestamps. Microsecond precision survives a Postgres round trip.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
