package services

import (
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/brackets"
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
)

// bindSlots binds drawn or assigned unit numbers to every pool and bracket match. Playoff
// matches keep their seeds until pool play is over.
func bindSlots(agg *models.DivisionAggregate, now time.Time, out *outbox) {
	bySlot := make(map[int]*models.Unit)
	for _, u := range agg.Units {
		if u.Eligible() && u.UnitNumber != nil {
			bySlot[*u.UnitNumber] = u
		}
	}
	d := agg.Division
	for _, u := range bySlot {
		if d.BracketType.HasPools() {
			pool := brackets.PoolOf(*u.UnitNumber, d.PoolCount)
			u.PoolNumber = &pool
		}
		seed := *u.UnitNumber
		u.Seed = &seed
	}

	var firstRound []*models.Match
	for _, m := range agg.Matches {
		if m.Phase == models.PhasePlayoff {
			continue
		}
		m.Unit1ID = slotUnit(bySlot, m.Unit1Number)
		m.Unit2ID = slotUnit(bySlot, m.Unit2Number)
		m.WinnerUnitID = nil
		m.Status = models.MatchScheduled
		if m.Phase == models.PhasePool {
			if m.Unit1ID == nil || m.Unit2ID == nil {
				m.Status = models.MatchCancelled
			}
			continue
		}
		if m.Unit1Number != nil {
			firstRound = append(firstRound, m)
		}
	}
	for _, m := range firstRound {
		settleIfReady(agg, m, now, out)
	}
}

func slotUnit(bySlot map[int]*models.Unit, slot *int) *string {
	if slot == nil {
		return nil
	}
	u, ok := bySlot[*slot]
	if !ok {
		return nil
	}
	id := u.ID
	return &id
}

// feedersOf lists the matches whose winners statically feed m.
func feedersOf(agg *models.DivisionAggregate, m *models.Match) []*models.Match {
	var out []*models.Match
	for _, f := range agg.Matches {
		if f.WinnerNextMatchID != nil && *f.WinnerNextMatchID == m.ID {
			out = append(out, f)
		}
	}
	return out
}

// settleIfReady turns a match that can only ever hold one unit into a bye, and a match that
// can hold none into an empty bye, then carries the outcome forward. Matches that still wait
// for a feeder or a dropped loser are left alone.
func settleIfReady(agg *models.DivisionAggregate, m *models.Match, now time.Time, out *outbox) {
	if m.Status != models.MatchScheduled && m.Status != models.MatchBye {
		return
	}
	if m.Unit1ID != nil && m.Unit2ID != nil {
		m.Status = models.MatchScheduled
		return
	}
	if m.Unit1Number == nil {
		feeders := feedersOf(agg, m)
		if len(feeders) < 2 {
			return
		}
		for _, f := range feeders {
			if !f.Status.Decided() {
				return
			}
		}
	}

	m.Status = models.MatchBye
	switch {
	case m.Unit1ID != nil:
		m.WinnerUnitID = m.Unit1ID
	case m.Unit2ID != nil:
		m.WinnerUnitID = m.Unit2ID
	default:
		m.WinnerUnitID = nil
	}
	advanceWinner(agg, m, now, out)
}

// advanceWinner places the match winner into the slot its bracket position feeds.
func advanceWinner(agg *models.DivisionAggregate, m *models.Match, now time.Time, out *outbox) {
	if m.WinnerNextMatchID == nil {
		return
	}
	next := agg.Match(*m.WinnerNextMatchID)
	if next == nil {
		return
	}
	var winner *string
	if m.WinnerUnitID != nil {
		id := *m.WinnerUnitID
		winner = &id
	}
	if m.WinnerNextSlot != nil && *m.WinnerNextSlot == 2 {
		next.Unit2ID = winner
	} else {
		next.Unit1ID = winner
	}
	settleIfReady(agg, next, now, out)
}
