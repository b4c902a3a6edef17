package services

import (
	"fmt"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
)

// playersInPlay counts accepted members of admitted units.
func playersInPlay(agg *models.DivisionAggregate) int {
	n := 0
	for _, u := range agg.Units {
		if u.Status.Admitted() {
			n += len(agg.AcceptedMembers(u.ID))
		}
	}
	return n
}

// completeUnitsInPlay counts admitted units with a full roster.
func completeUnitsInPlay(agg *models.DivisionAggregate) int {
	n := 0
	for _, u := range agg.Units {
		if u.Status.Admitted() && agg.IsComplete(u) {
			n++
		}
	}
	return n
}

// admitNewUnit decides whether a unit about to be created may take a place. A zero-valued
// reason means it may.
func admitNewUnit(agg *models.DivisionAggregate) (bool, string) {
	d := agg.Division
	if d.MaxUnits != nil && completeUnitsInPlay(agg) >= *d.MaxUnits {
		return false, fmt.Sprintf("The division is limited to %d units.", *d.MaxUnits)
	}
	if d.MaxPlayers != nil && playersInPlay(agg) >= *d.MaxPlayers {
		return false, fmt.Sprintf("The division is limited to %d players.", *d.MaxPlayers)
	}
	return true, ""
}

// admitMember decides whether one more accepted player fits an admitted unit.
func admitMember(agg *models.DivisionAggregate) (bool, string) {
	d := agg.Division
	if d.MaxPlayers != nil && playersInPlay(agg) >= *d.MaxPlayers {
		return false, fmt.Sprintf("The division is limited to %d players.", *d.MaxPlayers)
	}
	return true, ""
}

// fitsOnPromotion checks the hard caps for moving a waitlisted unit into the field.
func fitsOnPromotion(agg *models.DivisionAggregate, u *models.Unit) bool {
	d := agg.Division
	if d.MaxPlayers != nil && playersInPlay(agg)+len(agg.AcceptedMembers(u.ID)) > *d.MaxPlayers {
		return false
	}
	if d.MaxUnits != nil && agg.IsComplete(u) && completeUnitsInPlay(agg)+1 > *d.MaxUnits {
		return false
	}
	return true
}

// waitlistUnit moves the unit to the end of the waitlist.
func waitlistUnit(agg *models.DivisionAggregate, u *models.Unit) {
	pos := agg.NextWaitlistPosition()
	u.Status = models.UnitWaitlisted
	u.WaitlistPosition = &pos
}

// refreshPayment sums accepted members' payments into the unit and derives its status.
func refreshPayment(agg *models.DivisionAggregate, u *models.Unit) {
	accepted := agg.AcceptedMembers(u.ID)
	var paid int64
	for _, m := range accepted {
		paid += m.AmountPaidCents
	}
	u.AmountPaidCents = paid

	due := agg.Division.EntryFeeCents * int64(len(accepted))
	switch {
	case paid >= due:
		u.PaymentStatus = models.PaymentPaid
	case paid > 0:
		u.PaymentStatus = models.PaymentPartial
	default:
		u.PaymentStatus = models.PaymentUnpaid
	}
}

// ensureUnscheduled rejects roster changes on units already placed in live matches.
func ensureUnscheduled(agg *models.DivisionAggregate, units ...*models.Unit) error {
	for _, u := range units {
		if len(agg.ActiveMatchesFor(u.ID)) > 0 {
			return fmt.Errorf("%w: %s", ErrScheduleLocked, u.Name)
		}
	}
	return nil
}
