package services

import (
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
)

// refreshUnitName derives the display name from the accepted roster. Custom names are left alone.
func refreshUnitName(agg *models.DivisionAggregate, u *models.Unit) {
	if u.CustomName {
		return
	}
	accepted := agg.AcceptedMembers(u.ID)
	if len(accepted) == 0 {
		return
	}
	first := agg.Person(accepted[0].UserID)

	switch agg.Division.TeamSize {
	case 1:
		u.Name = lastFirst(first)
	case 2:
		if len(accepted) >= 2 {
			u.Name = firstName(first) + " & " + firstName(agg.Person(accepted[1].UserID))
		} else {
			u.Name = possessiveTeam(first)
		}
	default:
		if u.Name == "" {
			u.Name = possessiveTeam(agg.Person(u.CaptainUserID))
		}
	}
}

func lastFirst(p *models.Person) string {
	switch {
	case p.LastName != "" && p.FirstName != "":
		return p.LastName + ", " + p.FirstName
	case p.LastName != "":
		return p.LastName
	}
	return firstName(p)
}

func firstName(p *models.Person) string {
	if p.FirstName != "" {
		return p.FirstName
	}
	return p.ID
}

func possessiveTeam(p *models.Person) string {
	return firstName(p) + "'s team"
}

func displayName(p *models.Person) string {
	if n := p.FullName(); n != "" {
		return n
	}
	return p.ID
}
