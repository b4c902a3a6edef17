package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/stretchr/testify/require"
)

var organizer = models.Actor{UserID: "org", Role: models.PlatformUser}

func player(id string) models.Actor {
	return models.Actor{UserID: id, Role: models.PlatformUser}
}

// testClock hands out increasing timestamps so join order is unambiguous.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) next() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestAgg(teamSize int) *models.DivisionAggregate {
	agg := &models.DivisionAggregate{
		Event: &models.Event{ID: "ev", Name: "Spring Open", OrganizerID: "org"},
		Division: &models.Division{
			ID:               "div",
			EventID:          "ev",
			Name:             "Open Division",
			TeamSize:         teamSize,
			RegistrationOpen: true,
			EntryFeeCents:    1000,
			BracketType:      models.BracketSingleElimination,
			PoolCount:        1,
			GamesPerMatch:    1,
			ScoreFormat:      models.DefaultScoreFormat(),
			ScheduleStatus:   models.ScheduleOpen,
			DrawingState:     models.DrawingIdle,
		},
		Managers: map[string]bool{},
		People:   map[string]*models.Person{},
	}
	names := [][3]string{
		{"org", "Olga", "Org"},
		{"u1", "Ann", "Lee"},
		{"u2", "Bob", "Ray"},
		{"u3", "Cat", "Kim"},
		{"u4", "Dan", "Fox"},
		{"u5", "Eve", "Ng"},
		{"u6", "Fay", "Ho"},
	}
	for _, n := range names {
		agg.AddPerson(&models.Person{ID: n[0], FirstName: n[1], LastName: n[2], Email: n[0] + "@example.com"})
	}
	return agg
}

func mustRegister(t *testing.T, agg *models.DivisionAggregate, clock *testClock, userID, partnerID string) *models.Unit {
	t.Helper()
	u, err := registerUnit(agg, player(userID), RegisterUnitInput{DivisionID: agg.Division.ID, PartnerUserID: partnerID},
		registrationFacts{}, clock.next(), &outbox{})
	require.NoError(t, err)
	return u
}

// fullUnit registers a unit whose invited players have all accepted.
func fullUnit(t *testing.T, agg *models.DivisionAggregate, clock *testClock, captain string, players ...string) *models.Unit {
	t.Helper()
	u := mustRegister(t, agg, clock, captain, "")
	for _, p := range players {
		now := clock.next()
		agg.AddMember(&models.UnitMember{
			ID: fmt.Sprintf("%s-%s", u.ID, p), UnitID: u.ID, UserID: p, Role: models.RolePlayer,
			InviteStatus: models.InviteAccepted, CreatedAt: now, RespondedAt: &now,
		})
	}
	refreshUnitName(agg, u)
	refreshPayment(agg, u)
	return u
}

func intp(v int) *int { return &v }

func eventTypes(out *outbox) []string {
	var types []string
	for _, e := range out.events {
		types = append(types, string(e.EventType()))
	}
	return types
}
