package repositories_test

import (
	"context"
	"testing"

	"github.com/LegalDragon/Pickleball-Community-sub007/db/dbtest"
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/LegalDragon/Pickleball-Community-sub007/repositories"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db        *sqlx.DB
	divisions repositories.DivisionRepository
	events    repositories.EventRepository
	users     repositories.UserRepository
	courts    repositories.CourtRepository
	event     *models.Event
	division  *models.Division
}

func setup(t *testing.T) *fixture {
	t.Helper()
	database := dbtest.New(t)
	f := &fixture{
		db:        database,
		divisions: repositories.NewDivisionRepository(database),
		events:    repositories.NewEventRepository(database),
		users:     repositories.NewUserRepository(database),
		courts:    repositories.NewCourtRepository(database),
	}
	ctx := context.Background()

	require.NoError(t, f.users.Upsert(ctx, nil, &models.Person{ID: "org", FirstName: "Olga", LastName: "Org"}))
	require.NoError(t, f.users.Upsert(ctx, nil, &models.Person{ID: "u1", FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"}))
	require.NoError(t, f.users.Upsert(ctx, nil, &models.Person{ID: "u2", FirstName: "Bob", LastName: "Ray"}))

	f.event = &models.Event{ID: uuid.NewString(), Name: "Spring Open", OrganizerID: "org", CreatedAt: models.Now()}
	require.NoError(t, f.events.Create(ctx, nil, f.event))

	f.division = &models.Division{
		ID:               uuid.NewString(),
		EventID:          f.event.ID,
		Name:             "Mixed Doubles",
		TeamSize:         2,
		RegistrationOpen: true,
		BracketType:      models.BracketSingleElimination,
		PoolCount:        1,
		GamesPerMatch:    1,
		ScoreFormat:      models.DefaultScoreFormat(),
		ScheduleStatus:   models.ScheduleOpen,
		DrawingState:     models.DrawingIdle,
		CreatedAt:        models.Now(),
	}
	require.NoError(t, f.divisions.Create(ctx, nil, f.division))
	return f
}

func (f *fixture) save(t *testing.T, agg *models.DivisionAggregate) {
	t.Helper()
	err := repositories.WithTx(context.Background(), f.db, func(tx *sqlx.Tx) error {
		return f.divisions.Save(context.Background(), tx, agg)
	})
	require.NoError(t, err)
}

func addUnit(agg *models.DivisionAggregate, id, captain string) *models.Unit {
	now := models.Now()
	u := &models.Unit{
		ID:            id,
		DivisionID:    agg.Division.ID,
		Name:          captain + "'s team",
		Status:        models.UnitRegistered,
		CaptainUserID: captain,
		JoinMethod:    models.JoinApproval,
		PaymentStatus: models.PaymentUnpaid,
		CreatedAt:     now,
	}
	agg.AddUnit(u)
	agg.AddMember(&models.UnitMember{
		ID: uuid.NewString(), UnitID: id, UserID: captain, Role: models.RoleCaptain,
		InviteStatus: models.InviteAccepted, CreatedAt: now, RespondedAt: &now,
	})
	return u
}

func TestLoadSaveRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	agg, err := f.divisions.Load(ctx, nil, f.division.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spring Open", agg.Event.Name)
	assert.Equal(t, "Olga", agg.Person("org").FirstName)
	assert.Empty(t, agg.Units)

	unit := addUnit(agg, "unit-a", "u1")
	agg.AddRequest(&models.JoinRequest{
		ID: "req-1", DivisionID: f.division.ID, UnitID: unit.ID, RequesterUserID: "u2",
		Status: models.JoinRequestPending, CreatedAt: models.Now(),
	})
	agg.AddMember(&models.UnitMember{
		ID: "m-prov", UnitID: unit.ID, UserID: "u2", Role: models.RolePlayer,
		InviteStatus: models.InvitePendingJoinRequest, CreatedAt: models.Now(),
	})
	f.save(t, agg)
	assert.Equal(t, 1, agg.Division.Version)

	reloaded, err := f.divisions.Load(ctx, nil, f.division.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Units, 1)
	require.Len(t, reloaded.Members, 2)
	require.Len(t, reloaded.Requests, 1)
	assert.Equal(t, "Ann", reloaded.Person("u1").FirstName)
	assert.Equal(t, models.DefaultScoreFormat(), reloaded.Division.ScoreFormat)
	assert.True(t, reloaded.Division.RegistrationOpen)
	assert.True(t, unit.CreatedAt.Equal(reloaded.Units[0].CreatedAt))

	reloaded.RemoveUnit("unit-a")
	f.save(t, reloaded)

	final, err := f.divisions.Load(ctx, nil, f.division.ID)
	require.NoError(t, err)
	assert.Empty(t, final.Units)
	assert.Empty(t, final.Members)
	assert.Empty(t, final.Requests)
}

func TestSaveRejectsStaleVersion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.divisions.Load(ctx, nil, f.division.ID)
	require.NoError(t, err)
	second, err := f.divisions.Load(ctx, nil, f.division.ID)
	require.NoError(t, err)

	f.save(t, first)

	err = repositories.WithTx(ctx, f.db, func(tx *sqlx.Tx) error {
		return f.divisions.Save(ctx, tx, second)
	})
	assert.ErrorIs(t, err, repositories.ErrVersionConflict)
}

func TestLoadUnknownDivision(t *testing.T) {
	f := setup(t)
	_, err := f.divisions.Load(context.Background(), nil, "missing")
	assert.ErrorIs(t, err, repositories.ErrDivisionNotFound)
}

func TestScheduleReplaceReleasesCourts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	court := &models.Court{ID: "court-1", EventID: f.event.ID, Label: "Court 1", Status: models.CourtAvailable}
	require.NoError(t, f.courts.Create(ctx, nil, court))

	agg, err := f.divisions.Load(ctx, nil, f.division.ID)
	require.NoError(t, err)
	match := &models.Match{
		ID: "match-1", DivisionID: f.division.ID, Phase: models.PhaseBracket, RoundType: models.RoundBracket,
		RoundNumber: 1, RoundName: "Final", MatchNumber: 1, BracketPosition: 1,
		Status: models.MatchScheduled, BestOf: 1, ScoreFormat: models.DefaultScoreFormat(),
	}
	courtID := court.ID
	game := &models.Game{ID: "game-1", MatchID: match.ID, GameNumber: 1, Status: models.GameQueued, CourtID: &courtID}
	agg.Matches = append(agg.Matches, match)
	agg.Games = append(agg.Games, game)
	agg.AssignCourt(court.ID, game.ID)
	f.save(t, agg)

	busy, err := f.courts.GetByID(ctx, nil, court.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CourtInUse, busy.Status)
	require.NotNil(t, busy.CurrentGameID)
	assert.Equal(t, "game-1", *busy.CurrentGameID)

	again, err := f.divisions.Load(ctx, nil, f.division.ID)
	require.NoError(t, err)
	require.Len(t, again.Games, 1)
	again.AssignCourt(court.ID, "other-game")
	err = repositories.WithTx(ctx, f.db, func(tx *sqlx.Tx) error {
		return f.divisions.Save(ctx, tx, again)
	})
	assert.ErrorIs(t, err, repositories.ErrCourtBusy)

	cleared, err := f.divisions.Load(ctx, nil, f.division.ID)
	require.NoError(t, err)
	cleared.ReplaceSchedule(nil, nil)
	f.save(t, cleared)

	free, err := f.courts.GetByID(ctx, nil, court.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CourtAvailable, free.Status)
	assert.Nil(t, free.CurrentGameID)
}

func TestOtherDivisionsOf(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other := *f.division
	other.ID = uuid.NewString()
	other.Name = "Open Singles"
	require.NoError(t, f.divisions.Create(ctx, nil, &other))

	agg, err := f.divisions.Load(ctx, nil, other.ID)
	require.NoError(t, err)
	addUnit(agg, "unit-x", "u1")
	f.save(t, agg)

	ids, err := f.divisions.OtherDivisionsOf(ctx, nil, f.event.ID, "u1", f.division.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID}, ids)

	ids, err = f.divisions.OtherDivisionsOf(ctx, nil, f.event.ID, "u1", other.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFriendships(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.users.AddFriendship(ctx, nil, "u1", "u2"))
	ok, err := f.users.AreFriends(ctx, nil, "u2", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.users.AreFriends(ctx, nil, "u1", "org")
	require.NoError(t, err)
	assert.False(t, ok)
}
