package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/LegalDragon/Pickleball-Community-sub007/events"
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// firstPick always draws the earliest undrawn unit and never shuffles.
type firstPick struct{}

func (firstPick) IntN(int) int { return 0 }

func (firstPick) Perm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// lastPick always draws the latest undrawn unit.
type lastPick struct{ firstPick }

func (lastPick) IntN(n int) int { return n - 1 }

// singlesField returns a closed singles division with n complete units.
func singlesField(t *testing.T, n int) (*models.DivisionAggregate, *testClock, []*models.Unit) {
	t.Helper()
	agg := newTestAgg(1)
	clock := newTestClock()
	var units []*models.Unit
	for i := 1; i <= n; i++ {
		units = append(units, fullUnit(t, agg, clock, fmt.Sprintf("u%d", i)))
	}
	agg.Division.RegistrationOpen = false
	return agg, clock, units
}

func TestDrawNextAssignsDistinctNumbers(t *testing.T) {
	agg, clock, units := singlesField(t, 4)
	require.NoError(t, generateSchedule(context.Background(), agg, GenerateScheduleInput{}, &outbox{}))
	require.NoError(t, startDrawing(agg, organizer, clock.next(), &outbox{}))
	assert.Equal(t, models.DrawingInProgress, agg.Division.DrawingState)

	rng := NewRandomizer(7)
	seen := map[string]int{}
	for i := 1; i <= len(units); i++ {
		if i == len(units) {
			assert.ErrorIs(t, completeDrawing(agg, clock.next(), &outbox{}), ErrUndrawnUnits)
		}
		drawn, err := drawNext(agg, rng, &outbox{})
		require.NoError(t, err)
		assert.Equal(t, i, drawn.UnitNumber)
		assert.Equal(t, len(units)-i, drawn.Remaining)
		_, dup := seen[drawn.UnitID]
		assert.False(t, dup, "unit drawn twice")
		seen[drawn.UnitID] = drawn.UnitNumber
	}

	_, err := drawNext(agg, rng, &outbox{})
	assert.ErrorIs(t, err, ErrNoUndrawnUnits)

	out := &outbox{}
	require.NoError(t, completeDrawing(agg, clock.next(), out))
	assert.Equal(t, models.ScheduleUnitsAssigned, agg.Division.ScheduleStatus)
	assert.Equal(t, models.DrawingCompleted, agg.Division.DrawingState)
	for _, u := range units {
		require.NotNil(t, u.UnitNumber)
		assert.Equal(t, seen[u.ID], *u.UnitNumber)
		assert.Equal(t, *u.UnitNumber, *u.Seed)
	}
	completed := out.events[len(out.events)-1].(events.DrawingCompleted)
	assert.True(t, completed.Live)
	assert.Len(t, completed.Assignments, 4)
	assert.Equal(t, "org", completed.StartedBy)

	_, err = drawNext(agg, rng, &outbox{})
	assert.ErrorIs(t, err, ErrDrawingNotInProgress)
}

func TestDrawNextFollowsRandomizer(t *testing.T) {
	agg, clock, units := singlesField(t, 3)
	require.NoError(t, startDrawing(agg, organizer, clock.next(), &outbox{}))
	for _, want := range units {
		drawn, err := drawNext(agg, firstPick{}, &outbox{})
		require.NoError(t, err)
		assert.Equal(t, want.ID, drawn.UnitID)
	}
}

func TestNumberingPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(agg *models.DivisionAggregate, units []*models.Unit)
		want    error
	}{
		{
			name:    "registration open",
			prepare: func(agg *models.DivisionAggregate, _ []*models.Unit) { agg.Division.RegistrationOpen = true },
			want:    ErrRegistrationOpen,
		},
		{
			name: "drawing in progress",
			prepare: func(agg *models.DivisionAggregate, _ []*models.Unit) {
				agg.Division.DrawingState = models.DrawingInProgress
			},
			want: ErrDrawingInProgress,
		},
		{
			name: "finalized",
			prepare: func(agg *models.DivisionAggregate, _ []*models.Unit) {
				agg.Division.ScheduleStatus = models.ScheduleFinalized
			},
			want: ErrScheduleFinalized,
		},
		{
			name:    "incomplete units",
			prepare: func(agg *models.DivisionAggregate, _ []*models.Unit) { agg.Division.TeamSize = 2 },
			want:    ErrIncompleteUnits,
		},
		{
			name: "one eligible unit",
			prepare: func(_ *models.DivisionAggregate, units []*models.Unit) {
				units[1].Status = models.UnitCancelled
				units[2].Status = models.UnitWaitlisted
			},
			want: ErrNotEnoughUnits,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, clock, units := singlesField(t, 3)
			tt.prepare(agg, units)
			assert.ErrorIs(t, startDrawing(agg, organizer, clock.next(), &outbox{}), tt.want)
			assert.ErrorIs(t, assignUnitNumbers(agg, nil, firstPick{}, clock.next(), &outbox{}), tt.want)
		})
	}
}

func drawAll(t *testing.T, agg *models.DivisionAggregate, clock *testClock, rng Randomizer) {
	t.Helper()
	require.NoError(t, startDrawing(agg, organizer, clock.next(), &outbox{}))
	for range undrawnUnits(agg) {
		_, err := drawNext(agg, rng, &outbox{})
		require.NoError(t, err)
	}
	require.NoError(t, completeDrawing(agg, clock.next(), &outbox{}))
}

func TestRedrawBeforePlayStarts(t *testing.T) {
	agg, clock, units := singlesField(t, 4)
	require.NoError(t, generateSchedule(context.Background(), agg, GenerateScheduleInput{}, &outbox{}))
	drawAll(t, agg, clock, firstPick{})
	require.Equal(t, models.ScheduleUnitsAssigned, agg.Division.ScheduleStatus)
	opener := agg.Match(matchID("div", "B-R1-M1"))
	require.NotNil(t, opener.Unit1ID)
	assert.Equal(t, units[0].ID, *opener.Unit1ID)

	require.NoError(t, startDrawing(agg, organizer, clock.next(), &outbox{}))
	assert.Equal(t, models.ScheduleOpen, agg.Division.ScheduleStatus)
	assert.Nil(t, opener.Unit1ID)
	assert.Nil(t, opener.Unit2ID)
	for _, u := range units {
		assert.Nil(t, u.UnitNumber)
	}
	require.NoError(t, cancelDrawing(agg, &outbox{}))
	assert.Nil(t, opener.Unit1ID)

	drawAll(t, agg, clock, lastPick{})
	assert.Equal(t, models.ScheduleUnitsAssigned, agg.Division.ScheduleStatus)
	require.NotNil(t, opener.Unit1ID)
	assert.Equal(t, units[3].ID, *opener.Unit1ID)

	numbers := map[string]int{units[0].ID: 4, units[1].ID: 3, units[2].ID: 2, units[3].ID: 1}
	require.NoError(t, assignUnitNumbers(agg, numbers, firstPick{}, clock.next(), &outbox{}))
	assert.Equal(t, units[3].ID, *opener.Unit1ID)
	require.NotNil(t, opener.Unit2ID)
	assert.Equal(t, units[0].ID, *opener.Unit2ID)
}

func TestRenumberingBlockedOncePlayStarts(t *testing.T) {
	agg, clock, _ := singlesField(t, 4)
	require.NoError(t, generateSchedule(context.Background(), agg, GenerateScheduleInput{}, &outbox{}))
	drawAll(t, agg, clock, firstPick{})
	agg.GamesOf(matchID("div", "B-R1-M1"))[0].Status = models.GameQueued

	assert.ErrorIs(t, startDrawing(agg, organizer, clock.next(), &outbox{}), ErrUnitsAlreadyAssigned)
	assert.ErrorIs(t, assignUnitNumbers(agg, nil, firstPick{}, clock.next(), &outbox{}), ErrUnitsAlreadyAssigned)
	assert.Equal(t, models.ScheduleUnitsAssigned, agg.Division.ScheduleStatus)
}

func TestNumberingNeedsEnoughSlots(t *testing.T) {
	agg, clock, _ := singlesField(t, 3)
	require.NoError(t, generateSchedule(context.Background(), agg, GenerateScheduleInput{TargetUnitCount: intp(2)}, &outbox{}))
	assert.ErrorIs(t, startDrawing(agg, organizer, clock.next(), &outbox{}), ErrSlotsExhausted)
	assert.ErrorIs(t, assignUnitNumbers(agg, nil, firstPick{}, clock.next(), &outbox{}), ErrSlotsExhausted)

	require.NoError(t, generateSchedule(context.Background(), agg, GenerateScheduleInput{TargetUnitCount: intp(4)}, &outbox{}))
	assert.NoError(t, startDrawing(agg, organizer, clock.next(), &outbox{}))
}

func TestCancelDrawingResetsSession(t *testing.T) {
	agg, clock, units := singlesField(t, 3)
	out := &outbox{}
	require.NoError(t, startDrawing(agg, organizer, clock.next(), out))
	_, err := drawNext(agg, firstPick{}, out)
	require.NoError(t, err)
	require.NotNil(t, units[0].UnitNumber)

	require.NoError(t, cancelDrawing(agg, out))
	d := agg.Division
	assert.Equal(t, models.DrawingIdle, d.DrawingState)
	assert.Zero(t, d.DrawingSequence)
	assert.Nil(t, d.DrawingStartedBy)
	assert.Nil(t, d.DrawingStartedAt)
	for _, u := range units {
		assert.Nil(t, u.UnitNumber)
	}
	assert.Equal(t, []string{
		string(events.TypeDrawingStarted),
		string(events.TypeUnitDrawn),
		string(events.TypeDrawingCancelled),
	}, eventTypes(out))

	assert.ErrorIs(t, cancelDrawing(agg, &outbox{}), ErrDrawingNotInProgress)
	require.NoError(t, startDrawing(agg, organizer, clock.next(), &outbox{}), "a cancelled drawing can start again")
}

func TestAssignUnitNumbersValidation(t *testing.T) {
	tests := []struct {
		name    string
		numbers func(units []*models.Unit) map[string]int
	}{
		{"too few", func(u []*models.Unit) map[string]int { return map[string]int{u[0].ID: 1, u[1].ID: 2} }},
		{"unknown unit", func(u []*models.Unit) map[string]int {
			return map[string]int{u[0].ID: 1, u[1].ID: 2, "ghost": 3}
		}},
		{"out of range", func(u []*models.Unit) map[string]int {
			return map[string]int{u[0].ID: 1, u[1].ID: 2, u[2].ID: 4}
		}},
		{"duplicate", func(u []*models.Unit) map[string]int {
			return map[string]int{u[0].ID: 1, u[1].ID: 1, u[2].ID: 2}
		}},
		{"zero", func(u []*models.Unit) map[string]int {
			return map[string]int{u[0].ID: 0, u[1].ID: 1, u[2].ID: 2}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, clock, units := singlesField(t, 3)
			err := assignUnitNumbers(agg, tt.numbers(units), firstPick{}, clock.next(), &outbox{})
			assert.ErrorIs(t, err, ErrInvalidAssignment)
			assert.Equal(t, models.ScheduleOpen, agg.Division.ScheduleStatus)
		})
	}
}

func TestAssignUnitNumbersRandom(t *testing.T) {
	agg, clock, units := singlesField(t, 3)
	out := &outbox{}
	require.NoError(t, assignUnitNumbers(agg, nil, firstPick{}, clock.next(), out))

	for i, u := range units {
		require.NotNil(t, u.UnitNumber)
		assert.Equal(t, i+1, *u.UnitNumber)
	}
	assert.Equal(t, models.ScheduleUnitsAssigned, agg.Division.ScheduleStatus)
	assert.Equal(t, models.DrawingIdle, agg.Division.DrawingState)
	completed := out.events[0].(events.DrawingCompleted)
	assert.False(t, completed.Live)
}

func TestAssignedNumbersBindByes(t *testing.T) {
	agg, clock, units := singlesField(t, 3)
	require.NoError(t, generateSchedule(context.Background(), agg, GenerateScheduleInput{}, &outbox{}))
	numbers := map[string]int{units[0].ID: 3, units[1].ID: 1, units[2].ID: 2}
	require.NoError(t, assignUnitNumbers(agg, numbers, firstPick{}, clock.next(), &outbox{}))

	bye := agg.Match(matchID("div", "B-R1-M1"))
	require.NotNil(t, bye)
	assert.Equal(t, models.MatchBye, bye.Status)
	require.NotNil(t, bye.WinnerUnitID)
	assert.Equal(t, units[1].ID, *bye.WinnerUnitID)

	semi := agg.Match(matchID("div", "B-R1-M2"))
	assert.Equal(t, models.MatchScheduled, semi.Status)
	require.NotNil(t, semi.Unit1ID)
	require.NotNil(t, semi.Unit2ID)
	assert.Equal(t, units[2].ID, *semi.Unit1ID)
	assert.Equal(t, units[0].ID, *semi.Unit2ID)

	final := agg.Match(matchID("div", "B-R2-M1"))
	assert.Equal(t, models.MatchScheduled, final.Status)
	require.NotNil(t, final.Unit1ID)
	assert.Equal(t, units[1].ID, *final.Unit1ID)
	assert.Nil(t, final.Unit2ID)
}
