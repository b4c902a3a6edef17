package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/brackets"
	"github.com/LegalDragon/Pickleball-Community-sub007/events"
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GenerateScheduleInput optionally updates the division's schedule configuration before the
// schedule is rebuilt. Nil fields keep the stored value.
type GenerateScheduleInput struct {
	DivisionID           string              `json:"-"`
	TargetUnitCount      *int                `json:"target_unit_count,omitempty"`
	BracketType          *models.BracketType `json:"bracket_type,omitempty"`
	PoolCount            *int                `json:"pool_count,omitempty"`
	GamesPerMatch        *int                `json:"games_per_match,omitempty"`
	ScoreFormat          *string             `json:"score_format,omitempty"`
	PlayoffGamesPerMatch *int                `json:"playoff_games_per_match,omitempty"`
	PlayoffScoreFormat   *string             `json:"playoff_score_format,omitempty"`
	PoolsAdvancing       *int                `json:"pools_advancing,omitempty"`
}

type PoolStanding struct {
	Pool          int    `json:"pool"`
	Rank          int    `json:"rank"`
	UnitID        string `json:"unit_id"`
	UnitName      string `json:"unit_name"`
	UnitNumber    int    `json:"unit_number"`
	MatchesWon    int    `json:"matches_won"`
	MatchesLost   int    `json:"matches_lost"`
	GamesWon      int    `json:"games_won"`
	GamesLost     int    `json:"games_lost"`
	PointsFor     int    `json:"points_for"`
	PointsAgainst int    `json:"points_against"`
}

type ScheduleService interface {
	GenerateSchedule(ctx context.Context, actor models.Actor, in GenerateScheduleInput) (*ScheduleView, error)
	ClearSchedule(ctx context.Context, actor models.Actor, divisionID string) error
	FinalizeSchedule(ctx context.Context, actor models.Actor, divisionID string) (*models.Division, error)
	AssignMatchUnits(ctx context.Context, actor models.Actor, divisionID, matchID string, unit1ID, unit2ID *string) (*models.Match, error)
	SeedPlayoff(ctx context.Context, actor models.Actor, divisionID string) (*ScheduleView, error)
	PoolStandings(ctx context.Context, divisionID string) ([][]PoolStanding, error)
	GetSchedule(ctx context.Context, divisionID string) (*ScheduleView, error)
}

type scheduleService struct {
	runner
}

func NewScheduleService(deps Deps) ScheduleService {
	return &scheduleService{runner{deps: deps.withDefaults()}}
}

func applyScheduleConfig(d *models.Division, in GenerateScheduleInput) error {
	if in.BracketType != nil {
		if !in.BracketType.Valid() {
			return fmt.Errorf("%w: unknown bracket type %q", ErrInvalidScheduleSpec, *in.BracketType)
		}
		d.BracketType = *in.BracketType
	}
	if in.PoolCount != nil {
		d.PoolCount = *in.PoolCount
	}
	if in.GamesPerMatch != nil {
		d.GamesPerMatch = *in.GamesPerMatch
	}
	if in.PlayoffGamesPerMatch != nil {
		d.PlayoffGamesPerMatch = *in.PlayoffGamesPerMatch
	}
	if in.PoolsAdvancing != nil {
		d.PoolsAdvancing = *in.PoolsAdvancing
	}
	if in.ScoreFormat != nil {
		f, err := models.ParseScoreFormat(*in.ScoreFormat)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidScheduleSpec, err)
		}
		d.ScoreFormat = f
	}
	if in.PlayoffScoreFormat != nil {
		f, err := models.ParseScoreFormat(*in.PlayoffScoreFormat)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidScheduleSpec, err)
		}
		d.PlayoffScoreFormat = f
	}
	return nil
}

func matchID(divisionID, uid string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("division/"+divisionID+"/match/"+uid)).String()
}

func gameID(divisionID, uid string, n int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("division/%s/match/%s/game/%d", divisionID, uid, n))).String()
}

// buildSchedule turns the generated templates into match and game rows with ids derived from
// the division and template key, so the same input always yields the same rows.
func buildSchedule(ctx context.Context, d *models.Division, unitCount int) ([]*models.Match, []*models.Game, error) {
	templates, err := brackets.Generate(ctx, brackets.GenerateBracketParams{
		BracketType:    d.BracketType,
		UnitCount:      unitCount,
		PoolCount:      d.PoolCount,
		PoolsAdvancing: d.PoolsAdvancing,
		PoolBestOf:     d.GamesPerMatch,
		PoolFormat:     d.ScoreFormat,
		PlayoffBestOf:  d.PlayoffBestOf(),
		PlayoffFormat:  d.PlayoffFormat(),
	})
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughUnits) {
			return nil, nil, fmt.Errorf("%w: %v", ErrNotEnoughUnits, err)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidScheduleSpec, err)
	}

	matches := make([]*models.Match, 0, len(templates))
	var games []*models.Game
	for _, t := range templates {
		m := &models.Match{
			ID:              matchID(d.ID, t.UID),
			DivisionID:      d.ID,
			Phase:           t.Phase,
			RoundType:       t.RoundType,
			RoundNumber:     t.Round,
			RoundName:       t.RoundName,
			MatchNumber:     t.Number,
			BracketPosition: t.OrderInRound,
			Unit1Number:     t.Slot1,
			Unit2Number:     t.Slot2,
			Status:          models.MatchScheduled,
			BestOf:          t.BestOf,
			ScoreFormat:     t.ScoreFormat,
		}
		if t.Pool > 0 {
			pool := t.Pool
			m.PoolNumber = &pool
		}
		if t.IsBye {
			m.Status = models.MatchBye
		}
		if t.WinnerNextUID != nil {
			next := matchID(d.ID, *t.WinnerNextUID)
			slot := t.WinnerNextSlot
			m.WinnerNextMatchID = &next
			m.WinnerNextSlot = &slot
		}
		matches = append(matches, m)
		for n := 1; n <= t.BestOf; n++ {
			games = append(games, &models.Game{
				ID:         gameID(d.ID, t.UID, n),
				MatchID:    m.ID,
				GameNumber: n,
				Status:     models.GameNew,
			})
		}
	}
	return matches, games, nil
}

// resetSchedule drops the schedule, slot numbers, statistics and drawing session.
func resetSchedule(agg *models.DivisionAggregate, matches []*models.Match, games []*models.Game) {
	agg.ReplaceSchedule(matches, games)
	agg.ClearUnitNumbers()
	for _, u := range agg.Units {
		resetStats(u)
	}
	d := agg.Division
	d.TargetUnitCount = nil
	d.ScheduleStatus = models.ScheduleOpen
	d.DrawingState = models.DrawingIdle
	d.DrawingSequence = 0
	d.DrawingStartedAt = nil
	d.DrawingStartedBy = nil
}

func resetStats(u *models.Unit) {
	u.MatchesPlayed, u.MatchesWon, u.MatchesLost = 0, 0, 0
	u.GamesPlayed, u.GamesWon, u.GamesLost = 0, 0, 0
	u.PointsFor, u.PointsAgainst = 0, 0
}

func completeEligibleUnits(agg *models.DivisionAggregate) []*models.Unit {
	var out []*models.Unit
	for _, u := range agg.UnitsInJoinOrder() {
		if u.Eligible() && agg.IsComplete(u) {
			out = append(out, u)
		}
	}
	return out
}

func generateSchedule(ctx context.Context, agg *models.DivisionAggregate, in GenerateScheduleInput, out *outbox) error {
	d := agg.Division
	if d.DrawingInProgress() {
		return fmt.Errorf("%w: cancel or complete the drawing first", ErrDrawingInProgress)
	}
	if d.ScheduleStatus == models.ScheduleFinalized {
		return fmt.Errorf("%w: clear the schedule first", ErrScheduleFinalized)
	}
	if err := applyScheduleConfig(d, in); err != nil {
		return err
	}
	unitCount := len(completeEligibleUnits(agg))
	if in.TargetUnitCount != nil {
		unitCount = *in.TargetUnitCount
	}
	matches, games, err := buildSchedule(ctx, d, unitCount)
	if err != nil {
		return err
	}
	resetSchedule(agg, matches, games)
	d.TargetUnitCount = &unitCount
	out.emit(events.ScheduleGenerated{
		DivisionID:  d.ID,
		BracketType: d.BracketType,
		UnitCount:   unitCount,
		MatchCount:  len(matches),
	})
	return nil
}

func (s *scheduleService) GenerateSchedule(ctx context.Context, actor models.Actor, in GenerateScheduleInput) (*ScheduleView, error) {
	agg, err := s.execute(ctx, "generate_schedule", in.DivisionID, func(ctx context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if err := requireManager(agg, actor); err != nil {
			return err
		}
		if err := generateSchedule(ctx, agg, in, out); err != nil {
			return err
		}
		bracketType := string(agg.Division.BracketType)
		out.afterCommit(func() { s.deps.Metrics.IncSchedulesGenerated(bracketType) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scheduleView(agg), nil
}

func (s *scheduleService) ClearSchedule(ctx context.Context, actor models.Actor, divisionID string) error {
	_, err := s.execute(ctx, "clear_schedule", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, _ *outbox) error {
		if err := requireManager(agg, actor); err != nil {
			return err
		}
		if agg.Division.DrawingInProgress() {
			return ErrDrawingInProgress
		}
		resetSchedule(agg, nil, nil)
		return nil
	})
	return err
}

func (s *scheduleService) FinalizeSchedule(ctx context.Context, actor models.Actor, divisionID string) (*models.Division, error) {
	agg, err := s.execute(ctx, "finalize_schedule", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, _ *outbox) error {
		if err := requireManager(agg, actor); err != nil {
			return err
		}
		d := agg.Division
		if !d.ScheduleStatus.CanAdvanceTo(models.ScheduleFinalized) {
			return fmt.Errorf("%w: schedule is %s", ErrInvalidTransition, d.ScheduleStatus)
		}
		d.ScheduleStatus = models.ScheduleFinalized
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agg.Division, nil
}

func assignMatchUnits(agg *models.DivisionAggregate, matchID string, unit1ID, unit2ID *string, now time.Time, out *outbox) (*models.Match, error) {
	m := agg.Match(matchID)
	if m == nil {
		return nil, ErrMatchNotFound
	}
	if m.Status != models.MatchScheduled && m.Status != models.MatchBye || m.WinnerUnitID != nil {
		return nil, fmt.Errorf("%w: match is %s", ErrInvalidTransition, m.Status)
	}
	for _, g := range agg.GamesOf(m.ID) {
		if g.Status != models.GameNew {
			return nil, fmt.Errorf("%w: match has started", ErrInvalidTransition)
		}
	}
	bind := func(slot **string, unitID *string) error {
		if unitID == nil {
			return nil
		}
		u := agg.Unit(*unitID)
		if u == nil {
			return ErrUnitNotFound
		}
		if !u.Eligible() {
			return fmt.Errorf("%w: unit is %s", ErrInvalidAssignment, u.Status)
		}
		if *slot != nil && **slot != *unitID {
			return fmt.Errorf("%w: slot already bound", ErrInvalidAssignment)
		}
		id := u.ID
		*slot = &id
		return nil
	}
	if err := bind(&m.Unit1ID, unit1ID); err != nil {
		return nil, err
	}
	if err := bind(&m.Unit2ID, unit2ID); err != nil {
		return nil, err
	}
	if m.Unit1ID != nil && m.Unit2ID != nil && *m.Unit1ID == *m.Unit2ID {
		return nil, fmt.Errorf("%w: a unit cannot play itself", ErrInvalidAssignment)
	}
	if m.Unit1ID != nil && m.Unit2ID != nil {
		m.Status = models.MatchScheduled
	}
	settleIfReady(agg, m, now, out)
	return m, nil
}

func (s *scheduleService) AssignMatchUnits(ctx context.Context, actor models.Actor, divisionID, matchID string, unit1ID, unit2ID *string) (*models.Match, error) {
	var m *models.Match
	_, err := s.execute(ctx, "assign_match_units", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if err := requireManager(agg, actor); err != nil {
			return err
		}
		var err error
		m, err = assignMatchUnits(agg, matchID, unit1ID, unit2ID, s.deps.Clock(), out)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// poolStandings ranks every pool by match wins, game difference, point difference and slot.
func poolStandings(agg *models.DivisionAggregate) [][]PoolStanding {
	d := agg.Division
	poolCount := max(d.PoolCount, 1)
	rows := make(map[string]*PoolStanding)
	for _, u := range agg.Units {
		if !u.Eligible() || u.UnitNumber == nil {
			continue
		}
		pool := brackets.PoolOf(*u.UnitNumber, poolCount)
		if u.PoolNumber != nil {
			pool = *u.PoolNumber
		}
		rows[u.ID] = &PoolStanding{Pool: pool, UnitID: u.ID, UnitName: u.Name, UnitNumber: *u.UnitNumber}
	}
	for _, m := range agg.Matches {
		if m.Phase != models.PhasePool || m.Status != models.MatchCompleted || m.Unit1ID == nil || m.Unit2ID == nil {
			continue
		}
		a, b := rows[*m.Unit1ID], rows[*m.Unit2ID]
		if a == nil || b == nil {
			continue
		}
		if m.WinnerUnitID != nil && *m.WinnerUnitID == a.UnitID {
			a.MatchesWon++
			b.MatchesLost++
		} else {
			b.MatchesWon++
			a.MatchesLost++
		}
		for _, g := range agg.GamesOf(m.ID) {
			if g.Status != models.GameFinished || g.Unit1Score == nil || g.Unit2Score == nil {
				continue
			}
			s1, s2 := *g.Unit1Score, *g.Unit2Score
			a.PointsFor += s1
			a.PointsAgainst += s2
			b.PointsFor += s2
			b.PointsAgainst += s1
			if s1 > s2 {
				a.GamesWon++
				b.GamesLost++
			} else {
				b.GamesWon++
				a.GamesLost++
			}
		}
	}

	pools := make([][]PoolStanding, poolCount)
	for _, r := range rows {
		if r.Pool < 1 || r.Pool > poolCount {
			continue
		}
		pools[r.Pool-1] = append(pools[r.Pool-1], *r)
	}
	for _, pool := range pools {
		sort.Slice(pool, func(i, j int) bool {
			a, b := pool[i], pool[j]
			if a.MatchesWon != b.MatchesWon {
				return a.MatchesWon > b.MatchesWon
			}
			if ga, gb := a.GamesWon-a.GamesLost, b.GamesWon-b.GamesLost; ga != gb {
				return ga > gb
			}
			if pa, pb := a.PointsFor-a.PointsAgainst, b.PointsFor-b.PointsAgainst; pa != pb {
				return pa > pb
			}
			return a.UnitNumber < b.UnitNumber
		})
		for i := range pool {
			pool[i].Rank = i + 1
		}
	}
	return pools
}

func seedPlayoff(agg *models.DivisionAggregate, now time.Time, out *outbox) error {
	d := agg.Division
	if d.BracketType != models.BracketRoundRobinPlayoff {
		return fmt.Errorf("%w: %s has no playoff", ErrInvalidTransition, d.BracketType)
	}
	if d.ScheduleStatus == models.ScheduleOpen {
		return fmt.Errorf("%w: units are not assigned yet", ErrInvalidTransition)
	}
	var playoff []*models.Match
	for _, m := range agg.Matches {
		switch m.Phase {
		case models.PhasePool:
			if !m.Status.Decided() {
				return ErrPoolPlayIncomplete
			}
		case models.PhasePlayoff:
			playoff = append(playoff, m)
		case models.PhaseBracket:
		}
	}
	if len(playoff) == 0 {
		return ErrNoSchedule
	}
	for _, m := range playoff {
		if m.Unit1ID != nil || m.Unit2ID != nil {
			return ErrPlayoffAlreadySeeded
		}
	}

	standings := poolStandings(agg)
	bySeed := make(map[int]*models.Unit)
	seed := 0
	for rank := 1; rank <= d.PoolsAdvancing; rank++ {
		for _, pool := range standings {
			if rank > len(pool) {
				continue
			}
			seed++
			u := agg.Unit(pool[rank-1].UnitID)
			s := seed
			u.Seed = &s
			bySeed[seed] = u
		}
	}

	var firstRound []*models.Match
	for _, m := range playoff {
		if m.Unit1Number == nil {
			continue
		}
		m.Unit1ID = slotUnit(bySeed, m.Unit1Number)
		m.Unit2ID = slotUnit(bySeed, m.Unit2Number)
		m.Status = models.MatchScheduled
		firstRound = append(firstRound, m)
	}
	for _, m := range firstRound {
		settleIfReady(agg, m, now, out)
	}
	return nil
}

func (s *scheduleService) SeedPlayoff(ctx context.Context, actor models.Actor, divisionID string) (*ScheduleView, error) {
	agg, err := s.execute(ctx, "seed_playoff", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if err := requireManager(agg, actor); err != nil {
			return err
		}
		return seedPlayoff(agg, s.deps.Clock(), out)
	})
	if err != nil {
		return nil, err
	}
	return scheduleView(agg), nil
}

func (s *scheduleService) PoolStandings(ctx context.Context, divisionID string) ([][]PoolStanding, error) {
	agg, err := s.read(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	if !agg.Division.BracketType.HasPools() {
		return nil, fmt.Errorf("%w: %s has no pools", ErrValidationFailed, agg.Division.BracketType)
	}
	return poolStandings(agg), nil
}

func (s *scheduleService) GetSchedule(ctx context.Context, divisionID string) (*ScheduleView, error) {
	agg, err := s.read(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	return scheduleView(agg), nil
}
