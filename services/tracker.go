package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/events"
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/LegalDragon/Pickleball-Community-sub007/repositories"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LosersFeed decides where the loser of a completed bracket match drops to. It runs inside
// the completing command's transaction and may bind units on other matches.
type LosersFeed interface {
	OnMatchCompleted(agg *models.DivisionAggregate, match *models.Match) error
}

// ManualLosersFeed leaves losers-bracket slots to operators (AssignMatchUnits).
type ManualLosersFeed struct{}

func (ManualLosersFeed) OnMatchCompleted(*models.DivisionAggregate, *models.Match) error { return nil }

type ScoreInput struct {
	Unit1Score int `json:"unit1_score"`
	Unit2Score int `json:"unit2_score"`
}

func (s ScoreInput) validate() error {
	if s.Unit1Score < 0 || s.Unit2Score < 0 || s.Unit1Score == s.Unit2Score {
		return ErrInvalidScore
	}
	return nil
}

type TrackerService interface {
	CreateCourt(ctx context.Context, actor models.Actor, divisionID, label string) (*models.Court, error)
	ListCourts(ctx context.Context, divisionID string) ([]*models.Court, error)
	QueueGame(ctx context.Context, actor models.Actor, divisionID, gameID, courtID string) (*models.Game, error)
	StartGame(ctx context.Context, actor models.Actor, divisionID, gameID string) (*models.Game, error)
	SubmitScore(ctx context.Context, actor models.Actor, divisionID, gameID string, score ScoreInput) (*models.Game, error)
	ConfirmScore(ctx context.Context, actor models.Actor, divisionID, gameID string) (*models.Game, error)
	DisputeScore(ctx context.Context, actor models.Actor, divisionID, gameID, reason string) (*models.Game, error)
	ResolveDispute(ctx context.Context, actor models.Actor, divisionID, gameID string, score ScoreInput) (*models.Game, error)
}

type trackerService struct {
	runner
}

func NewTrackerService(deps Deps) TrackerService {
	return &trackerService{runner{deps: deps.withDefaults()}}
}

type progress struct {
	agg   *models.DivisionAggregate
	feed  LosersFeed
	now   time.Time
	out   *outbox
	games int
}

func (p *progress) changed(m *models.Match, g *models.Game, from models.GameStatus) {
	p.out.emit(events.GameStatusChanged{
		DivisionID: p.agg.Division.ID,
		MatchID:    m.ID,
		GameID:     g.ID,
		From:       from,
		To:         g.Status,
		CourtID:    g.CourtID,
	})
}

// gameInPlay finds a game and its match and checks the match can be played.
func gameInPlay(agg *models.DivisionAggregate, gameID string) (*models.Match, *models.Game, error) {
	g := agg.Game(gameID)
	if g == nil {
		return nil, nil, ErrGameNotFound
	}
	m := agg.Match(g.MatchID)
	if m == nil {
		return nil, nil, ErrMatchNotFound
	}
	return m, g, nil
}

func checkMatchReady(agg *models.DivisionAggregate, m *models.Match, g *models.Game) error {
	if m.Unit1ID == nil || m.Unit2ID == nil {
		return fmt.Errorf("%w: both units must be bound", ErrMatchNotReady)
	}
	if m.Status != models.MatchScheduled && m.Status != models.MatchInProgress {
		return fmt.Errorf("%w: match is %s", ErrMatchNotReady, m.Status)
	}
	for _, prev := range agg.GamesOf(m.ID) {
		if prev.GameNumber < g.GameNumber && prev.Status != models.GameFinished {
			return fmt.Errorf("%w: game %d", ErrPreviousGameOpen, prev.GameNumber)
		}
	}
	return nil
}

func queueGame(p *progress, g *models.Game, m *models.Match, court *models.Court) error {
	if err := checkMatchReady(p.agg, m, g); err != nil {
		return err
	}
	if !g.Status.CanTransitionTo(models.GameQueued) {
		return fmt.Errorf("%w: game is %s", ErrInvalidTransition, g.Status)
	}
	if court.EventID != p.agg.Division.EventID {
		return ErrCourtNotFound
	}
	if court.CurrentGameID != nil {
		return ErrCourtBusy
	}
	from := g.Status
	courtID := court.ID
	g.CourtID = &courtID
	g.Status = models.GameQueued
	g.QueuedAt = &p.now
	p.agg.AssignCourt(court.ID, g.ID)
	p.changed(m, g, from)
	return nil
}

func startGame(p *progress, g *models.Game, m *models.Match) error {
	if err := checkMatchReady(p.agg, m, g); err != nil {
		return err
	}
	if !g.Status.CanTransitionTo(models.GamePlaying) {
		return fmt.Errorf("%w: game is %s", ErrInvalidTransition, g.Status)
	}
	from := g.Status
	g.Status = models.GamePlaying
	g.StartedAt = &p.now
	if m.Status == models.MatchScheduled {
		m.Status = models.MatchInProgress
	}
	p.changed(m, g, from)
	return nil
}

// actingSide returns the side (1 or 2) of the match the actor plays for, or 0.
func actingSide(agg *models.DivisionAggregate, m *models.Match, actor models.Actor) int {
	for side, unitID := range []*string{m.Unit1ID, m.Unit2ID} {
		if unitID == nil {
			continue
		}
		if mem := agg.Member(*unitID, actor.UserID); mem != nil && mem.Accepted() {
			return side + 1
		}
	}
	return 0
}

func sideUnit(m *models.Match, side int) *string {
	if side == 1 {
		return m.Unit1ID
	}
	return m.Unit2ID
}

func submitScore(p *progress, actor models.Actor, g *models.Game, m *models.Match, score ScoreInput) error {
	if err := score.validate(); err != nil {
		return err
	}
	if g.Status != models.GamePlaying {
		return fmt.Errorf("%w: game is %s", ErrInvalidTransition, g.Status)
	}
	if p.agg.IsManager(actor) {
		return finishGame(p, g, m, score)
	}
	side := actingSide(p.agg, m, actor)
	if side == 0 {
		return ErrNotUnitMember
	}
	s1, s2 := score.Unit1Score, score.Unit2Score
	g.Unit1Score, g.Unit2Score = &s1, &s2
	submitter := *sideUnit(m, side)
	g.SubmittedByUnitID = &submitter
	g.SubmittedAt = &p.now
	g.DisputeReason, g.DisputedAt = nil, nil
	return nil
}

// opposingSide checks the actor plays for the unit that did not submit the pending score.
func opposingSide(agg *models.DivisionAggregate, actor models.Actor, g *models.Game, m *models.Match) error {
	if !g.HasPendingScore() {
		return ErrScoreNotSubmitted
	}
	side := actingSide(agg, m, actor)
	if side == 0 {
		return ErrNotUnitMember
	}
	if unit := sideUnit(m, side); unit != nil && *unit == *g.SubmittedByUnitID {
		return fmt.Errorf("%w: the other unit must respond to a submitted score", ErrForbidden)
	}
	return nil
}

func confirmScore(p *progress, actor models.Actor, g *models.Game, m *models.Match) error {
	if err := opposingSide(p.agg, actor, g, m); err != nil {
		return err
	}
	if g.DisputeReason != nil {
		return ErrScoreDisputed
	}
	confirmer := *sideUnit(m, actingSide(p.agg, m, actor))
	g.ConfirmedByUnitID = &confirmer
	return finishGame(p, g, m, ScoreInput{Unit1Score: *g.Unit1Score, Unit2Score: *g.Unit2Score})
}

func disputeScore(p *progress, actor models.Actor, g *models.Game, m *models.Match, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	if err := opposingSide(p.agg, actor, g, m); err != nil {
		return err
	}
	g.DisputeReason = &reason
	g.DisputedAt = &p.now
	return nil
}

func resolveDispute(p *progress, g *models.Game, m *models.Match, score ScoreInput) error {
	if err := score.validate(); err != nil {
		return err
	}
	if g.Status != models.GamePlaying {
		return fmt.Errorf("%w: game is %s", ErrInvalidTransition, g.Status)
	}
	return finishGame(p, g, m, score)
}

// finishGame records the final score, frees the court and completes the match once a unit
// has won enough games.
func finishGame(p *progress, g *models.Game, m *models.Match, score ScoreInput) error {
	s1, s2 := score.Unit1Score, score.Unit2Score
	winnerSide := 1
	if s2 > s1 {
		winnerSide = 2
	}
	winner, loser := sideUnit(m, winnerSide), sideUnit(m, 3-winnerSide)
	from := g.Status
	winnerID := *winner
	g.Unit1Score, g.Unit2Score = &s1, &s2
	g.WinnerUnitID = &winnerID
	g.Status = models.GameFinished
	g.FinishedAt = &p.now
	g.ConfirmedAt = &p.now
	if g.CourtID != nil {
		p.agg.ReleaseCourt(*g.CourtID, g.ID)
	}
	p.games++

	u1, u2 := p.agg.Unit(*m.Unit1ID), p.agg.Unit(*m.Unit2ID)
	for _, side := range []struct {
		u      *models.Unit
		pf, pa int
		won    bool
	}{{u1, s1, s2, winnerSide == 1}, {u2, s2, s1, winnerSide == 2}} {
		if side.u == nil {
			continue
		}
		side.u.GamesPlayed++
		side.u.PointsFor += side.pf
		side.u.PointsAgainst += side.pa
		if side.won {
			side.u.GamesWon++
		} else {
			side.u.GamesLost++
		}
	}
	if winnerSide == 1 {
		m.Unit1GamesWon++
	} else {
		m.Unit2GamesWon++
	}
	p.changed(m, g, from)

	if m.Unit1GamesWon >= m.GamesToWin() || m.Unit2GamesWon >= m.GamesToWin() {
		return completeMatch(p, m, winner, loser)
	}
	return nil
}

func completeMatch(p *progress, m *models.Match, winner, loser *string) error {
	winnerID := *winner
	m.WinnerUnitID = &winnerID
	m.Status = models.MatchCompleted
	m.CompletedAt = &p.now
	for _, g := range p.agg.GamesOf(m.ID) {
		if g.Status == models.GameNew || g.Status == models.GameQueued {
			from := g.Status
			if g.CourtID != nil && g.Status == models.GameQueued {
				p.agg.ReleaseCourt(*g.CourtID, g.ID)
			}
			g.Status = models.GameCancelled
			p.changed(m, g, from)
		}
	}
	if u := p.agg.Unit(winnerID); u != nil {
		u.MatchesPlayed++
		u.MatchesWon++
	}
	loserID := ""
	if loser != nil {
		loserID = *loser
		if u := p.agg.Unit(loserID); u != nil {
			u.MatchesPlayed++
			u.MatchesLost++
		}
	}
	advanceWinner(p.agg, m, p.now, p.out)
	if m.Phase != models.PhasePool {
		if err := p.feed.OnMatchCompleted(p.agg, m); err != nil {
			return fmt.Errorf("feed losers bracket: %w", err)
		}
	}
	p.out.emit(events.MatchCompleted{
		DivisionID:    p.agg.Division.ID,
		MatchID:       m.ID,
		WinnerUnitID:  winnerID,
		LoserUnitID:   loserID,
		Unit1GamesWon: m.Unit1GamesWon,
		Unit2GamesWon: m.Unit2GamesWon,
	})
	return nil
}

// gameCommand runs a game transition and reports finished games to metrics after commit.
func (s *trackerService) gameCommand(ctx context.Context, command, divisionID, gameID string, fn func(ctx context.Context, tx *sqlx.Tx, p *progress, m *models.Match, g *models.Game) error) (*models.Game, error) {
	var game *models.Game
	_, err := s.execute(ctx, command, divisionID, func(ctx context.Context, tx *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		m, g, err := gameInPlay(agg, gameID)
		if err != nil {
			return err
		}
		p := &progress{agg: agg, feed: s.deps.LosersFeed, now: s.deps.Clock(), out: out}
		if err := fn(ctx, tx, p, m, g); err != nil {
			return err
		}
		if finished := p.games; finished > 0 {
			out.afterCommit(func() {
				for range finished {
					s.deps.Metrics.IncGamesFinished()
				}
			})
		}
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (s *trackerService) CreateCourt(ctx context.Context, actor models.Actor, divisionID, label string) (*models.Court, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrInvalidCourtLabel
	}
	agg, err := s.read(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(agg, actor); err != nil {
		return nil, err
	}
	court := &models.Court{
		ID:      uuid.NewString(),
		EventID: agg.Division.EventID,
		Label:   label,
		Status:  models.CourtAvailable,
	}
	if err := s.deps.Courts.Create(ctx, nil, court); err != nil {
		if errors.Is(err, repositories.ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: court %q already exists", ErrValidationFailed, label)
		}
		return nil, err
	}
	s.deps.Logger.Info("Court created", "event_id", court.EventID, "court_id", court.ID, "label", label)
	return court, nil
}

func (s *trackerService) ListCourts(ctx context.Context, divisionID string) ([]*models.Court, error) {
	agg, err := s.read(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	return s.deps.Courts.ListByEvent(ctx, nil, agg.Division.EventID)
}

func (s *trackerService) QueueGame(ctx context.Context, actor models.Actor, divisionID, gameID, courtID string) (*models.Game, error) {
	return s.gameCommand(ctx, "queue_game", divisionID, gameID, func(ctx context.Context, tx *sqlx.Tx, p *progress, m *models.Match, g *models.Game) error {
		if err := requireManager(p.agg, actor); err != nil {
			return err
		}
		court, err := s.deps.Courts.GetByID(ctx, tx, courtID)
		if err != nil {
			return err
		}
		return queueGame(p, g, m, court)
	})
}

func (s *trackerService) StartGame(ctx context.Context, actor models.Actor, divisionID, gameID string) (*models.Game, error) {
	return s.gameCommand(ctx, "start_game", divisionID, gameID, func(_ context.Context, _ *sqlx.Tx, p *progress, m *models.Match, g *models.Game) error {
		if err := requireManager(p.agg, actor); err != nil {
			return err
		}
		return startGame(p, g, m)
	})
}

func (s *trackerService) SubmitScore(ctx context.Context, actor models.Actor, divisionID, gameID string, score ScoreInput) (*models.Game, error) {
	return s.gameCommand(ctx, "submit_score", divisionID, gameID, func(_ context.Context, _ *sqlx.Tx, p *progress, m *models.Match, g *models.Game) error {
		return submitScore(p, actor, g, m, score)
	})
}

func (s *trackerService) ConfirmScore(ctx context.Context, actor models.Actor, divisionID, gameID string) (*models.Game, error) {
	return s.gameCommand(ctx, "confirm_score", divisionID, gameID, func(_ context.Context, _ *sqlx.Tx, p *progress, m *models.Match, g *models.Game) error {
		return confirmScore(p, actor, g, m)
	})
}

func (s *trackerService) DisputeScore(ctx context.Context, actor models.Actor, divisionID, gameID, reason string) (*models.Game, error) {
	return s.gameCommand(ctx, "dispute_score", divisionID, gameID, func(_ context.Context, _ *sqlx.Tx, p *progress, m *models.Match, g *models.Game) error {
		return disputeScore(p, actor, g, m, reason)
	})
}

func (s *trackerService) ResolveDispute(ctx context.Context, actor models.Actor, divisionID, gameID string, score ScoreInput) (*models.Game, error) {
	return s.gameCommand(ctx, "resolve_dispute", divisionID, gameID, func(_ context.Context, _ *sqlx.Tx, p *progress, m *models.Match, g *models.Game) error {
		if err := requireManager(p.agg, actor); err != nil {
			return err
		}
		return resolveDispute(p, g, m, score)
	})
}
