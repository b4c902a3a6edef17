package models

import "time"

type RoundType string

const (
	RoundPool       RoundType = "Pool"
	RoundWinners    RoundType = "Winners"
	RoundLosers     RoundType = "Losers"
	RoundBracket    RoundType = "Bracket"
	RoundGrandFinal RoundType = "GrandFinal"
)

func (t RoundType) Valid() bool {
	switch t {
	case RoundPool, RoundWinners, RoundLosers, RoundBracket, RoundGrandFinal:
		return true
	}
	return false
}

type MatchPhase string

const (
	PhasePool    MatchPhase = "Pool"
	PhaseBracket MatchPhase = "Bracket"
	// PhasePlayoff slots are playoff seeds, bound from pool standings rather than drawn numbers.
	PhasePlayoff MatchPhase = "Playoff"
)

func (p MatchPhase) Valid() bool {
	switch p {
	case PhasePool, PhaseBracket, PhasePlayoff:
		return true
	}
	return false
}

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "Scheduled"
	MatchBye        MatchStatus = "Bye"
	MatchInProgress MatchStatus = "InProgress"
	MatchCompleted  MatchStatus = "Completed"
	MatchCancelled  MatchStatus = "Cancelled"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchScheduled, MatchBye, MatchInProgress, MatchCompleted, MatchCancelled:
		return true
	}
	return false
}

// Decided reports whether the match has a final outcome.
func (s MatchStatus) Decided() bool {
	switch s {
	case MatchBye, MatchCompleted, MatchCancelled:
		return true
	case MatchScheduled, MatchInProgress:
		return false
	}
	return false
}

type Match struct {
	ID              string      `json:"id" db:"id"`
	DivisionID      string      `json:"division_id" db:"division_id"`
	Phase           MatchPhase  `json:"phase" db:"phase"`
	RoundType       RoundType   `json:"round_type" db:"round_type"`
	RoundNumber     int         `json:"round_number" db:"round_number"`
	RoundName       string      `json:"round_name" db:"round_name"`
	MatchNumber     int         `json:"match_number" db:"match_number"`
	BracketPosition int         `json:"bracket_position" db:"bracket_position"`
	PoolNumber      *int        `json:"pool_number,omitempty" db:"pool_number"`
	Unit1Number     *int        `json:"unit1_number,omitempty" db:"unit1_number"`
	Unit2Number     *int        `json:"unit2_number,omitempty" db:"unit2_number"`
	Unit1ID         *string     `json:"unit1_id,omitempty" db:"unit1_id"`
	Unit2ID         *string     `json:"unit2_id,omitempty" db:"unit2_id"`
	WinnerUnitID    *string     `json:"winner_unit_id,omitempty" db:"winner_unit_id"`
	Status          MatchStatus `json:"status" db:"status"`
	BestOf          int         `json:"best_of" db:"best_of"`
	ScoreFormat     ScoreFormat `json:"score_format" db:"score_format"`
	Unit1GamesWon   int         `json:"unit1_games_won" db:"unit1_games_won"`
	Unit2GamesWon   int         `json:"unit2_games_won" db:"unit2_games_won"`

	WinnerNextMatchID *string `json:"winner_next_match_id,omitempty" db:"winner_next_match_id"`
	WinnerNextSlot    *int    `json:"winner_next_slot,omitempty" db:"winner_next_slot"`

	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// GamesToWin is the number of games that decides a best-of-N match.
func (m *Match) GamesToWin() int {
	return m.BestOf/2 + 1
}

// References reports whether the unit is bound to either side.
func (m *Match) References(unitID string) bool {
	return (m.Unit1ID != nil && *m.Unit1ID == unitID) || (m.Unit2ID != nil && *m.Unit2ID == unitID)
}

// Side returns 1 or 2 for a bound unit, 0 otherwise.
func (m *Match) Side(unitID string) int {
	switch {
	case m.Unit1ID != nil && *m.Unit1ID == unitID:
		return 1
	case m.Unit2ID != nil && *m.Unit2ID == unitID:
		return 2
	}
	return 0
}

type GameStatus string

const (
	GameNew       GameStatus = "New"
	GameQueued    GameStatus = "Queued"
	GamePlaying   GameStatus = "Playing"
	GameFinished  GameStatus = "Finished"
	GameCancelled GameStatus = "Cancelled"
)

func (s GameStatus) Valid() bool {
	switch s {
	case GameNew, GameQueued, GamePlaying, GameFinished, GameCancelled:
		return true
	}
	return false
}

func (s GameStatus) CanTransitionTo(next GameStatus) bool {
	switch s {
	case GameNew:
		// Divisions without courts start games straight from New.
		return next == GameQueued || next == GamePlaying || next == GameCancelled
	case GameQueued:
		return next == GamePlaying || next == GameNew || next == GameCancelled
	case GamePlaying:
		return next == GameFinished
	case GameFinished, GameCancelled:
		return false
	}
	return false
}

type Game struct {
	ID                string     `json:"id" db:"id"`
	MatchID           string     `json:"match_id" db:"match_id"`
	GameNumber        int        `json:"game_number" db:"game_number"`
	Status            GameStatus `json:"status" db:"status"`
	Unit1Score        *int       `json:"unit1_score,omitempty" db:"unit1_score"`
	Unit2Score        *int       `json:"unit2_score,omitempty" db:"unit2_score"`
	WinnerUnitID      *string    `json:"winner_unit_id,omitempty" db:"winner_unit_id"`
	SubmittedByUnitID *string    `json:"submitted_by_unit_id,omitempty" db:"submitted_by_unit_id"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty" db:"submitted_at"`
	ConfirmedByUnitID *string    `json:"confirmed_by_unit_id,omitempty" db:"confirmed_by_unit_id"`
	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	DisputeReason     *string    `json:"dispute_reason,omitempty" db:"dispute_reason"`
	DisputedAt        *time.Time `json:"disputed_at,omitempty" db:"disputed_at"`
	CourtID           *string    `json:"court_id,omitempty" db:"court_id"`
	QueuedAt          *time.Time `json:"queued_at,omitempty" db:"queued_at"`
	StartedAt         *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// HasPendingScore reports a submitted score awaiting confirmation.
func (g *Game) HasPendingScore() bool {
	return g.Status == GamePlaying && g.SubmittedByUnitID != nil
}
