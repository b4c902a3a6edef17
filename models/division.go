package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type BracketType string

const (
	BracketRoundRobin        BracketType = "RoundRobin"
	BracketSingleElimination BracketType = "SingleElimination"
	BracketDoubleElimination BracketType = "DoubleElimination"
	BracketRoundRobinPlayoff BracketType = "RoundRobinPlayoff"
)

func (t BracketType) Valid() bool {
	switch t {
	case BracketRoundRobin, BracketSingleElimination, BracketDoubleElimination, BracketRoundRobinPlayoff:
		return true
	}
	return false
}

// HasPools reports whether the bracket type starts with pool play.
func (t BracketType) HasPools() bool {
	switch t {
	case BracketRoundRobin, BracketRoundRobinPlayoff:
		return true
	case BracketSingleElimination, BracketDoubleElimination:
		return false
	}
	return false
}

type ScheduleStatus string

const (
	ScheduleOpen          ScheduleStatus = "Open"
	ScheduleUnitsAssigned ScheduleStatus = "UnitsAssigned"
	ScheduleFinalized     ScheduleStatus = "Finalized"
)

func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleOpen, ScheduleUnitsAssigned, ScheduleFinalized:
		return true
	}
	return false
}

// CanAdvanceTo only allows forward moves. Going back to Open is a reset, not a transition.
func (s ScheduleStatus) CanAdvanceTo(next ScheduleStatus) bool {
	switch s {
	case ScheduleOpen:
		return next == ScheduleUnitsAssigned
	case ScheduleUnitsAssigned:
		return next == ScheduleFinalized
	case ScheduleFinalized:
		return false
	}
	return false
}

type DrawingState string

const (
	DrawingIdle       DrawingState = "Idle"
	DrawingInProgress DrawingState = "InProgress"
	DrawingCompleted  DrawingState = "Completed"
	DrawingCancelled  DrawingState = "Cancelled"
)

func (s DrawingState) Valid() bool {
	switch s {
	case DrawingIdle, DrawingInProgress, DrawingCompleted, DrawingCancelled:
		return true
	}
	return false
}

// ScoreFormat describes how a single game is won. Cap of zero means uncapped.
type ScoreFormat struct {
	PointsToWin int `json:"points_to_win"`
	WinBy       int `json:"win_by"`
	Cap         int `json:"cap"`
}

func DefaultScoreFormat() ScoreFormat {
	return ScoreFormat{PointsToWin: 11, WinBy: 2}
}

func (f ScoreFormat) IsZero() bool {
	return f == ScoreFormat{}
}

func (f ScoreFormat) String() string {
	return fmt.Sprintf("%d/%d/%d", f.PointsToWin, f.WinBy, f.Cap)
}

func ParseScoreFormat(s string) (ScoreFormat, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return ScoreFormat{}, fmt.Errorf("invalid score format %q", s)
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return ScoreFormat{}, fmt.Errorf("invalid score format %q", s)
		}
		vals[i] = v
	}
	return ScoreFormat{PointsToWin: vals[0], WinBy: vals[1], Cap: vals[2]}, nil
}

func (f ScoreFormat) Value() (driver.Value, error) {
	return f.String(), nil
}

func (f *ScoreFormat) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*f = ScoreFormat{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ScoreFormat", src)
	}
	parsed, err := ParseScoreFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

type Event struct {
	ID                     string    `json:"id" db:"id"`
	Name                   string    `json:"name" db:"name"`
	OrganizerID            string    `json:"organizer_id" db:"organizer_id"`
	AllowMultipleDivisions bool      `json:"allow_multiple_divisions" db:"allow_multiple_divisions"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"`
}

type Division struct {
	ID                 string `json:"id" db:"id"`
	EventID            string `json:"event_id" db:"event_id"`
	Name               string `json:"name" db:"name"`
	TeamSize           int    `json:"team_size" db:"team_size"`
	MaxUnits           *int   `json:"max_units,omitempty" db:"max_units"`
	MaxPlayers         *int   `json:"max_players,omitempty" db:"max_players"`
	AllowMultipleUnits bool   `json:"allow_multiple_units" db:"allow_multiple_units"`
	EntryFeeCents      int64  `json:"entry_fee_cents" db:"entry_fee_cents"`
	RegistrationOpen   bool   `json:"registration_open" db:"registration_open"`

	BracketType          BracketType `json:"bracket_type" db:"bracket_type"`
	PoolCount            int         `json:"pool_count" db:"pool_count"`
	GamesPerMatch        int         `json:"games_per_match" db:"games_per_match"`
	ScoreFormat          ScoreFormat `json:"score_format" db:"score_format"`
	PlayoffGamesPerMatch int         `json:"playoff_games_per_match" db:"playoff_games_per_match"`
	PlayoffScoreFormat   ScoreFormat `json:"playoff_score_format" db:"playoff_score_format"`
	PoolsAdvancing       int         `json:"pools_advancing" db:"pools_advancing"`
	TargetUnitCount      *int        `json:"target_unit_count,omitempty" db:"target_unit_count"`

	ScheduleStatus   ScheduleStatus `json:"schedule_status" db:"schedule_status"`
	DrawingState     DrawingState   `json:"drawing_state" db:"drawing_state"`
	DrawingSequence  int            `json:"drawing_sequence" db:"drawing_sequence"`
	DrawingStartedAt *time.Time     `json:"drawing_started_at,omitempty" db:"drawing_started_at"`
	DrawingStartedBy *string        `json:"drawing_started_by,omitempty" db:"drawing_started_by"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DrawingInProgress mirrors the session state as a flag for read models.
func (d *Division) DrawingInProgress() bool {
	return d.DrawingState == DrawingInProgress
}

// PlayoffBestOf falls back to the pool setting when no playoff value is configured.
func (d *Division) PlayoffBestOf() int {
	if d.PlayoffGamesPerMatch > 0 {
		return d.PlayoffGamesPerMatch
	}
	return d.GamesPerMatch
}

func (d *Division) PlayoffFormat() ScoreFormat {
	if !d.PlayoffScoreFormat.IsZero() {
		return d.PlayoffScoreFormat
	}
	return d.ScoreFormat
}
