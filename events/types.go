package events

import (
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
)

type Type string

const (
	TypeUnitRegistered      Type = "unit.registered"
	TypeUnitWaitlisted      Type = "unit.waitlisted"
	TypeJoinRequestCreated  Type = "join_request.created"
	TypeJoinRequestResolved Type = "join_request.resolved"
	TypeUnitsMerged         Type = "units.merged"
	TypeUnitBroken          Type = "unit.broken"
	TypeScheduleGenerated   Type = "schedule.generated"
	TypeDrawingStarted      Type = "drawing.started"
	TypeUnitDrawn           Type = "drawing.unit_drawn"
	TypeDrawingCompleted    Type = "drawing.completed"
	TypeDrawingCancelled    Type = "drawing.cancelled"
	TypeGameStatusChanged   Type = "game.status_changed"
	TypeMatchCompleted      Type = "match.completed"
)

// Event is a fact about a division, published after the command that produced it commits.
type Event interface {
	EventType() Type
	Division() string
}

// Envelope is what subscribers receive.
type Envelope struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	DivisionID string    `json:"division_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    Event     `json:"payload"`
}

type UnitRegistered struct {
	DivisionID    string            `json:"division_id"`
	UnitID        string            `json:"unit_id"`
	UnitName      string            `json:"unit_name"`
	CaptainUserID string            `json:"captain_user_id"`
	Status        models.UnitStatus `json:"status"`
}

func (e UnitRegistered) EventType() Type  { return TypeUnitRegistered }
func (e UnitRegistered) Division() string { return e.DivisionID }

type UnitWaitlisted struct {
	DivisionID    string   `json:"division_id"`
	UnitID        string   `json:"unit_id"`
	UnitName      string   `json:"unit_name"`
	Position      int      `json:"position"`
	Reason        string   `json:"reason"`
	MemberEmails  []string `json:"member_emails,omitempty"`
	CaptainUserID string   `json:"captain_user_id"`
}

func (e UnitWaitlisted) EventType() Type  { return TypeUnitWaitlisted }
func (e UnitWaitlisted) Division() string { return e.DivisionID }

type JoinRequestCreated struct {
	DivisionID      string `json:"division_id"`
	RequestID       string `json:"request_id"`
	UnitID          string `json:"unit_id"`
	UnitName        string `json:"unit_name"`
	RequesterUserID string `json:"requester_user_id"`
	RequesterName   string `json:"requester_name"`
	CaptainUserID   string `json:"captain_user_id"`
	CaptainEmail    string `json:"captain_email,omitempty"`
	Message         string `json:"message,omitempty"`
}

func (e JoinRequestCreated) EventType() Type  { return TypeJoinRequestCreated }
func (e JoinRequestCreated) Division() string { return e.DivisionID }

type JoinRequestResolved struct {
	DivisionID      string `json:"division_id"`
	RequestID       string `json:"request_id"`
	UnitID          string `json:"unit_id"`
	UnitName        string `json:"unit_name"`
	RequesterUserID string `json:"requester_user_id"`
	RequesterEmail  string `json:"requester_email,omitempty"`
	Accepted        bool   `json:"accepted"`
	AutoAccepted    bool   `json:"auto_accepted"`
}

func (e JoinRequestResolved) EventType() Type  { return TypeJoinRequestResolved }
func (e JoinRequestResolved) Division() string { return e.DivisionID }

type UnitsMerged struct {
	DivisionID      string   `json:"division_id"`
	SurvivingUnitID string   `json:"surviving_unit_id"`
	RemovedUnitID   string   `json:"removed_unit_id"`
	UnitName        string   `json:"unit_name"`
	MemberEmails    []string `json:"member_emails,omitempty"`
}

func (e UnitsMerged) EventType() Type  { return TypeUnitsMerged }
func (e UnitsMerged) Division() string { return e.DivisionID }

type UnitBroken struct {
	DivisionID string   `json:"division_id"`
	UnitID     string   `json:"unit_id"`
	NewUnitIDs []string `json:"new_unit_ids"`
}

func (e UnitBroken) EventType() Type  { return TypeUnitBroken }
func (e UnitBroken) Division() string { return e.DivisionID }

type ScheduleGenerated struct {
	DivisionID  string             `json:"division_id"`
	BracketType models.BracketType `json:"bracket_type"`
	UnitCount   int                `json:"unit_count"`
	MatchCount  int                `json:"match_count"`
}

func (e ScheduleGenerated) EventType() Type  { return TypeScheduleGenerated }
func (e ScheduleGenerated) Division() string { return e.DivisionID }

type DrawingStarted struct {
	DivisionID    string `json:"division_id"`
	StartedBy     string `json:"started_by"`
	EligibleUnits int    `json:"eligible_units"`
}

func (e DrawingStarted) EventType() Type  { return TypeDrawingStarted }
func (e DrawingStarted) Division() string { return e.DivisionID }

type UnitDrawn struct {
	DivisionID string `json:"division_id"`
	UnitID     string `json:"unit_id"`
	UnitName   string `json:"unit_name"`
	UnitNumber int    `json:"unit_number"`
	Remaining  int    `json:"remaining"`
}

func (e UnitDrawn) EventType() Type  { return TypeUnitDrawn }
func (e UnitDrawn) Division() string { return e.DivisionID }

// Assignment is one line of a drawing transcript.
type Assignment struct {
	UnitID     string   `json:"unit_id"`
	UnitName   string   `json:"unit_name"`
	UnitNumber int      `json:"unit_number"`
	Members    []string `json:"members,omitempty"`
}

type DrawingCompleted struct {
	DivisionID   string       `json:"division_id"`
	DivisionName string       `json:"division_name"`
	StartedBy    string       `json:"started_by,omitempty"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	Assignments  []Assignment `json:"assignments"`
	Live         bool         `json:"live"`
}

func (e DrawingCompleted) EventType() Type  { return TypeDrawingCompleted }
func (e DrawingCompleted) Division() string { return e.DivisionID }

type DrawingCancelled struct {
	DivisionID string `json:"division_id"`
}

func (e DrawingCancelled) EventType() Type  { return TypeDrawingCancelled }
func (e DrawingCancelled) Division() string { return e.DivisionID }

type GameStatusChanged struct {
	DivisionID string            `json:"division_id"`
	MatchID    string            `json:"match_id"`
	GameID     string            `json:"game_id"`
	From       models.GameStatus `json:"from"`
	To         models.GameStatus `json:"to"`
	CourtID    *string           `json:"court_id,omitempty"`
}

func (e GameStatusChanged) EventType() Type  { return TypeGameStatusChanged }
func (e GameStatusChanged) Division() string { return e.DivisionID }

type MatchCompleted struct {
	DivisionID    string `json:"division_id"`
	MatchID       string `json:"match_id"`
	WinnerUnitID  string `json:"winner_unit_id"`
	LoserUnitID   string `json:"loser_unit_id,omitempty"`
	Unit1GamesWon int    `json:"unit1_games_won"`
	Unit2GamesWon int    `json:"unit2_games_won"`
}

func (e MatchCompleted) EventType() Type  { return TypeMatchCompleted }
func (e MatchCompleted) Division() string { return e.DivisionID }
