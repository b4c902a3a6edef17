package services

import (
	"context"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"golang.org/x/sync/errgroup"
)

type MatchView struct {
	*models.Match
	Unit1Name string         `json:"unit1_name,omitempty"`
	Unit2Name string         `json:"unit2_name,omitempty"`
	Games     []*models.Game `json:"games"`
}

type ScheduleView struct {
	DivisionID     string                `json:"division_id"`
	BracketType    models.BracketType    `json:"bracket_type"`
	ScheduleStatus models.ScheduleStatus `json:"schedule_status"`
	Matches        []MatchView           `json:"matches"`
}

// MatchScore is the per-match score sheet.
type MatchScore struct {
	MatchView
	WinnerName string `json:"winner_name,omitempty"`
}

type StatusCounts struct {
	Registered int `json:"registered"`
	Waitlisted int `json:"waitlisted"`
	CheckedIn  int `json:"checked_in"`
	Cancelled  int `json:"cancelled"`
	Complete   int `json:"complete"`
	Players    int `json:"players"`
}

type MatchCounts struct {
	Total      int `json:"total"`
	Scheduled  int `json:"scheduled"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Byes       int `json:"byes"`
	Cancelled  int `json:"cancelled"`
}

type DivisionSummary struct {
	Division  *models.Division  `json:"division"`
	EventName string            `json:"event_name"`
	Counts    StatusCounts      `json:"counts"`
	Units     []*UnitSnapshot   `json:"units"`
	Waitlist  []*UnitSnapshot   `json:"waitlist"`
	Matches   MatchCounts       `json:"matches"`
	Courts    []*models.Court   `json:"courts"`
	Siblings  []models.Division `json:"sibling_divisions"`
}

type ReadService interface {
	DivisionSummary(ctx context.Context, divisionID string) (*DivisionSummary, error)
	UnitSnapshot(ctx context.Context, divisionID, unitID string) (*UnitSnapshot, error)
	MatchScore(ctx context.Context, divisionID, matchID string) (*MatchScore, error)
}

type readService struct {
	runner
}

func NewReadService(deps Deps) ReadService {
	return &readService{runner{deps: deps.withDefaults()}}
}

func unitName(agg *models.DivisionAggregate, id *string) string {
	if id == nil {
		return ""
	}
	if u := agg.Unit(*id); u != nil {
		return u.Name
	}
	return ""
}

func matchView(agg *models.DivisionAggregate, m *models.Match) MatchView {
	return MatchView{
		Match:     m,
		Unit1Name: unitName(agg, m.Unit1ID),
		Unit2Name: unitName(agg, m.Unit2ID),
		Games:     agg.GamesOf(m.ID),
	}
}

func scheduleView(agg *models.DivisionAggregate) *ScheduleView {
	view := &ScheduleView{
		DivisionID:     agg.Division.ID,
		BracketType:    agg.Division.BracketType,
		ScheduleStatus: agg.Division.ScheduleStatus,
		Matches:        make([]MatchView, 0, len(agg.Matches)),
	}
	for _, m := range agg.Matches {
		view.Matches = append(view.Matches, matchView(agg, m))
	}
	return view
}

func summarize(agg *models.DivisionAggregate) *DivisionSummary {
	sum := &DivisionSummary{Division: agg.Division}
	if agg.Event != nil {
		sum.EventName = agg.Event.Name
	}
	for _, u := range agg.UnitsInJoinOrder() {
		switch u.Status {
		case models.UnitRegistered:
			sum.Counts.Registered++
		case models.UnitWaitlisted:
			sum.Counts.Waitlisted++
		case models.UnitCheckedIn:
			sum.Counts.CheckedIn++
		case models.UnitCancelled:
			sum.Counts.Cancelled++
			continue
		}
		if u.Status.Admitted() {
			if agg.IsComplete(u) {
				sum.Counts.Complete++
			}
			sum.Counts.Players += len(agg.AcceptedMembers(u.ID))
			sum.Units = append(sum.Units, snapshotUnit(agg, u))
		}
	}
	for _, u := range agg.WaitlistedUnits() {
		sum.Waitlist = append(sum.Waitlist, snapshotUnit(agg, u))
	}
	for _, m := range agg.Matches {
		sum.Matches.Total++
		switch m.Status {
		case models.MatchScheduled:
			sum.Matches.Scheduled++
		case models.MatchInProgress:
			sum.Matches.InProgress++
		case models.MatchCompleted:
			sum.Matches.Completed++
		case models.MatchBye:
			sum.Matches.Byes++
		case models.MatchCancelled:
			sum.Matches.Cancelled++
		}
	}
	return sum
}

// DivisionSummary loads the division and then its courts and sibling divisions concurrently.
func (s *readService) DivisionSummary(ctx context.Context, divisionID string) (*DivisionSummary, error) {
	agg, err := s.read(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	sum := summarize(agg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		courts, err := s.deps.Courts.ListByEvent(gctx, nil, agg.Division.EventID)
		if err != nil {
			return err
		}
		sum.Courts = courts
		return nil
	})
	g.Go(func() error {
		divisions, err := s.deps.Divisions.ListByEvent(gctx, nil, agg.Division.EventID)
		if err != nil {
			return err
		}
		for _, d := range divisions {
			if d.ID != divisionID {
				sum.Siblings = append(sum.Siblings, d)
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *readService) UnitSnapshot(ctx context.Context, divisionID, unitID string) (*UnitSnapshot, error) {
	agg, err := s.read(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	u := agg.Unit(unitID)
	if u == nil {
		return nil, ErrUnitNotFound
	}
	return snapshotUnit(agg, u), nil
}

func (s *readService) MatchScore(ctx context.Context, divisionID, matchID string) (*MatchScore, error) {
	agg, err := s.read(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	m := agg.Match(matchID)
	if m == nil {
		return nil, ErrMatchNotFound
	}
	return &MatchScore{MatchView: matchView(agg, m), WinnerName: unitName(agg, m.WinnerUnitID)}, nil
}
