package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/events"
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/LegalDragon/Pickleball-Community-sub007/storage"
	"github.com/jmoiron/sqlx"
)

type DrawnUnit struct {
	UnitID     string   `json:"unit_id"`
	UnitName   string   `json:"unit_name"`
	UnitNumber int      `json:"unit_number"`
	Members    []string `json:"members"`
	Remaining  int      `json:"remaining"`
}

type DrawingStateView struct {
	DivisionID     string                `json:"division_id"`
	DivisionName   string                `json:"division_name"`
	State          models.DrawingState   `json:"state"`
	ScheduleStatus models.ScheduleStatus `json:"schedule_status"`
	Sequence       int                   `json:"sequence"`
	StartedAt      *time.Time            `json:"started_at,omitempty"`
	StartedBy      *string               `json:"started_by,omitempty"`
	Drawn          []DrawnUnit           `json:"drawn"`
	Remaining      int                   `json:"remaining"`
}

type DrawingResult struct {
	DivisionID     string                `json:"division_id"`
	DivisionName   string                `json:"division_name"`
	ScheduleStatus models.ScheduleStatus `json:"schedule_status"`
	Assignments    []DrawnUnit           `json:"assignments"`
	ArchiveURL     string                `json:"archive_url,omitempty"`
	Warnings       []string              `json:"warnings,omitempty"`
}

type DrawingService interface {
	StartDrawing(ctx context.Context, actor models.Actor, divisionID string) (*DrawingStateView, error)
	DrawNext(ctx context.Context, actor models.Actor, divisionID string) (*DrawnUnit, error)
	CompleteDrawing(ctx context.Context, actor models.Actor, divisionID string) (*DrawingResult, error)
	CancelDrawing(ctx context.Context, actor models.Actor, divisionID string) error
	GetDrawingState(ctx context.Context, divisionID string) (*DrawingStateView, error)
	// AssignUnitNumbers binds numbers without a live drawing. A nil map shuffles at random.
	AssignUnitNumbers(ctx context.Context, actor models.Actor, divisionID string, numbers map[string]int) (*DrawingResult, error)
}

type drawingService struct {
	runner
}

func NewDrawingService(deps Deps) DrawingService {
	return &drawingService{runner{deps: deps.withDefaults()}}
}

// drawableUnits are the admitted units in join order.
func drawableUnits(agg *models.DivisionAggregate) []*models.Unit {
	var out []*models.Unit
	for _, u := range agg.UnitsInJoinOrder() {
		if u.Eligible() {
			out = append(out, u)
		}
	}
	return out
}

func undrawnUnits(agg *models.DivisionAggregate) []*models.Unit {
	var out []*models.Unit
	for _, u := range drawableUnits(agg) {
		if u.UnitNumber == nil {
			out = append(out, u)
		}
	}
	return out
}

// checkReadyForNumbers holds the preconditions shared by a live drawing and batch assignment.
func checkReadyForNumbers(agg *models.DivisionAggregate) error {
	d := agg.Division
	if d.RegistrationOpen {
		return fmt.Errorf("%w: close registration first", ErrRegistrationOpen)
	}
	if d.DrawingInProgress() {
		return ErrDrawingInProgress
	}
	switch d.ScheduleStatus {
	case models.ScheduleFinalized:
		return ErrScheduleFinalized
	case models.ScheduleUnitsAssigned:
		if playStarted(agg) {
			return fmt.Errorf("%w: play has started, clear the schedule to draw again", ErrUnitsAlreadyAssigned)
		}
	case models.ScheduleOpen:
	}
	units := drawableUnits(agg)
	for _, u := range units {
		if !agg.IsComplete(u) {
			return fmt.Errorf("%w: %s", ErrIncompleteUnits, u.Name)
		}
	}
	if len(units) < 2 {
		return fmt.Errorf("%w: %d eligible units", ErrNotEnoughUnits, len(units))
	}
	if len(agg.Matches) > 0 && d.TargetUnitCount != nil && len(units) > *d.TargetUnitCount {
		return fmt.Errorf("%w: %d slots for %d units, regenerate the schedule", ErrSlotsExhausted, *d.TargetUnitCount, len(units))
	}
	return nil
}

// playStarted reports whether any game has moved past New.
func playStarted(agg *models.DivisionAggregate) bool {
	for _, g := range agg.Games {
		if g.Status != models.GameNew {
			return true
		}
	}
	return false
}

// unbindMatches drops the unit bindings of a previous drawing. Matches keep their seed numbers.
func unbindMatches(agg *models.DivisionAggregate) {
	for _, m := range agg.Matches {
		if m.Phase == models.PhasePlayoff {
			continue
		}
		m.Unit1ID, m.Unit2ID, m.WinnerUnitID = nil, nil, nil
		m.Status = models.MatchScheduled
	}
}

func drawnUnitView(agg *models.DivisionAggregate, u *models.Unit, remaining int) DrawnUnit {
	view := DrawnUnit{UnitID: u.ID, UnitName: u.Name, Members: memberNames(agg, u.ID), Remaining: remaining}
	if u.UnitNumber != nil {
		view.UnitNumber = *u.UnitNumber
	}
	return view
}

// drawnInOrder lists numbered units by number, which is also the order they were drawn.
func drawnInOrder(agg *models.DivisionAggregate) []DrawnUnit {
	var numbered []*models.Unit
	for _, u := range drawableUnits(agg) {
		if u.UnitNumber != nil {
			numbered = append(numbered, u)
		}
	}
	sort.Slice(numbered, func(i, j int) bool { return *numbered[i].UnitNumber < *numbered[j].UnitNumber })
	out := make([]DrawnUnit, 0, len(numbered))
	for _, u := range numbered {
		out = append(out, drawnUnitView(agg, u, 0))
	}
	return out
}

func drawingState(agg *models.DivisionAggregate) *DrawingStateView {
	d := agg.Division
	return &DrawingStateView{
		DivisionID:     d.ID,
		DivisionName:   d.Name,
		State:          d.DrawingState,
		ScheduleStatus: d.ScheduleStatus,
		Sequence:       d.DrawingSequence,
		StartedAt:      d.DrawingStartedAt,
		StartedBy:      d.DrawingStartedBy,
		Drawn:          drawnInOrder(agg),
		Remaining:      len(undrawnUnits(agg)),
	}
}

func drawingResult(agg *models.DivisionAggregate) *DrawingResult {
	d := agg.Division
	return &DrawingResult{
		DivisionID:     d.ID,
		DivisionName:   d.Name,
		ScheduleStatus: d.ScheduleStatus,
		Assignments:    drawnInOrder(agg),
	}
}

func completedEvent(agg *models.DivisionAggregate, live bool) events.DrawingCompleted {
	d := agg.Division
	e := events.DrawingCompleted{
		DivisionID:   d.ID,
		DivisionName: d.Name,
		StartedAt:    d.DrawingStartedAt,
		Live:         live,
	}
	if d.DrawingStartedBy != nil {
		e.StartedBy = *d.DrawingStartedBy
	}
	for _, a := range drawnInOrder(agg) {
		e.Assignments = append(e.Assignments, events.Assignment{
			UnitID:     a.UnitID,
			UnitName:   a.UnitName,
			UnitNumber: a.UnitNumber,
			Members:    a.Members,
		})
	}
	return e
}

func startDrawing(agg *models.DivisionAggregate, actor models.Actor, now time.Time, out *outbox) error {
	if err := checkReadyForNumbers(agg); err != nil {
		return err
	}
	d := agg.Division
	agg.ClearUnitNumbers()
	if d.ScheduleStatus == models.ScheduleUnitsAssigned {
		unbindMatches(agg)
		d.ScheduleStatus = models.ScheduleOpen
	}
	d.DrawingState = models.DrawingInProgress
	d.DrawingSequence = 0
	d.DrawingStartedAt = &now
	startedBy := actor.UserID
	d.DrawingStartedBy = &startedBy
	out.emit(events.DrawingStarted{DivisionID: d.ID, StartedBy: actor.UserID, EligibleUnits: len(drawableUnits(agg))})
	return nil
}

func drawNext(agg *models.DivisionAggregate, rng Randomizer, out *outbox) (*DrawnUnit, error) {
	d := agg.Division
	if !d.DrawingInProgress() {
		return nil, ErrDrawingNotInProgress
	}
	pool := undrawnUnits(agg)
	if len(pool) == 0 {
		return nil, ErrNoUndrawnUnits
	}
	u := pool[rng.IntN(len(pool))]
	d.DrawingSequence++
	number := d.DrawingSequence
	u.UnitNumber = &number

	view := drawnUnitView(agg, u, len(pool)-1)
	out.emit(events.UnitDrawn{
		DivisionID: d.ID,
		UnitID:     u.ID,
		UnitName:   u.Name,
		UnitNumber: number,
		Remaining:  view.Remaining,
	})
	return &view, nil
}

func completeDrawing(agg *models.DivisionAggregate, now time.Time, out *outbox) error {
	d := agg.Division
	if !d.DrawingInProgress() {
		return ErrDrawingNotInProgress
	}
	if left := len(undrawnUnits(agg)); left > 0 {
		return fmt.Errorf("%w: %d left", ErrUndrawnUnits, left)
	}
	bindSlots(agg, now, out)
	d.ScheduleStatus = models.ScheduleUnitsAssigned
	d.DrawingState = models.DrawingCompleted
	out.emit(completedEvent(agg, true))
	return nil
}

func cancelDrawing(agg *models.DivisionAggregate, out *outbox) error {
	d := agg.Division
	if !d.DrawingInProgress() {
		return ErrDrawingNotInProgress
	}
	agg.ClearUnitNumbers()
	d.DrawingState = models.DrawingIdle
	d.DrawingSequence = 0
	d.DrawingStartedAt = nil
	d.DrawingStartedBy = nil
	out.emit(events.DrawingCancelled{DivisionID: d.ID})
	return nil
}

// assignUnitNumbers applies operator numbers, which must be a permutation of 1..N over the
// eligible units, or a random permutation when none are given.
func assignUnitNumbers(agg *models.DivisionAggregate, numbers map[string]int, rng Randomizer, now time.Time, out *outbox) error {
	if err := checkReadyForNumbers(agg); err != nil {
		return err
	}
	units := drawableUnits(agg)
	n := len(units)
	agg.ClearUnitNumbers()
	if numbers == nil {
		for i, p := range rng.Perm(n) {
			number := p + 1
			units[i].UnitNumber = &number
		}
	} else {
		if len(numbers) != n {
			return fmt.Errorf("%w: got %d numbers for %d units", ErrInvalidAssignment, len(numbers), n)
		}
		seen := make(map[int]bool, n)
		for _, u := range units {
			number, ok := numbers[u.ID]
			if !ok {
				return fmt.Errorf("%w: no number for %s", ErrInvalidAssignment, u.Name)
			}
			if number < 1 || number > n || seen[number] {
				return fmt.Errorf("%w: number %d", ErrInvalidAssignment, number)
			}
			seen[number] = true
			u.UnitNumber = &number
		}
	}
	bindSlots(agg, now, out)
	agg.Division.ScheduleStatus = models.ScheduleUnitsAssigned
	out.emit(completedEvent(agg, false))
	return nil
}

func (s *drawingService) StartDrawing(ctx context.Context, actor models.Actor, divisionID string) (*DrawingStateView, error) {
	var state *DrawingStateView
	_, err := s.execute(ctx, "start_drawing", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if err := requireManager(agg, actor); err != nil {
			return err
		}
		if err := startDrawing(agg, actor, s.deps.Clock(), out); err != nil {
			return err
		}
		state = drawingState(agg)
		out.afterCommit(func() { s.deps.Broadcaster.BroadcastDrawingStarted(divisionID, state) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *drawingService) DrawNext(ctx context.Context, actor models.Actor, divisionID string) (*DrawnUnit, error) {
	var drawn *DrawnUnit
	_, err := s.execute(ctx, "draw_next", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if err := requireManager(agg, actor); err != nil {
			return err
		}
		var err error
		if drawn, err = drawNext(agg, s.deps.Random, out); err != nil {
			return err
		}
		view := *drawn
		out.afterCommit(func() {
			s.deps.Metrics.IncUnitsDrawn()
			s.deps.Broadcaster.BroadcastUnitDrawn(divisionID, view)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drawn, nil
}

func (s *drawingService) CompleteDrawing(ctx context.Context, actor models.Actor, divisionID string) (*DrawingResult, error) {
	var transcript *DrawingStateView
	agg, err := s.execute(ctx, "complete_drawing", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if err := requireManager(agg, actor); err != nil {
			return err
		}
		if err := completeDrawing(agg, s.deps.Clock(), out); err != nil {
			return err
		}
		transcript = drawingState(agg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result := drawingResult(agg)
	s.archive(ctx, result, transcript)
	s.deps.Broadcaster.BroadcastDrawingCompleted(divisionID, result)
	return result, nil
}

func (s *drawingService) CancelDrawing(ctx context.Context, actor models.Actor, divisionID string) error {
	_, err := s.execute(ctx, "cancel_drawing", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if err := requireManager(agg, actor); err != nil {
			return err
		}
		if err := cancelDrawing(agg, out); err != nil {
			return err
		}
		out.afterCommit(func() { s.deps.Broadcaster.BroadcastDrawingCancelled(divisionID) })
		return nil
	})
	return err
}

func (s *drawingService) GetDrawingState(ctx context.Context, divisionID string) (*DrawingStateView, error) {
	agg, err := s.read(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	return drawingState(agg), nil
}

func (s *drawingService) AssignUnitNumbers(ctx context.Context, actor models.Actor, divisionID string, numbers map[string]int) (*DrawingResult, error) {
	var transcript *DrawingStateView
	agg, err := s.execute(ctx, "assign_unit_numbers", divisionID, func(_ context.Context, _ *sqlx.Tx, agg *models.DivisionAggregate, out *outbox) error {
		if err := requireManager(agg, actor); err != nil {
			return err
		}
		if err := assignUnitNumbers(agg, numbers, s.deps.Random, s.deps.Clock(), out); err != nil {
			return err
		}
		transcript = drawingState(agg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result := drawingResult(agg)
	s.archive(ctx, result, transcript)
	return result, nil
}

// archive stores the transcript of a finished drawing. Failures become warnings on the result.
func (s *drawingService) archive(ctx context.Context, result *DrawingResult, transcript *DrawingStateView) {
	if s.deps.Archive == nil {
		return
	}
	key := fmt.Sprintf("drawings/%s/%s.json", result.DivisionID, s.deps.Clock().Format("20060102T150405.000000Z"))
	uploaded, err := storage.PutJSON(ctx, s.deps.Archive, key, transcript)
	if err != nil {
		s.deps.Logger.Warn("Failed to archive drawing transcript", "division_id", result.DivisionID, "error", err)
		result.Warnings = append(result.Warnings, "drawing transcript could not be archived")
		return
	}
	result.ArchiveURL = uploaded.Location
}
