package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrDivisionNotFound = errors.New("division not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrVersionConflict  = errors.New("division was modified concurrently")
	ErrCourtBusy        = errors.New("court is already in use")
)

var (
	divisionColumns = []string{
		"id", "event_id", "name", "team_size", "max_units", "max_players", "allow_multiple_units",
		"entry_fee_cents", "registration_open", "bracket_type", "pool_count", "games_per_match",
		"score_format", "playoff_games_per_match", "playoff_score_format", "pools_advancing",
		"target_unit_count", "schedule_status", "drawing_state", "drawing_sequence",
		"drawing_started_at", "drawing_started_by", "version", "created_at",
	}
	unitColumns = []string{
		"id", "division_id", "name", "custom_name", "status", "waitlist_position", "captain_user_id",
		"join_method", "unit_number", "pool_number", "seed", "matches_played", "matches_won",
		"matches_lost", "games_played", "games_won", "games_lost", "points_for", "points_against",
		"amount_paid_cents", "payment_status", "created_at",
	}
	memberColumns = []string{
		"id", "unit_id", "user_id", "role", "invite_status", "amount_paid_cents", "created_at", "responded_at",
	}
	requestColumns = []string{
		"id", "division_id", "unit_id", "requester_user_id", "message", "status", "created_at",
		"responded_at", "responded_by",
	}
	matchColumns = []string{
		"id", "division_id", "phase", "round_type", "round_number", "round_name", "match_number",
		"bracket_position", "pool_number", "unit1_number", "unit2_number", "unit1_id", "unit2_id",
		"winner_unit_id", "status", "best_of", "score_format", "unit1_games_won", "unit2_games_won",
		"winner_next_match_id", "winner_next_slot", "completed_at",
	}
	gameColumns = []string{
		"id", "match_id", "game_number", "status", "unit1_score", "unit2_score", "winner_unit_id",
		"submitted_by_unit_id", "submitted_at", "confirmed_by_unit_id", "confirmed_at",
		"dispute_reason", "disputed_at", "court_id", "queued_at", "started_at", "finished_at",
	}
)

// DivisionRepository loads and saves the division aggregate. Every method takes the
// executor explicitly so a command reads and writes through a single transaction.
type DivisionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, division *models.Division) error
	Load(ctx context.Context, exec SQLExecutor, divisionID string) (*models.DivisionAggregate, error)
	Save(ctx context.Context, exec SQLExecutor, agg *models.DivisionAggregate) error
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID string) ([]models.Division, error)
	// OtherDivisionsOf lists divisions of the event, other than exceptDivisionID, in which the
	// user is an accepted member of a live unit.
	OtherDivisionsOf(ctx context.Context, exec SQLExecutor, eventID, userID, exceptDivisionID string) ([]string, error)
}

type sqlDivisionRepository struct {
	db *sqlx.DB
}

func NewDivisionRepository(db *sqlx.DB) DivisionRepository {
	return &sqlDivisionRepository{db: db}
}

func (r *sqlDivisionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *sqlDivisionRepository) Create(ctx context.Context, exec SQLExecutor, d *models.Division) error {
	executor := r.getExecutor(exec)
	query := fmt.Sprintf("INSERT INTO divisions (%s) VALUES (%s)",
		selectColumns("", divisionColumns), namedValues(divisionColumns))
	if _, err := sqlx.NamedExecContext(ctx, executor, query, d); err != nil {
		return fmt.Errorf("failed to insert division: %w", mapDBError(err))
	}
	return nil
}

func (r *sqlDivisionRepository) Load(ctx context.Context, exec SQLExecutor, divisionID string) (*models.DivisionAggregate, error) {
	executor := r.getExecutor(exec)

	query := "SELECT " + selectColumns("", divisionColumns) + " FROM divisions WHERE id = ?"
	if executor.DriverName() == "postgres" {
		query += " FOR UPDATE"
	}
	var division models.Division
	if err := sqlx.GetContext(ctx, executor, &division, executor.Rebind(query), divisionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDivisionNotFound
		}
		return nil, fmt.Errorf("failed to load division %s: %w", divisionID, err)
	}

	agg := &models.DivisionAggregate{
		Division: &division,
		Managers: make(map[string]bool),
		People:   make(map[string]*models.Person),
	}

	var event models.Event
	err := sqlx.GetContext(ctx, executor, &event, executor.Rebind(
		`SELECT id, name, organizer_id, allow_multiple_divisions, created_at FROM events WHERE id = ?`), division.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %s: %w", division.EventID, err)
	}
	agg.Event = &event

	var managers []string
	if err := sqlx.SelectContext(ctx, executor, &managers, executor.Rebind(
		`SELECT user_id FROM event_managers WHERE event_id = ?`), event.ID); err != nil {
		return nil, fmt.Errorf("failed to load event managers: %w", err)
	}
	for _, id := range managers {
		agg.Managers[id] = true
	}

	if err := sqlx.SelectContext(ctx, executor, &agg.Units, executor.Rebind(
		"SELECT "+selectColumns("", unitColumns)+" FROM units WHERE division_id = ? ORDER BY created_at, id"), divisionID); err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}
	if err := sqlx.SelectContext(ctx, executor, &agg.Members, executor.Rebind(
		"SELECT "+selectColumns("m", memberColumns)+" FROM unit_members m JOIN units u ON u.id = m.unit_id WHERE u.division_id = ? ORDER BY m.created_at, m.id"), divisionID); err != nil {
		return nil, fmt.Errorf("failed to load unit members: %w", err)
	}
	if err := sqlx.SelectContext(ctx, executor, &agg.Requests, executor.Rebind(
		"SELECT "+selectColumns("", requestColumns)+" FROM join_requests WHERE division_id = ? ORDER BY created_at, id"), divisionID); err != nil {
		return nil, fmt.Errorf("failed to load join requests: %w", err)
	}
	if err := sqlx.SelectContext(ctx, executor, &agg.Matches, executor.Rebind(
		"SELECT "+selectColumns("", matchColumns)+" FROM matches WHERE division_id = ? ORDER BY match_number"), divisionID); err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	if err := sqlx.SelectContext(ctx, executor, &agg.Games, executor.Rebind(
		"SELECT "+selectColumns("g", gameColumns)+" FROM games g JOIN matches m ON m.id = g.match_id WHERE m.division_id = ? ORDER BY m.match_number, g.game_number"), divisionID); err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}

	userIDs := map[string]struct{}{event.OrganizerID: {}}
	for _, m := range agg.Members {
		userIDs[m.UserID] = struct{}{}
	}
	for _, req := range agg.Requests {
		userIDs[req.RequesterUserID] = struct{}{}
	}
	ids := make([]string, 0, len(userIDs))
	for id := range userIDs {
		ids = append(ids, id)
	}
	people, err := findPeople(ctx, executor, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range people {
		agg.People[p.ID] = p
	}

	return agg, nil
}

// Save writes the aggregate back. The version check makes a save fail when another
// transaction committed the same division after this one loaded it.
func (r *sqlDivisionRepository) Save(ctx context.Context, exec SQLExecutor, agg *models.DivisionAggregate) error {
	executor := r.getExecutor(exec)
	d := agg.Division

	var updates []string
	for _, c := range divisionColumns {
		if c != "id" && c != "version" && c != "created_at" {
			updates = append(updates, c+" = :"+c)
		}
	}
	query := fmt.Sprintf("UPDATE divisions SET %s, version = version + 1 WHERE id = :id AND version = :version",
		joinComma(updates))
	res, err := sqlx.NamedExecContext(ctx, executor, query, d)
	if err != nil {
		return fmt.Errorf("failed to update division: %w", mapDBError(err))
	}
	if err := checkAffectedRows(res, ErrVersionConflict); err != nil {
		return err
	}
	d.Version++

	changes := agg.Changes()

	if err := deleteByIDs(ctx, executor, "join_requests", changes.RemovedRequests); err != nil {
		return err
	}
	if err := deleteByIDs(ctx, executor, "unit_members", changes.RemovedMembers); err != nil {
		return err
	}
	if err := upsertAll(ctx, executor, "units", unitColumns, agg.Units); err != nil {
		return err
	}
	if err := upsertAll(ctx, executor, "unit_members", memberColumns, agg.Members); err != nil {
		return err
	}
	if err := upsertAll(ctx, executor, "join_requests", requestColumns, agg.Requests); err != nil {
		return err
	}
	if err := deleteByIDs(ctx, executor, "units", changes.RemovedUnits); err != nil {
		return err
	}

	for _, op := range changes.CourtOps {
		if op.Kind != models.CourtRelease {
			continue
		}
		if _, err := executor.ExecContext(ctx, executor.Rebind(
			`UPDATE courts SET status = ?, current_game_id = NULL WHERE id = ? AND current_game_id = ?`),
			models.CourtAvailable, op.CourtID, op.GameID); err != nil {
			return fmt.Errorf("failed to release court %s: %w", op.CourtID, err)
		}
	}
	if err := releaseCourtsOfGames(ctx, executor, changes.RemovedGames); err != nil {
		return err
	}
	if err := deleteByIDs(ctx, executor, "games", changes.RemovedGames); err != nil {
		return err
	}
	if err := deleteByIDs(ctx, executor, "matches", changes.RemovedMatches); err != nil {
		return err
	}
	if err := upsertAll(ctx, executor, "matches", matchColumns, agg.Matches); err != nil {
		return err
	}
	if err := upsertAll(ctx, executor, "games", gameColumns, agg.Games); err != nil {
		return err
	}

	for _, op := range changes.CourtOps {
		if op.Kind != models.CourtAssign {
			continue
		}
		res, err := executor.ExecContext(ctx, executor.Rebind(
			`UPDATE courts SET status = ?, current_game_id = ? WHERE id = ? AND current_game_id IS NULL`),
			models.CourtInUse, op.GameID, op.CourtID)
		if err != nil {
			return fmt.Errorf("failed to assign court %s: %w", op.CourtID, err)
		}
		if err := checkAffectedRows(res, ErrCourtBusy); err != nil {
			return err
		}
	}

	agg.ResetChanges()
	return nil
}

func (r *sqlDivisionRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID string) ([]models.Division, error) {
	executor := r.getExecutor(exec)
	var divisions []models.Division
	err := sqlx.SelectContext(ctx, executor, &divisions, executor.Rebind(
		"SELECT "+selectColumns("", divisionColumns)+" FROM divisions WHERE event_id = ? ORDER BY created_at, id"), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list divisions: %w", err)
	}
	return divisions, nil
}

func (r *sqlDivisionRepository) OtherDivisionsOf(ctx context.Context, exec SQLExecutor, eventID, userID, exceptDivisionID string) ([]string, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT DISTINCT d.id
		FROM divisions d
		JOIN units u ON u.division_id = d.id
		JOIN unit_members m ON m.unit_id = u.id
		WHERE d.event_id = ? AND d.id <> ? AND m.user_id = ?
			AND m.invite_status = ? AND u.status <> ?`
	var ids []string
	err := sqlx.SelectContext(ctx, executor, &ids, executor.Rebind(query),
		eventID, exceptDivisionID, userID, models.InviteAccepted, models.UnitCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations of user %s: %w", userID, err)
	}
	return ids, nil
}

func upsertAll[T any](ctx context.Context, exec SQLExecutor, table string, cols []string, rows []*T) error {
	if len(rows) == 0 {
		return nil
	}
	query := upsertQuery(table, cols)
	for _, row := range rows {
		if _, err := sqlx.NamedExecContext(ctx, exec, query, row); err != nil {
			return fmt.Errorf("failed to upsert into %s: %w", table, mapDBError(err))
		}
	}
	return nil
}

func releaseCourtsOfGames(ctx context.Context, exec SQLExecutor, gameIDs []string) error {
	if len(gameIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE courts SET status = ?, current_game_id = NULL WHERE current_game_id IN (?)`,
		models.CourtAvailable, gameIDs)
	if err != nil {
		return fmt.Errorf("failed to build court release: %w", err)
	}
	if _, err := exec.ExecContext(ctx, exec.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to release courts: %w", err)
	}
	return nil
}

func namedValues(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = ":" + c
	}
	return joinComma(out)
}
