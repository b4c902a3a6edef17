package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/jmoiron/sqlx"
)

type EventRepository interface {
	Create(ctx context.Context, exec SQLExecutor, event *models.Event) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Event, error)
	AddManager(ctx context.Context, exec SQLExecutor, eventID, userID string) error
	IsManager(ctx context.Context, exec SQLExecutor, eventID, userID string) (bool, error)
}

type sqlEventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) EventRepository {
	return &sqlEventRepository{db: db}
}

func (r *sqlEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *sqlEventRepository) Create(ctx context.Context, exec SQLExecutor, e *models.Event) error {
	_, err := sqlx.NamedExecContext(ctx, r.getExecutor(exec), `
		INSERT INTO events (id, name, organizer_id, allow_multiple_divisions, created_at)
		VALUES (:id, :name, :organizer_id, :allow_multiple_divisions, :created_at)`, e)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", mapDBError(err))
	}
	return nil
}

func (r *sqlEventRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Event, error) {
	executor := r.getExecutor(exec)
	var e models.Event
	err := sqlx.GetContext(ctx, executor, &e, executor.Rebind(
		`SELECT id, name, organizer_id, allow_multiple_divisions, created_at FROM events WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	return &e, nil
}

func (r *sqlEventRepository) AddManager(ctx context.Context, exec SQLExecutor, eventID, userID string) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, executor.Rebind(
		`INSERT INTO event_managers (event_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`), eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to add manager: %w", mapDBError(err))
	}
	return nil
}

func (r *sqlEventRepository) IsManager(ctx context.Context, exec SQLExecutor, eventID, userID string) (bool, error) {
	executor := r.getExecutor(exec)
	var n int
	err := sqlx.GetContext(ctx, executor, &n, executor.Rebind(
		`SELECT COUNT(*) FROM event_managers WHERE event_id = ? AND user_id = ?`), eventID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check manager: %w", err)
	}
	return n > 0, nil
}
