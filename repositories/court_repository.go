package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/jmoiron/sqlx"
)

var ErrCourtNotFound = errors.New("court not found")

type CourtRepository interface {
	Create(ctx context.Context, exec SQLExecutor, court *models.Court) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Court, error)
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID string) ([]*models.Court, error)
}

type sqlCourtRepository struct {
	db *sqlx.DB
}

func NewCourtRepository(db *sqlx.DB) CourtRepository {
	return &sqlCourtRepository{db: db}
}

func (r *sqlCourtRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *sqlCourtRepository) Create(ctx context.Context, exec SQLExecutor, c *models.Court) error {
	_, err := sqlx.NamedExecContext(ctx, r.getExecutor(exec), `
		INSERT INTO courts (id, event_id, label, status, current_game_id)
		VALUES (:id, :event_id, :label, :status, :current_game_id)`, c)
	if err != nil {
		return fmt.Errorf("failed to insert court: %w", mapDBError(err))
	}
	return nil
}

func (r *sqlCourtRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Court, error) {
	executor := r.getExecutor(exec)
	var c models.Court
	err := sqlx.GetContext(ctx, executor, &c, executor.Rebind(
		`SELECT id, event_id, label, status, current_game_id FROM courts WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to get court %s: %w", id, err)
	}
	return &c, nil
}

func (r *sqlCourtRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID string) ([]*models.Court, error) {
	executor := r.getExecutor(exec)
	var courts []*models.Court
	err := sqlx.SelectContext(ctx, executor, &courts, executor.Rebind(
		`SELECT id, event_id, label, status, current_game_id FROM courts WHERE event_id = ? ORDER BY label, id`), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	return courts, nil
}
