package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads the platform profile projection and the friendship graph.
type UserRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, person *models.Person) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Person, error)
	AddFriendship(ctx context.Context, exec SQLExecutor, userID, friendID string) error
	AreFriends(ctx context.Context, exec SQLExecutor, userID, otherID string) (bool, error)
}

type sqlUserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &sqlUserRepository{db: db}
}

func (r *sqlUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *sqlUserRepository) Upsert(ctx context.Context, exec SQLExecutor, p *models.Person) error {
	_, err := sqlx.NamedExecContext(ctx, r.getExecutor(exec),
		upsertQuery("users", []string{"id", "first_name", "last_name", "email"}), p)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", p.ID, mapDBError(err))
	}
	return nil
}

func (r *sqlUserRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Person, error) {
	executor := r.getExecutor(exec)
	var p models.Person
	err := sqlx.GetContext(ctx, executor, &p, executor.Rebind(
		`SELECT id, first_name, last_name, email FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &p, nil
}

// AddFriendship stores the relation in both directions.
func (r *sqlUserRepository) AddFriendship(ctx context.Context, exec SQLExecutor, userID, friendID string) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`INSERT INTO friendships (user_id, friend_id) VALUES (?, ?) ON CONFLICT DO NOTHING`)
	for _, pair := range [][2]string{{userID, friendID}, {friendID, userID}} {
		if _, err := executor.ExecContext(ctx, query, pair[0], pair[1]); err != nil {
			return fmt.Errorf("failed to add friendship: %w", mapDBError(err))
		}
	}
	return nil
}

func (r *sqlUserRepository) AreFriends(ctx context.Context, exec SQLExecutor, userID, otherID string) (bool, error) {
	executor := r.getExecutor(exec)
	var n int
	err := sqlx.GetContext(ctx, executor, &n, executor.Rebind(
		`SELECT COUNT(*) FROM friendships WHERE user_id = ? AND friend_id = ?`), userID, otherID)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return n > 0, nil
}

func findPeople(ctx context.Context, exec SQLExecutor, ids []string) ([]*models.Person, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, first_name, last_name, email FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build people query: %w", err)
	}
	var people []*models.Person
	if err := sqlx.SelectContext(ctx, exec, &people, exec.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load people: %w", err)
	}
	return people, nil
}
