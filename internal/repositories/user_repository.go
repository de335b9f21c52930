package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"academy-chat/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository is the user directory consumed when resolving senders and
// computing room recipient sets.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	ListUserIDs(ctx context.Context) ([]int, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches a directory entry by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, display_name, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListUserIDs returns every known user id.
func (r *UserRepo) ListUserIDs(ctx context.Context) ([]int, error) {
	ids := []int{}
	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`)
	return ids, err
}
