package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinematch/cinematch/internal/domain"
)

// ErrUsernameTaken indicates a registration attempt with an existing username.
var ErrUsernameTaken = errors.New("repository: username already taken")

// UsersRepository resolves and creates user identities.
type UsersRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new user row.
func (r *UsersRepository) Create(ctx context.Context, username string) (domain.User, error) {
	const query = `
        INSERT INTO users (username)
        VALUES ($1)
        RETURNING id, username, created_at
    `
	var user domain.User
	err := r.pool.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByID resolves a user by identifier.
func (r *UsersRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	const query = `SELECT id, username, created_at FROM users WHERE id = $1`
	var user domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}
