package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinematch/cinematch/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies          *MoviesRepository
	Users           *UsersRepository
	Ratings         *RatingsRepository
	Recommendations *RecommendationsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Movies:          &MoviesRepository{pool: pool},
		Users:           &UsersRepository{pool: pool},
		Ratings:         &RatingsRepository{pool: pool},
		Recommendations: &RecommendationsRepository{pool: pool},
	}
}
