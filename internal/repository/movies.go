package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinematch/cinematch/internal/domain"
)

// MoviesRepository provides persistence helpers for catalog movies.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `id, title, overview, genre, poster_url, created_at`

// MovieCreateParams bundles the fields required to create a movie.
type MovieCreateParams struct {
	Title     string
	Overview  string
	Genre     *string
	PosterURL *string
}

// MovieListFilters encapsulates search options for the catalog listing.
type MovieListFilters struct {
	Query *string
	Genre *string
	Limit int
}

// Create inserts a new movie row and returns the stored entity.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	query := fmt.Sprintf(`
        INSERT INTO movies (title, overview, genre, poster_url)
        VALUES ($1,$2,$3,$4)
        RETURNING %s
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query, params.Title, params.Overview, params.Genre, params.PosterURL)
	return scanMovie(row)
}

// GetByID fetches a single movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// List returns catalog movies matching the filters, newest first.
func (r *MoviesRepository) List(ctx context.Context, filters MovieListFilters) ([]domain.Movie, error) {
	where := []string{"TRUE"}
	args := []interface{}{}

	if filters.Query != nil {
		args = append(args, "%"+*filters.Query+"%")
		where = append(where, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if filters.Genre != nil {
		args = append(args, *filters.Genre)
		where = append(where, fmt.Sprintf("genre = $%d", len(args)))
	}

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
        SELECT %s FROM movies
        WHERE %s
        ORDER BY id DESC
        LIMIT $%d
    `, movieColumns, strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var movies []domain.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, movie)
	}
	return movies, rows.Err()
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Overview,
		&movie.Genre,
		&movie.PosterURL,
		&movie.CreatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}
