package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinematch/cinematch/internal/domain"
)

// RatingsRepository provides helpers for user ratings and skip markers.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

const ratingColumns = `id, user_id, movie_id, rating, is_skipped, created_at`

// RatingUpsertParams captures the payload required to upsert a rating.
type RatingUpsertParams struct {
	UserID  int64
	MovieID int64
	Value   int32
}

// Upsert inserts or updates a rating and indicates whether it was newly
// created. Re-rating an already-known movie overwrites the value and clears
// the skip flag; this is the only path that turns a skip into a real rating.
func (r *RatingsRepository) Upsert(ctx context.Context, params RatingUpsertParams) (domain.Rating, bool, error) {
	query := fmt.Sprintf(`
        INSERT INTO ratings (user_id, movie_id, rating, is_skipped)
        VALUES ($1,$2,$3,FALSE)
        ON CONFLICT (user_id, movie_id)
        DO UPDATE SET rating = EXCLUDED.rating, is_skipped = FALSE
        RETURNING %s, (xmax = 0) AS inserted
    `, ratingColumns)

	var rating domain.Rating
	var inserted bool
	err := r.pool.QueryRow(ctx, query, params.UserID, params.MovieID, params.Value).Scan(
		&rating.ID,
		&rating.UserID,
		&rating.MovieID,
		&rating.Value,
		&rating.IsSkipped,
		&rating.CreatedAt,
		&inserted,
	)
	if err != nil {
		return domain.Rating{}, false, err
	}
	return rating, inserted, nil
}

// MarkSkipped records that a movie was passed over without a rating. An
// existing row for the pair is left untouched and returned as-is.
func (r *RatingsRepository) MarkSkipped(ctx context.Context, userID, movieID int64) (domain.Rating, error) {
	query := fmt.Sprintf(`
        INSERT INTO ratings (user_id, movie_id, rating, is_skipped)
        VALUES ($1,$2,NULL,TRUE)
        ON CONFLICT (user_id, movie_id) DO NOTHING
        RETURNING %s
    `, ratingColumns)

	rating, err := scanRating(r.pool.QueryRow(ctx, query, userID, movieID))
	if err == nil {
		return rating, nil
	}
	if err != pgx.ErrNoRows {
		return domain.Rating{}, fmt.Errorf("mark skipped: %w", err)
	}
	// Conflict: the pair already has a row.
	return r.GetByUserMovie(ctx, userID, movieID)
}

// GetByUserMovie retrieves the rating row for a user/movie pair. Should
// duplicates ever exist, the most recently created row wins.
func (r *RatingsRepository) GetByUserMovie(ctx context.Context, userID, movieID int64) (domain.Rating, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM ratings
        WHERE user_id = $1 AND movie_id = $2
        ORDER BY id DESC
        LIMIT 1
    `, ratingColumns)

	rating, err := scanRating(r.pool.QueryRow(ctx, query, userID, movieID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// NextAfter returns the user's chronologically next rating row after the given
// row id.
func (r *RatingsRepository) NextAfter(ctx context.Context, userID, ratingID int64) (domain.Rating, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM ratings
        WHERE user_id = $1 AND id > $2
        ORDER BY id ASC
        LIMIT 1
    `, ratingColumns)
	return r.getOne(ctx, query, userID, ratingID)
}

// PrevBefore returns the user's chronologically previous rating row before the
// given row id.
func (r *RatingsRepository) PrevBefore(ctx context.Context, userID, ratingID int64) (domain.Rating, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM ratings
        WHERE user_id = $1 AND id < $2
        ORDER BY id DESC
        LIMIT 1
    `, ratingColumns)
	return r.getOne(ctx, query, userID, ratingID)
}

// Latest returns the user's most recently created rating row.
func (r *RatingsRepository) Latest(ctx context.Context, userID int64) (domain.Rating, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM ratings
        WHERE user_id = $1
        ORDER BY id DESC
        LIMIT 1
    `, ratingColumns)
	return r.getOne(ctx, query, userID)
}

// ListNonSkipped returns every rated (non-skip) row across all users in
// creation order. This is the predictor's input snapshot.
func (r *RatingsRepository) ListNonSkipped(ctx context.Context) ([]domain.Rating, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM ratings
        WHERE is_skipped = FALSE AND rating IS NOT NULL
        ORDER BY id ASC
    `, ratingColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list non-skipped ratings: %w", err)
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

// PopularMovieIDs derives a popularity-ordered movie list from global ratings:
// highest average first, most rated as the tie-break. Feeds onboarding seeds.
func (r *RatingsRepository) PopularMovieIDs(ctx context.Context, limit int) ([]int64, error) {
	const query = `
        SELECT movie_id
        FROM ratings
        WHERE is_skipped = FALSE AND rating IS NOT NULL
        GROUP BY movie_id
        ORDER BY AVG(rating) DESC, COUNT(*) DESC, movie_id ASC
        LIMIT $1
    `

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("popular movies: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *RatingsRepository) getOne(ctx context.Context, query string, args ...interface{}) (domain.Rating, error) {
	rating, err := scanRating(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

func scanRating(row pgx.Row) (domain.Rating, error) {
	var rating domain.Rating
	err := row.Scan(
		&rating.ID,
		&rating.UserID,
		&rating.MovieID,
		&rating.Value,
		&rating.IsSkipped,
		&rating.CreatedAt,
	)
	if err != nil {
		return domain.Rating{}, err
	}
	return rating, nil
}
