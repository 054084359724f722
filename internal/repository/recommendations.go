package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinematch/cinematch/internal/domain"
)

// RecommendationsRepository manages the per-user candidate queue.
type RecommendationsRepository struct {
	pool *pgxpool.Pool
}

const recommendationColumns = `id, user_id, movie_id, score, created_at`

// RecommendationInsert is one queue entry to store during a refresh or seed.
type RecommendationInsert struct {
	MovieID int64
	Score   *float64
}

// ReplaceAll deletes the user's queue and inserts the new batch in one
// transaction, preserving the batch order via the serial id.
func (r *RecommendationsRepository) ReplaceAll(ctx context.Context, userID int64, batch []RecommendationInsert) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM recommendations WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear recommendations: %w", err)
	}

	for _, item := range batch {
		_, err := tx.Exec(ctx,
			`INSERT INTO recommendations (user_id, movie_id, score) VALUES ($1,$2,$3)`,
			userID, item.MovieID, item.Score)
		if err != nil {
			return fmt.Errorf("insert recommendation: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// InsertMany appends queue entries without touching existing rows (onboarding
// seeds go through here).
func (r *RecommendationsRepository) InsertMany(ctx context.Context, userID int64, batch []RecommendationInsert) error {
	for _, item := range batch {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO recommendations (user_id, movie_id, score) VALUES ($1,$2,$3)`,
			userID, item.MovieID, item.Score)
		if err != nil {
			return fmt.Errorf("insert recommendation: %w", err)
		}
	}
	return nil
}

// Best returns the highest-scored remaining entry for the user without
// consuming it. Score-less (seeded) rows sort ahead of scored ones; within a
// score, insertion order wins.
func (r *RecommendationsRepository) Best(ctx context.Context, userID int64) (domain.Recommendation, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM recommendations
        WHERE user_id = $1
        ORDER BY score DESC NULLS FIRST, id ASC
        LIMIT 1
    `, recommendationColumns)

	var rec domain.Recommendation
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.MovieID,
		&rec.Score,
		&rec.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Recommendation{}, ErrNotFound
		}
		return domain.Recommendation{}, err
	}
	return rec, nil
}

// Delete removes a single consumed entry.
func (r *RecommendationsRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM recommendations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recommendation: %w", err)
	}
	return nil
}

// Count returns the number of remaining entries for the user.
func (r *RecommendationsRepository) Count(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM recommendations WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recommendations: %w", err)
	}
	return count, nil
}
