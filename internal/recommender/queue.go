package recommender

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/internal/domain"
	"github.com/cinematch/cinematch/internal/metrics"
	"github.com/cinematch/cinematch/internal/repository"
)

// CandidatePredictor abstracts the ranking step so the queue does not care
// whether candidates come from the collaborative filter or something cheaper.
type CandidatePredictor interface {
	Predict(ctx context.Context, userID int64) ([]Candidate, error)
}

// SeedSource supplies the movie list used to pre-populate a brand-new user's
// queue before any ratings exist.
type SeedSource interface {
	PopularMovieIDs(ctx context.Context, limit int) ([]int64, error)
}

// Queue owns the lifecycle of a user's stored recommendation candidates:
// full refresh from the predictor, ordered consumption, and onboarding seeds.
type Queue struct {
	predictor CandidatePredictor
	recs      *repository.RecommendationsRepository
	seeds     SeedSource
	seedLimit int
	logger    zerolog.Logger
}

// NewQueue wires the queue over its predictor, storage, and seed source.
func NewQueue(predictor CandidatePredictor, recs *repository.RecommendationsRepository, seeds SeedSource, seedLimit int, logger zerolog.Logger) *Queue {
	if seedLimit < 1 {
		seedLimit = DefaultTopK
	}
	return &Queue{
		predictor: predictor,
		recs:      recs,
		seeds:     seeds,
		seedLimit: seedLimit,
		logger:    logger,
	}
}

// Refresh recomputes the user's candidates and fully replaces the stored
// queue: delete all, then insert the new batch in rank order. An empty
// predictor result leaves an empty queue, which is a valid state.
func (q *Queue) Refresh(ctx context.Context, userID int64) error {
	started := time.Now()

	candidates, err := q.predictor.Predict(ctx, userID)
	if err != nil {
		return fmt.Errorf("predict candidates: %w", err)
	}

	batch := make([]repository.RecommendationInsert, 0, len(candidates))
	for _, c := range candidates {
		score := c.Score
		batch = append(batch, repository.RecommendationInsert{MovieID: c.MovieID, Score: &score})
	}
	if err := q.recs.ReplaceAll(ctx, userID, batch); err != nil {
		return fmt.Errorf("replace queue: %w", err)
	}

	metrics.RefreshDuration.Observe(time.Since(started).Seconds())
	metrics.RefreshCandidates.Observe(float64(len(candidates)))
	q.logger.Info().
		Int64("user_id", userID).
		Int("candidates", len(candidates)).
		Dur("took", time.Since(started)).
		Msg("queue: refreshed recommendations")
	return nil
}

// PopBest returns the best remaining candidate without consuming it. The
// second return is false when the queue is empty.
func (q *Queue) PopBest(ctx context.Context, userID int64) (domain.Recommendation, bool, error) {
	rec, err := q.recs.Best(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Recommendation{}, false, nil
		}
		return domain.Recommendation{}, false, err
	}
	return rec, true, nil
}

// Consume deletes a candidate that has been presented, so it is never served
// twice.
func (q *Queue) Consume(ctx context.Context, recommendationID int64) error {
	return q.recs.Delete(ctx, recommendationID)
}

// IsEmpty reports whether the user has any stored candidates left.
func (q *Queue) IsEmpty(ctx context.Context, userID int64) (bool, error) {
	count, err := q.recs.Count(ctx, userID)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// Seed pre-populates a new user's queue from the seed source, bypassing the
// predictor. Seeded rows carry no score and are served ahead of scored ones.
// An empty seed list is not an error.
func (q *Queue) Seed(ctx context.Context, userID int64) error {
	movieIDs, err := q.seeds.PopularMovieIDs(ctx, q.seedLimit)
	if err != nil {
		return fmt.Errorf("load seed movies: %w", err)
	}
	if len(movieIDs) == 0 {
		q.logger.Debug().Int64("user_id", userID).Msg("queue: no seed movies available")
		return nil
	}

	batch := make([]repository.RecommendationInsert, 0, len(movieIDs))
	for _, movieID := range movieIDs {
		batch = append(batch, repository.RecommendationInsert{MovieID: movieID})
	}
	if err := q.recs.InsertMany(ctx, userID, batch); err != nil {
		return fmt.Errorf("seed queue: %w", err)
	}

	q.logger.Info().
		Int64("user_id", userID).
		Int("seeded", len(batch)).
		Msg("queue: seeded initial recommendations")
	return nil
}
