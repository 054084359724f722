package recommender

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/internal/domain"
)

// DefaultTopK bounds the number of candidates a predictor run returns.
const DefaultTopK = 10

// Candidate is one scored movie produced by a predictor run.
type Candidate struct {
	MovieID int64
	Score   float64
}

// RatingsSource is the slice of storage the predictor reads.
type RatingsSource interface {
	ListNonSkipped(ctx context.Context) ([]domain.Rating, error)
}

// Predictor turns the global rating matrix into ranked candidates for one
// user via user-user collaborative filtering.
type Predictor struct {
	ratings RatingsSource
	topK    int
	logger  zerolog.Logger
}

// NewPredictor builds a predictor over the given ratings source. topK values
// below 1 fall back to DefaultTopK.
func NewPredictor(ratings RatingsSource, topK int, logger zerolog.Logger) *Predictor {
	if topK < 1 {
		topK = DefaultTopK
	}
	return &Predictor{ratings: ratings, topK: topK, logger: logger}
}

// Predict returns up to topK unrated movies for the user, ranked by predicted
// score descending. Degenerate inputs (no ratings, unknown user, no overlap
// with other users) yield a short or empty list, never an error beyond
// storage failures.
func (p *Predictor) Predict(ctx context.Context, userID int64) ([]Candidate, error) {
	rows, err := p.ratings.ListNonSkipped(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ratings snapshot: %w", err)
	}

	candidates := Rank(rows, userID, p.topK)
	p.logger.Debug().
		Int64("user_id", userID).
		Int("ratings", len(rows)).
		Int("candidates", len(candidates)).
		Msg("predictor: ranked candidates")
	return candidates, nil
}

// Rank is the pure core of the predictor: given a snapshot of non-skipped
// rating rows in creation order, it ranks unrated movies for the target user.
//
// The score for a movie is the plain mean of rating x cosine-similarity over
// the users who rated it. The sum is deliberately not renormalized by the
// total similarity mass, so scores are attenuated by rater count rather than
// being true weighted means. This matches the shipped behaviour and must not
// be "corrected" to a normalized average.
func Rank(rows []domain.Rating, targetUser int64, topK int) []Candidate {
	matrix := buildMatrix(rows)
	if len(matrix.users) == 0 {
		return nil
	}

	sims := matrix.similaritiesTo(targetUser)

	targetRated := matrix.cells[targetUser]
	var candidates []Candidate
	for _, movieID := range matrix.movies {
		if _, rated := targetRated[movieID]; rated {
			continue
		}

		var sum float64
		var raters int
		for _, otherID := range matrix.users {
			if otherID == targetUser {
				continue
			}
			value, ok := matrix.cells[otherID][movieID]
			if !ok {
				continue
			}
			sum += value * sims[otherID]
			raters++
		}
		if raters == 0 {
			continue
		}
		score := sum / float64(raters)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		candidates = append(candidates, Candidate{MovieID: movieID, Score: score})
	}

	// Candidates were collected in ascending movie-id order; a stable sort
	// keeps that order for equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// ratingMatrix is the sparse user x movie view of the rating snapshot.
// Missing cells are genuinely missing; they are zero-filled only inside the
// similarity computation.
type ratingMatrix struct {
	users  []int64 // ascending
	movies []int64 // ascending
	cells  map[int64]map[int64]float64
}

// buildMatrix de-duplicates by (user, movie) keeping the latest row, then
// pivots into the sparse matrix. Input rows arrive in creation order, so a
// plain overwrite implements latest-wins.
func buildMatrix(rows []domain.Rating) ratingMatrix {
	cells := make(map[int64]map[int64]float64)
	movieSet := make(map[int64]struct{})
	for _, row := range rows {
		if !row.Rated() {
			continue
		}
		userCells, ok := cells[row.UserID]
		if !ok {
			userCells = make(map[int64]float64)
			cells[row.UserID] = userCells
		}
		userCells[row.MovieID] = float64(*row.Value)
		movieSet[row.MovieID] = struct{}{}
	}

	users := make([]int64, 0, len(cells))
	for id := range cells {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	movies := make([]int64, 0, len(movieSet))
	for id := range movieSet {
		movies = append(movies, id)
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i] < movies[j] })

	return ratingMatrix{users: users, movies: movies, cells: cells}
}

// similaritiesTo computes the target user's row of the user-user cosine
// similarity matrix over zero-filled vectors. A target with no ratings is a
// zero vector; cosine against it is 0 by convention, so every similarity
// degenerates to 0 rather than failing.
func (m ratingMatrix) similaritiesTo(targetUser int64) map[int64]float64 {
	target := m.vector(targetUser)
	sims := make(map[int64]float64, len(m.users))
	for _, otherID := range m.users {
		if otherID == targetUser {
			sims[otherID] = 1.0
			continue
		}
		sims[otherID] = cosine(target, m.vector(otherID))
	}
	return sims
}

// vector returns the user's zero-filled rating vector over all movies.
func (m ratingMatrix) vector(userID int64) []float64 {
	vec := make([]float64, len(m.movies))
	userCells := m.cells[userID]
	for i, movieID := range m.movies {
		if value, ok := userCells[movieID]; ok {
			vec[i] = value
		}
	}
	return vec
}

// cosine returns the cosine similarity of two equal-length vectors, 0 when
// either has zero norm.
func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
