package recommender

import (
	"math"
	"testing"

	"github.com/cinematch/cinematch/internal/domain"
)

func ratingRow(id, userID, movieID int64, value int32) domain.Rating {
	return domain.Rating{ID: id, UserID: userID, MovieID: movieID, Value: &value}
}

func TestRankWeightedExample(t *testing.T) {
	// User 1 rated movies 10 and 20; user 2 rated movie 10 only. Movie 20
	// must surface for user 2 with a score of rating(1,20) x cosine(1,2),
	// and movie 10 (already rated) must not appear.
	rows := []domain.Rating{
		ratingRow(1, 1, 10, 5),
		ratingRow(2, 1, 20, 4),
		ratingRow(3, 2, 10, 4),
	}

	got := Rank(rows, 2, DefaultTopK)
	if len(got) != 1 {
		t.Fatalf("Rank returned %d candidates, want 1: %+v", len(got), got)
	}
	if got[0].MovieID != 20 {
		t.Fatalf("candidate movie = %d, want 20", got[0].MovieID)
	}

	// Zero-filled vectors over movies [10, 20]: u1 = (5,4), u2 = (4,0).
	sim := 20.0 / (math.Sqrt(41) * 4.0)
	want := 4.0 * sim
	if math.Abs(got[0].Score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", got[0].Score, want)
	}
	if got[0].Score <= 0 {
		t.Fatalf("score = %v, want positive", got[0].Score)
	}
}

func TestRankUnnormalizedMeanOverRaters(t *testing.T) {
	// Two raters of the candidate movie: the score is the plain mean of
	// rating x similarity, not divided by the similarity mass.
	rows := []domain.Rating{
		// target 1 and users 2, 3 share movie 10 with identical ratings,
		// so cosine(1,2) and cosine(1,3) follow from the shared column.
		ratingRow(1, 1, 10, 4),
		ratingRow(2, 2, 10, 4),
		ratingRow(3, 2, 20, 2),
		ratingRow(4, 3, 10, 4),
		ratingRow(5, 3, 20, 5),
	}

	got := Rank(rows, 1, DefaultTopK)
	if len(got) != 1 || got[0].MovieID != 20 {
		t.Fatalf("Rank = %+v, want single candidate for movie 20", got)
	}

	// Vectors over movies [10, 20]: u1=(4,0), u2=(4,2), u3=(4,5).
	sim12 := 16.0 / (4.0 * math.Sqrt(20))
	sim13 := 16.0 / (4.0 * math.Sqrt(41))
	want := (2.0*sim12 + 5.0*sim13) / 2.0
	if math.Abs(got[0].Score-want) > 1e-9 {
		t.Fatalf("score = %v, want unnormalized mean %v", got[0].Score, want)
	}

	// Guard against the "fixed" normalized variant sneaking in.
	normalized := (2.0*sim12 + 5.0*sim13) / (sim12 + sim13)
	if math.Abs(got[0].Score-normalized) < 1e-9 {
		t.Fatalf("score matches the normalized weighted mean; weighting scheme drifted")
	}
}

func TestRankExcludesRatedSortsDescendingNoDuplicates(t *testing.T) {
	rows := []domain.Rating{
		ratingRow(1, 1, 10, 5),
		ratingRow(2, 1, 20, 1),
		ratingRow(3, 2, 10, 5),
		ratingRow(4, 2, 30, 5),
		ratingRow(5, 2, 40, 1),
		ratingRow(6, 3, 10, 4),
		ratingRow(7, 3, 30, 4),
		ratingRow(8, 3, 50, 3),
	}

	got := Rank(rows, 1, DefaultTopK)
	if len(got) == 0 {
		t.Fatalf("expected candidates for user 1")
	}

	seen := map[int64]struct{}{}
	rated := map[int64]struct{}{10: {}, 20: {}}
	for i, c := range got {
		if _, dup := seen[c.MovieID]; dup {
			t.Fatalf("duplicate candidate movie %d", c.MovieID)
		}
		seen[c.MovieID] = struct{}{}
		if _, isRated := rated[c.MovieID]; isRated {
			t.Fatalf("candidate %d is already rated by the target user", c.MovieID)
		}
		if i > 0 && got[i-1].Score < c.Score {
			t.Fatalf("candidates not sorted descending: %+v", got)
		}
	}
}

func TestRankLatestDuplicateWins(t *testing.T) {
	// Same (user, movie) pair twice: the later row must drive both the
	// matrix cell and the resulting prediction.
	rows := []domain.Rating{
		ratingRow(1, 1, 10, 1),
		ratingRow(2, 1, 10, 5), // overwrites the 1
		ratingRow(3, 1, 20, 5),
		ratingRow(4, 2, 10, 5),
	}

	got := Rank(rows, 2, DefaultTopK)
	if len(got) != 1 || got[0].MovieID != 20 {
		t.Fatalf("Rank = %+v, want single candidate for movie 20", got)
	}

	// With the duplicate resolved to 5: u1=(5,5), u2=(5,0).
	sim := 25.0 / (math.Sqrt(50) * 5.0)
	want := 5.0 * sim
	if math.Abs(got[0].Score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v (latest duplicate must win)", got[0].Score, want)
	}
}

func TestRankTopKTruncation(t *testing.T) {
	var rows []domain.Rating
	id := int64(1)
	// User 2 rates 15 movies the target never saw.
	for movie := int64(100); movie < 115; movie++ {
		rows = append(rows, ratingRow(id, 2, movie, 4))
		id++
	}
	// Overlap so similarity is non-degenerate.
	rows = append(rows, ratingRow(id, 2, 10, 5))
	id++
	rows = append(rows, ratingRow(id, 1, 10, 5))

	got := Rank(rows, 1, 10)
	if len(got) != 10 {
		t.Fatalf("Rank returned %d candidates, want top 10", len(got))
	}
	// Equal scores: creation (movie id) order must be preserved.
	for i := 1; i < len(got); i++ {
		if got[i-1].Score == got[i].Score && got[i-1].MovieID > got[i].MovieID {
			t.Fatalf("tie order unstable: %+v", got)
		}
	}
}

func TestRankDegenerateInputs(t *testing.T) {
	t.Run("no ratings at all", func(t *testing.T) {
		if got := Rank(nil, 1, DefaultTopK); len(got) != 0 {
			t.Fatalf("Rank(nil) = %+v, want empty", got)
		}
	})

	t.Run("target rated everything", func(t *testing.T) {
		rows := []domain.Rating{
			ratingRow(1, 1, 10, 5),
			ratingRow(2, 1, 20, 3),
			ratingRow(3, 2, 10, 4),
		}
		if got := Rank(rows, 1, DefaultTopK); len(got) != 0 {
			t.Fatalf("Rank = %+v, want empty when target rated all movies", got)
		}
	})

	t.Run("target unknown to the matrix", func(t *testing.T) {
		rows := []domain.Rating{
			ratingRow(1, 1, 10, 5),
			ratingRow(2, 1, 20, 3),
		}
		// User 99 has a zero vector; similarities degenerate to 0 and every
		// movie surfaces with a zero score rather than a crash.
		got := Rank(rows, 99, DefaultTopK)
		if len(got) != 2 {
			t.Fatalf("Rank = %+v, want 2 zero-score candidates", got)
		}
		for _, c := range got {
			if c.Score != 0 {
				t.Fatalf("score = %v, want 0 for zero-vector target", c.Score)
			}
		}
	})

	t.Run("no other raters for unrated movie", func(t *testing.T) {
		rows := []domain.Rating{
			ratingRow(1, 1, 10, 5),
			ratingRow(2, 2, 20, 4),
		}
		// Users 1 and 2 share no movies, so their similarity is 0 and the
		// candidate surfaces with a zero score instead of crashing.
		got := Rank(rows, 1, DefaultTopK)
		if len(got) != 1 || got[0].MovieID != 20 {
			t.Fatalf("Rank = %+v, want single candidate for movie 20", got)
		}
	})
}

func TestRankSkipRowsCarryNoSignal(t *testing.T) {
	// Rows with a nil value (skip artifacts) contribute nothing to the
	// matrix, so a movie known only through skips has no raters.
	rows := []domain.Rating{
		ratingRow(1, 1, 10, 5),
		ratingRow(2, 2, 10, 4),
		{ID: 3, UserID: 2, MovieID: 30, Value: nil, IsSkipped: true},
	}

	got := Rank(rows, 1, DefaultTopK)
	for _, c := range got {
		if c.MovieID == 30 {
			t.Fatalf("skip-only movie 30 surfaced as a candidate: %+v", got)
		}
	}
}
