package recommender

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/internal/domain"
	"github.com/cinematch/cinematch/internal/metrics"
	"github.com/cinematch/cinematch/internal/repository"
)

// ErrMovieNotFound is returned when navigation references a movie that does
// not exist in the catalog.
var ErrMovieNotFound = errors.New("recommender: movie not found")

// Action is a navigation command from the delivery layer.
type Action string

const (
	ActionNone Action = ""
	ActionNext Action = "next"
	ActionBack Action = "back"
)

// Terminal payload messages. These are valid empty states, not errors.
const (
	MsgNoMoreRecommendations = "no more recommendations available"
	MsgNoPreviousMovie       = "no previous movie available"
)

// Response is what navigation presents: either a movie or a terminal message.
type Response struct {
	Movie   *domain.Movie
	Message string
}

// Navigator decides which movie to show for a user and an action. The user's
// rating rows, ordered by id, form a linear history the user can walk through;
// running forward past the end of history hands control to the queue.
type Navigator struct {
	queue   *Queue
	ratings *repository.RatingsRepository
	movies  *repository.MoviesRepository
	logger  zerolog.Logger
}

// NewNavigator wires the navigation state machine.
func NewNavigator(queue *Queue, ratings *repository.RatingsRepository, movies *repository.MoviesRepository, logger zerolog.Logger) *Navigator {
	return &Navigator{queue: queue, ratings: ratings, movies: movies, logger: logger}
}

// Navigate dispatches on the action. currentMovieID identifies the movie the
// user is looking at; it is ignored for ActionNone.
func (n *Navigator) Navigate(ctx context.Context, userID int64, action Action, currentMovieID int64) (Response, error) {
	switch action {
	case ActionNext:
		return n.next(ctx, userID, currentMovieID)
	case ActionBack:
		return n.back(ctx, userID, currentMovieID)
	default:
		return n.FetchNext(ctx, userID)
	}
}

// next advances one step: through history if the current movie sits inside
// it, otherwise the current movie is recorded as skipped and a fresh
// candidate is fetched.
func (n *Navigator) next(ctx context.Context, userID, currentMovieID int64) (Response, error) {
	current, err := n.ratings.GetByUserMovie(ctx, userID, currentMovieID)
	switch {
	case err == nil:
		following, err := n.ratings.NextAfter(ctx, userID, current.ID)
		if err == nil {
			return n.present(ctx, following.MovieID)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return Response{}, fmt.Errorf("next history row: %w", err)
		}
		// End of history; fall through to the queue.
		return n.FetchNext(ctx, userID)

	case errors.Is(err, repository.ErrNotFound):
		// Fresh candidate never rated: record the pass-over, then fetch.
		if _, err := n.movies.GetByID(ctx, currentMovieID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return Response{}, ErrMovieNotFound
			}
			return Response{}, fmt.Errorf("lookup movie: %w", err)
		}
		if _, err := n.ratings.MarkSkipped(ctx, userID, currentMovieID); err != nil {
			return Response{}, fmt.Errorf("record skip: %w", err)
		}
		metrics.SkipsRecorded.Inc()
		n.logger.Debug().
			Int64("user_id", userID).
			Int64("movie_id", currentMovieID).
			Msg("navigator: movie skipped")
		return n.FetchNext(ctx, userID)

	default:
		return Response{}, fmt.Errorf("lookup current rating: %w", err)
	}
}

// back steps to the previous history entry, or jumps to the end of history
// when the current movie has no rating row yet.
func (n *Navigator) back(ctx context.Context, userID, currentMovieID int64) (Response, error) {
	current, err := n.ratings.GetByUserMovie(ctx, userID, currentMovieID)
	switch {
	case err == nil:
		previous, err := n.ratings.PrevBefore(ctx, userID, current.ID)
		if err == nil {
			return n.present(ctx, previous.MovieID)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return Response{}, fmt.Errorf("previous history row: %w", err)
		}
		return Response{Message: MsgNoPreviousMovie}, nil

	case errors.Is(err, repository.ErrNotFound):
		latest, err := n.ratings.Latest(ctx, userID)
		if err == nil {
			return n.present(ctx, latest.MovieID)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return Response{}, fmt.Errorf("latest history row: %w", err)
		}
		return Response{Message: MsgNoPreviousMovie}, nil

	default:
		return Response{}, fmt.Errorf("lookup current rating: %w", err)
	}
}

// FetchNext serves the best stored candidate, refreshing the queue once if it
// is empty. The served candidate is deleted only after its movie has been
// resolved, so it is never presented twice.
func (n *Navigator) FetchNext(ctx context.Context, userID int64) (Response, error) {
	rec, ok, err := n.queue.PopBest(ctx, userID)
	if err != nil {
		return Response{}, fmt.Errorf("pop candidate: %w", err)
	}
	if !ok {
		if err := n.queue.Refresh(ctx, userID); err != nil {
			return Response{}, err
		}
		rec, ok, err = n.queue.PopBest(ctx, userID)
		if err != nil {
			return Response{}, fmt.Errorf("pop candidate after refresh: %w", err)
		}
	}
	if !ok {
		metrics.QueueExhausted.Inc()
		return Response{Message: MsgNoMoreRecommendations}, nil
	}

	resp, err := n.present(ctx, rec.MovieID)
	if err != nil {
		return Response{}, err
	}
	if err := n.queue.Consume(ctx, rec.ID); err != nil {
		return Response{}, fmt.Errorf("consume candidate: %w", err)
	}
	metrics.RecommendationsServed.Inc()
	return resp, nil
}

func (n *Navigator) present(ctx context.Context, movieID int64) (Response, error) {
	movie, err := n.movies.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Response{}, ErrMovieNotFound
		}
		return Response{}, fmt.Errorf("lookup movie: %w", err)
	}
	return Response{Movie: &movie}, nil
}
