package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cinematch/cinematch/internal/metrics"
	"github.com/cinematch/cinematch/internal/recommender"
	"github.com/cinematch/cinematch/internal/repository"
)

type recommendedMovie struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Overview  string  `json:"overview"`
	PosterURL *string `json:"poster_url"`
}

type recommendationResponse struct {
	RecommendedMovie *recommendedMovie `json:"recommended_movie,omitempty"`
	Message          string            `json:"message,omitempty"`
}

type ratingSubmitRequest struct {
	UserID  int64 `json:"user_id"`
	MovieID int64 `json:"movie_id"`
	Rating  int32 `json:"rating"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type userRegisterRequest struct {
	Username string `json:"username"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func (s *Server) handleFetchNext(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.resolveUser(w, r)
	if !ok {
		return
	}

	resp, err := s.navigator.FetchNext(r.Context(), userID)
	if err != nil {
		s.respondNavigationError(w, userID, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toRecommendationResponse(resp))
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.resolveUser(w, r)
	if !ok {
		return
	}

	action := recommender.Action(strings.TrimSpace(r.URL.Query().Get("action")))
	switch action {
	case recommender.ActionNone, recommender.ActionNext, recommender.ActionBack:
	default:
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "action must be one of next, back")
		return
	}

	var movieID int64
	if action != recommender.ActionNone {
		var err error
		movieID, err = parseIDParam(r.URL.Query().Get("movie_id"))
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "movie_id is required for next/back")
			return
		}
	}

	resp, err := s.navigator.Navigate(r.Context(), userID, action, movieID)
	if err != nil {
		s.respondNavigationError(w, userID, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toRecommendationResponse(resp))
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	var req ratingSubmitRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating must be between 1 and 5")
		return
	}

	if _, err := s.repo.Movies.GetByID(r.Context(), req.MovieID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "MOVIE_NOT_FOUND", "Movie does not exist")
			return
		}
		s.logger.Error().Err(err).Msg("resolve movie for rating failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process rating")
		return
	}
	if _, err := s.repo.Users.GetByID(r.Context(), req.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "USER_NOT_FOUND", "User does not exist")
			return
		}
		s.logger.Error().Err(err).Msg("resolve user for rating failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process rating")
		return
	}

	_, _, err := s.repo.Ratings.Upsert(r.Context(), repository.RatingUpsertParams{
		UserID:  req.UserID,
		MovieID: req.MovieID,
		Value:   req.Rating,
	})
	if err != nil {
		s.logger.Error().Err(err).
			Int64("user_id", req.UserID).
			Int64("movie_id", req.MovieID).
			Msg("upsert rating failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process rating")
		return
	}

	metrics.RatingsSubmitted.Inc()
	s.respondJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req userRegisterRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "username is required")
		return
	}

	user, err := s.repo.Users.Create(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			s.respondError(w, http.StatusConflict, "CONFLICT", "Username already taken")
			return
		}
		s.logger.Error().Err(err).Msg("create user failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user")
		return
	}

	// Seeding failure is non-fatal: the first fetch refreshes the queue
	// through the predictor anyway.
	if err := s.queue.Seed(r.Context(), user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("seed initial recommendations failed")
	}

	s.respondJSON(w, http.StatusCreated, userResponse{ID: user.ID, Username: user.Username})
}

// resolveUser parses user_id and verifies the user exists. It writes the
// error response itself and reports success via the bool.
func (s *Server) resolveUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := parseIDParam(r.URL.Query().Get("user_id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "user_id is required")
		return 0, false
	}
	if _, err := s.repo.Users.GetByID(r.Context(), userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "USER_NOT_FOUND", "User does not exist")
			return 0, false
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("resolve user failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve user")
		return 0, false
	}
	return userID, true
}

func (s *Server) respondNavigationError(w http.ResponseWriter, userID int64, err error) {
	if errors.Is(err, recommender.ErrMovieNotFound) {
		s.respondError(w, http.StatusNotFound, "MOVIE_NOT_FOUND", "Movie does not exist")
		return
	}
	s.logger.Error().Err(err).Int64("user_id", userID).Msg("navigation failed")
	s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch recommendation")
}

func toRecommendationResponse(resp recommender.Response) recommendationResponse {
	if resp.Movie == nil {
		return recommendationResponse{Message: resp.Message}
	}
	return recommendationResponse{
		RecommendedMovie: &recommendedMovie{
			ID:        resp.Movie.ID,
			Title:     resp.Movie.Title,
			Overview:  resp.Movie.Overview,
			PosterURL: resp.Movie.PosterURL,
		},
	}
}
