package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cinematch/cinematch/internal/domain"
	"github.com/cinematch/cinematch/internal/repository"
)

type movieCreateRequest struct {
	Title     string  `json:"title"`
	Overview  string  `json:"overview"`
	Genre     *string `json:"genre"`
	PosterURL *string `json:"poster_url"`
}

type movieResponse struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Overview  string  `json:"overview"`
	Genre     *string `json:"genre,omitempty"`
	PosterURL *string `json:"poster_url,omitempty"`
}

type movieListResponse struct {
	Items []movieResponse `json:"items"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filters repository.MovieListFilters

	if q := strings.TrimSpace(query.Get("q")); q != "" {
		filters.Query = &q
	}
	if genre := strings.TrimSpace(query.Get("genre")); genre != "" {
		filters.Genre = &genre
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid limit value")
			return
		}
		filters.Limit = limit
	}

	movies, err := s.repo.Movies.List(r.Context(), filters)
	if err != nil {
		s.logger.Error().Err(err).Msg("list movies failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list movies")
		return
	}

	items := make([]movieResponse, 0, len(movies))
	for _, movie := range movies {
		items = append(items, toMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, movieListResponse{Items: items})
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var req movieCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required")
		return
	}

	movie, err := s.repo.Movies.Create(r.Context(), repository.MovieCreateParams{
		Title:     req.Title,
		Overview:  req.Overview,
		Genre:     normalizeStringPtr(req.Genre),
		PosterURL: normalizeStringPtr(req.PosterURL),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("create movie failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create movie")
		return
	}
	s.respondJSON(w, http.StatusCreated, toMovieResponse(movie))
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseIDParam(chi.URLParam(r, "movieID"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid movie id")
		return
	}

	movie, err := s.repo.Movies.GetByID(r.Context(), movieID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "MOVIE_NOT_FOUND", "Movie does not exist")
			return
		}
		s.logger.Error().Err(err).Int64("movie_id", movieID).Msg("get movie failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch movie")
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func toMovieResponse(movie domain.Movie) movieResponse {
	return movieResponse{
		ID:        movie.ID,
		Title:     movie.Title,
		Overview:  movie.Overview,
		Genre:     movie.Genre,
		PosterURL: movie.PosterURL,
	}
}

func normalizeStringPtr(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	if val == "" {
		return nil
	}
	return &val
}
