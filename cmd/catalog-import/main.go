package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/internal/repository"
)

type movieEntry struct {
	Title     string  `json:"title"`
	Overview  string  `json:"overview"`
	Genre     *string `json:"genre"`
	PosterURL *string `json:"poster_url"`
}

func main() {
	var (
		dbURL = flag.String("db", os.Getenv("DB_URL"), "postgres connection string")
		data  = flag.String("file", "movies.json", "path to catalog file")
	)
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if *dbURL == "" {
		logger.Fatal().Msg("db connection string is required (-db or DB_URL)")
	}

	file, err := os.ReadFile(*data)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *data).Msg("read catalog file")
	}

	var entries []movieEntry
	if err := json.Unmarshal(file, &entries); err != nil {
		logger.Fatal().Err(err).Msg("parse catalog file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, *dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	repo := repository.NewWithPool(pool)

	imported := 0
	for _, entry := range entries {
		if entry.Title == "" {
			logger.Warn().Msg("skipping entry without title")
			continue
		}
		if _, err := repo.Movies.Create(ctx, repository.MovieCreateParams{
			Title:     entry.Title,
			Overview:  entry.Overview,
			Genre:     entry.Genre,
			PosterURL: entry.PosterURL,
		}); err != nil {
			logger.Fatal().Err(err).Str("title", entry.Title).Msg("insert movie")
		}
		imported++
	}

	logger.Info().Int("imported", imported).Msg("catalog import complete")
}
