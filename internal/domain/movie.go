package domain

import "time"

// Movie represents the canonical movie entity in the catalog. Catalog rows are
// owned by the catalog and read-only to the recommendation core.
type Movie struct {
	ID        int64
	Title     string
	Overview  string
	Genre     *string
	PosterURL *string
	CreatedAt time.Time
}
