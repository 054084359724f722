package domain

import "time"

// Rating represents one user's judgment of one movie: either a numeric rating
// or an explicit skip marker (IsSkipped with no value). The row id is the
// ordering key for back/next history navigation.
type Rating struct {
	ID        int64
	UserID    int64
	MovieID   int64
	Value     *int32
	IsSkipped bool
	CreatedAt time.Time
}

// Rated reports whether the row carries a numeric rating rather than a skip.
func (r Rating) Rated() bool {
	return r.Value != nil && !r.IsSkipped
}
