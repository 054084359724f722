package domain

import "time"

// Recommendation is a transient scored candidate awaiting presentation. Score
// is nil for onboarding-seeded rows, which are served ahead of predictor
// output. Rows are consumed destructively as they are presented.
type Recommendation struct {
	ID        int64
	UserID    int64
	MovieID   int64
	Score     *float64
	CreatedAt time.Time
}
