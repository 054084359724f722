package domain

import "time"

// User carries only identity; the core depends on nothing else about a user.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}
