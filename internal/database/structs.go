package database

import "time"

// Session is one run of the harness. Variables are scoped to a session
// so replays never overwrite each other.
type Session struct {
	ID        string
	StartedAt time.Time
	Variables int
}
