package model

import (
	"encoding/json"
	"time"
)

// RemoteWorkout is a local read-only mirror of one workout on a coach's
// external platform account. Payload is the platform's workout JSON, stored
// unmodified and never interpreted beyond the identifier fields stripped
// at import time.
type RemoteWorkout struct {
	ID          int64
	CoachID     int64
	RemoteID    string // Platform-assigned identifier, opaque.
	Name        string
	Sport       Sport
	Description string
	Payload     json.RawMessage
	FetchedAt   time.Time
}

// Stale reports whether the cache entry is older than the freshness window
// and should be re-fetched before the next share.
func (w RemoteWorkout) Stale(window time.Duration, now time.Time) bool {
	return now.Sub(w.FetchedAt) > window
}
