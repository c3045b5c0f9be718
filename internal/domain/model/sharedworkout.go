package model

import (
	"encoding/json"
	"time"
)

// SharedWorkout ties a workout snapshot from a coach's account to a delivery
// attempt against an athlete's account. The payload is copied in at share
// time so later changes on the coach's side (including revoking platform
// access) cannot break delivery.
//
// Status transitions are driven exclusively by the share lifecycle engine:
//
//	pending -> importing -> imported (terminal)
//	pending -> importing -> failed
//	failed  -> pending (manual retry)
type SharedWorkout struct {
	ID            int64
	BatchID       string // UUID grouping the shares created by one Share call.
	CoachID       int64
	AthleteID     int64
	RemoteID      string // Source workout id on the coach's platform account.
	Name          string
	Sport         Sport
	Description   string
	Payload       json.RawMessage
	Status        ShareStatus
	Attempts      int
	LastError     string
	LastCategory  ErrorCategory // Empty until the first failed attempt.
	ImportedID    string        // Id assigned by the athlete's platform account; set only on imported.
	SharedAt      time.Time
	LastAttemptAt *time.Time
	ImportedAt    *time.Time
}

// PublicStatus maps the internal in-flight marker to the externally visible
// status vocabulary (pending, imported, failed).
func (s SharedWorkout) PublicStatus() ShareStatus {
	if s.Status == StatusImporting {
		return StatusPending
	}
	return s.Status
}
