// Package driven defines the port interfaces the application core depends on.
package driven

import (
	"context"
	"encoding/json"

	"github.com/jdambron/coachsync/internal/domain/model"
)

// PlatformClient wraps authenticated calls against the external fitness
// platform. Every call is a single blocking round-trip with a bounded
// timeout; no retries happen inside the adapter — retry policy belongs to
// callers. All failures are returned as *model.PlatformError so the rest of
// the system never sees platform-specific error shapes.
type PlatformClient interface {
	// Authenticate logs into the platform and returns a short-lived session.
	// The session is passed explicitly into subsequent calls and must never
	// be cached across users.
	Authenticate(ctx context.Context, email, password string) (model.Session, error)

	// ListWorkouts fetches workouts owned by the session's account.
	// limit <= 0 means no limit.
	ListWorkouts(ctx context.Context, session model.Session, limit int) ([]model.RemoteWorkout, error)

	// FetchWorkout retrieves the full payload of one workout by its
	// platform-assigned identifier.
	FetchWorkout(ctx context.Context, session model.Session, remoteID string) (json.RawMessage, error)

	// PushWorkout creates a new workout in the session's account from the
	// given payload and returns the identifier the platform assigned to it.
	PushWorkout(ctx context.Context, session model.Session, payload json.RawMessage) (string, error)
}
