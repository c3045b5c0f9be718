package driven

import (
	"context"

	"github.com/jdambron/coachsync/internal/domain/model"
)

// WorkoutStore persists the local mirror of a coach's platform workout
// library. Entries are keyed by (coach, remote id).
type WorkoutStore interface {
	// ReplaceForCoach replaces the coach's entire cache in one transaction,
	// so entries for workouts deleted on the platform do not linger past a
	// sync cycle.
	ReplaceForCoach(ctx context.Context, coachID int64, workouts []model.RemoteWorkout) error

	// ListByCoach returns cached workouts, newest fetch first. sport filters
	// by discipline when non-empty.
	ListByCoach(ctx context.Context, coachID int64, sport model.Sport) ([]model.RemoteWorkout, error)

	// GetByRemoteID returns one cached workout, or nil, nil when absent.
	GetByRemoteID(ctx context.Context, coachID int64, remoteID string) (*model.RemoteWorkout, error)
}
