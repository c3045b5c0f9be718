package driven

import (
	"context"

	"github.com/jdambron/coachsync/internal/domain/model"
)

// ShareStore persists shared workouts and enforces the transactional status
// transitions the lifecycle engine relies on. Only the engine mutates rows.
type ShareStore interface {
	// CreateBatch inserts all shares in a single transaction. Either every
	// row is created or none are.
	CreateBatch(ctx context.Context, shares []model.SharedWorkout) ([]model.SharedWorkout, error)

	// GetByID returns one share, or nil, nil when it does not exist.
	GetByID(ctx context.Context, id int64) (*model.SharedWorkout, error)

	// ListByAthlete returns an athlete's shares, newest first. status
	// filters by public status when non-empty (importing rows match pending).
	ListByAthlete(ctx context.Context, athleteID int64, status model.ShareStatus) ([]model.SharedWorkout, error)

	// HasActiveShare reports whether a pending, importing, or imported share
	// already exists for (coach workout, athlete).
	HasActiveShare(ctx context.Context, coachID int64, remoteID string, athleteID int64) (bool, error)

	// ClaimForImport atomically transitions pending|failed -> importing and
	// increments the attempt counter. It returns the claimed row, or
	// claimed=false when the share is missing, belongs to another athlete,
	// or is not in a claimable state. The conditional update runs on the
	// single-connection writer, so two concurrent claims of the same id can
	// never both succeed.
	ClaimForImport(ctx context.Context, id, athleteID int64) (share *model.SharedWorkout, claimed bool, err error)

	// MarkImported finalizes a claimed share: importing -> imported with the
	// identifier assigned by the athlete's platform account. importedID must
	// be non-empty.
	MarkImported(ctx context.Context, id int64, importedID string) error

	// MarkFailed finalizes a claimed share: importing -> failed with the
	// normalized category and user-facing message.
	MarkFailed(ctx context.Context, id int64, category model.ErrorCategory, message string) error

	// ResetToPending performs the manual retry transition failed -> pending.
	// Returns false when the share was not in failed state.
	ResetToPending(ctx context.Context, id, athleteID int64) (bool, error)

	// Delete removes a share owned by the athlete. Returns false when no
	// matching row existed.
	Delete(ctx context.Context, id, athleteID int64) (bool, error)
}
