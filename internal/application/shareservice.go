package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// importWorkers bounds how many pushes run concurrently within one Import
// call. Each worker targets an independent share row and an independent
// remote call.
const importWorkers = 4

var (
	// ErrAthleteNotFound is returned when the target athlete does not exist
	// or is not an athlete.
	ErrAthleteNotFound = errors.New("athlete not found")

	// ErrShareNotFound is returned when a share does not exist or belongs to
	// another athlete.
	ErrShareNotFound = errors.New("shared workout not found")

	// ErrNotRetryable is returned by Retry when the share is not in failed
	// state.
	ErrNotRetryable = errors.New("only failed workouts can be retried")

	// ErrRemoveNeedsConfirm is returned by Remove when the share was never
	// imported and the caller did not confirm. Removing it discards work
	// that was never delivered.
	ErrRemoveNeedsConfirm = errors.New("workout has not been imported yet; removal requires confirmation")
)

// NotCachedError reports a share request naming a workout absent from the
// coach's cache. The whole batch is rejected: a partially created batch
// would be harder to reason about than asking the coach to re-sync.
type NotCachedError struct {
	RemoteID string
}

func (e *NotCachedError) Error() string {
	return fmt.Sprintf("workout %s is not in your synced library; refresh your workout list first", e.RemoteID)
}

// VerificationFailedError rejects a share batch because the athlete's
// platform connection check failed. It carries the full diagnostic so the
// coach can react before committing.
type VerificationFailedError struct {
	Result VerificationResult
}

func (e *VerificationFailedError) Error() string {
	return "athlete connection check failed: " + e.Result.Message
}

// ShareOutcome reports what one Share call did.
type ShareOutcome struct {
	BatchID string
	Shared  []model.SharedWorkout
	Skipped []string // Remote ids already actively shared with this athlete.
}

// ImportResult reports what happened to one share during an Import call.
type ImportResult struct {
	SharedWorkoutID int64
	Status          model.ShareStatus // Resulting public status.
	Imported        bool
	Skipped         bool // True when the share was not claimable (no-op).
	Message         string
	Category        model.ErrorCategory // Set only on failure.
	ImportedID      string              // Set only on success.
}

// ShareService is the share lifecycle engine. It is the only component that
// mutates SharedWorkout rows; coach and athlete trigger transitions through
// its operations.
type ShareService struct {
	verifier *VerifyService
	vault    driven.CredentialVault
	platform driven.PlatformClient
	workouts driven.WorkoutStore
	shares   driven.ShareStore
	users    driven.UserStore
	activity driven.ActivityStore
}

// NewShareService creates a ShareService with all required dependencies.
func NewShareService(
	verifier *VerifyService,
	vault driven.CredentialVault,
	platform driven.PlatformClient,
	workouts driven.WorkoutStore,
	shares driven.ShareStore,
	users driven.UserStore,
	activity driven.ActivityStore,
) *ShareService {
	return &ShareService{
		verifier: verifier,
		vault:    vault,
		platform: platform,
		workouts: workouts,
		shares:   shares,
		users:    users,
		activity: activity,
	}
}

// Share snapshots the selected cached workouts into pending shares for the
// athlete. The athlete's platform connection is verified first and the whole
// batch is rejected on failure — a share the athlete can never receive is
// worse than no share. Workouts already actively shared with the athlete are
// skipped and reported.
func (s *ShareService) Share(ctx context.Context, coachID int64, remoteIDs []string, athleteID int64) (ShareOutcome, error) {
	athlete, err := s.users.GetByID(ctx, athleteID)
	if err != nil {
		return ShareOutcome{}, err
	}
	if athlete == nil || athlete.Role != model.RoleAthlete {
		return ShareOutcome{}, ErrAthleteNotFound
	}

	result, err := s.verifier.Verify(ctx, athleteID)
	if err != nil {
		return ShareOutcome{}, err
	}
	if !result.Connected {
		return ShareOutcome{}, &VerificationFailedError{Result: result}
	}

	batchID := uuid.NewString()
	outcome := ShareOutcome{BatchID: batchID, Skipped: []string{}}
	toCreate := make([]model.SharedWorkout, 0, len(remoteIDs))

	for _, remoteID := range remoteIDs {
		workout, err := s.workouts.GetByRemoteID(ctx, coachID, remoteID)
		if err != nil {
			return ShareOutcome{}, err
		}
		if workout == nil {
			return ShareOutcome{}, &NotCachedError{RemoteID: remoteID}
		}

		active, err := s.shares.HasActiveShare(ctx, coachID, remoteID, athleteID)
		if err != nil {
			return ShareOutcome{}, err
		}
		if active {
			outcome.Skipped = append(outcome.Skipped, remoteID)
			continue
		}

		// Snapshot the payload now; later edits or a revoked coach
		// credential must not break delivery.
		toCreate = append(toCreate, model.SharedWorkout{
			BatchID:     batchID,
			CoachID:     coachID,
			AthleteID:   athleteID,
			RemoteID:    workout.RemoteID,
			Name:        workout.Name,
			Sport:       workout.Sport,
			Description: workout.Description,
			Payload:     workout.Payload,
		})
	}

	if len(toCreate) > 0 {
		created, err := s.shares.CreateBatch(ctx, toCreate)
		if err != nil {
			return ShareOutcome{}, err
		}
		outcome.Shared = created
	} else {
		outcome.Shared = []model.SharedWorkout{}
	}

	if err := s.activity.Append(ctx, coachID, "workout_share",
		fmt.Sprintf("shared %d workouts with athlete %d", len(outcome.Shared), athleteID)); err != nil {
		slog.Warn("record share activity", "coach_id", coachID, "error", err)
	}

	return outcome, nil
}

// Import pushes the named shares into the athlete's platform account.
// Shares not in a claimable state (already imported, in flight, missing, or
// someone else's) produce no-op results, so a double-submitted batch cannot
// double-import. Claimable items are pushed by a bounded worker pool;
// results come back in input order.
func (s *ShareService) Import(ctx context.Context, athleteID int64, ids []int64) ([]ImportResult, error) {
	results := make([]ImportResult, len(ids))

	session, authErr := s.authenticate(ctx, athleteID)

	var wg sync.WaitGroup
	sem := make(chan struct{}, importWorkers)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.importOne(ctx, athleteID, id, session, authErr)
		}(i, id)
	}
	wg.Wait()

	imported := 0
	for _, r := range results {
		if r.Imported {
			imported++
		}
	}
	if imported > 0 {
		if err := s.activity.Append(ctx, athleteID, "workout_import",
			fmt.Sprintf("imported %d workouts", imported)); err != nil {
			slog.Warn("record import activity", "athlete_id", athleteID, "error", err)
		}
	}

	return results, nil
}

// authenticate resolves the athlete's credential and logs into the platform
// once per Import call; every item in the batch targets the same account.
func (s *ShareService) authenticate(ctx context.Context, athleteID int64) (model.Session, error) {
	email, password, err := s.vault.Load(ctx, athleteID)
	if err != nil {
		if errors.Is(err, driven.ErrCredentialNotFound) || errors.Is(err, driven.ErrCredentialCorrupted) {
			return model.Session{}, model.NewPlatformError(model.CategoryInvalidCredentials,
				"Connect your platform account before importing workouts.", err)
		}
		return model.Session{}, err
	}
	return s.platform.Authenticate(ctx, email, password)
}

// importOne drives a single share through claim -> push -> terminal state.
// An authentication failure still consumes an attempt: the claim happens
// first, so the failure is recorded on the row exactly like a push failure.
func (s *ShareService) importOne(ctx context.Context, athleteID, id int64, session model.Session, authErr error) ImportResult {
	share, claimed, err := s.shares.ClaimForImport(ctx, id, athleteID)
	if err != nil {
		slog.Error("claim share for import", "share_id", id, "error", err)
		return ImportResult{
			SharedWorkoutID: id,
			Status:          model.StatusFailed,
			Message:         "Something went wrong. Please try again later.",
			Category:        model.CategoryUnexpected,
		}
	}
	if !claimed {
		return s.noopResult(ctx, athleteID, id)
	}

	pushErr := authErr
	var importedID string
	if pushErr == nil {
		importedID, pushErr = s.platform.PushWorkout(ctx, session, share.Payload)
	}

	if pushErr != nil {
		category := model.CategoryOf(pushErr)
		message := model.UserMessageOf(pushErr)
		if category == model.CategoryUnexpected {
			slog.Error("workout import failed", "share_id", id, "error", pushErr)
		}
		if err := s.shares.MarkFailed(ctx, id, category, message); err != nil {
			slog.Error("mark share failed", "share_id", id, "error", err)
		}
		return ImportResult{
			SharedWorkoutID: id,
			Status:          model.StatusFailed,
			Message:         message,
			Category:        category,
		}
	}

	if err := s.shares.MarkImported(ctx, id, importedID); err != nil {
		slog.Error("mark share imported", "share_id", id, "error", err)
		return ImportResult{
			SharedWorkoutID: id,
			Status:          model.StatusFailed,
			Message:         "The workout was delivered but its status could not be recorded. Please refresh.",
			Category:        model.CategoryUnexpected,
		}
	}

	return ImportResult{
		SharedWorkoutID: id,
		Status:          model.StatusImported,
		Imported:        true,
		Message:         fmt.Sprintf("%q imported to your platform account", share.Name),
		ImportedID:      importedID,
	}
}

// noopResult describes a share that was not claimable, without mutating it.
func (s *ShareService) noopResult(ctx context.Context, athleteID, id int64) ImportResult {
	share, err := s.shares.GetByID(ctx, id)
	if err != nil || share == nil || share.AthleteID != athleteID {
		return ImportResult{
			SharedWorkoutID: id,
			Skipped:         true,
			Message:         "Shared workout not found",
		}
	}

	message := "This workout was skipped"
	if share.Status == model.StatusImported {
		message = "This workout has already been imported"
	} else if share.Status == model.StatusImporting {
		message = "This workout is already being imported"
	}
	return ImportResult{
		SharedWorkoutID: id,
		Status:          share.PublicStatus(),
		Skipped:         true,
		Message:         message,
		ImportedID:      share.ImportedID,
	}
}

// Retry performs the manual failed -> pending transition. There is no
// automatic retry anywhere in the engine; retry storms against a
// rate-limited platform are not worth the convenience.
func (s *ShareService) Retry(ctx context.Context, athleteID, id int64) error {
	reset, err := s.shares.ResetToPending(ctx, id, athleteID)
	if err != nil {
		return err
	}
	if !reset {
		share, err := s.shares.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if share == nil || share.AthleteID != athleteID {
			return ErrShareNotFound
		}
		return ErrNotRetryable
	}
	return nil
}

// Remove deletes a share. While the share has never reached imported,
// removal discards undelivered work, so it requires the confirmed flag.
func (s *ShareService) Remove(ctx context.Context, athleteID, id int64, confirmed bool) error {
	share, err := s.shares.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if share == nil || share.AthleteID != athleteID {
		return ErrShareNotFound
	}
	if share.Status != model.StatusImported && !confirmed {
		return ErrRemoveNeedsConfirm
	}

	deleted, err := s.shares.Delete(ctx, id, athleteID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrShareNotFound
	}
	return nil
}

// ListForAthlete returns the athlete's shares with the internal in-flight
// marker folded into the public status vocabulary.
func (s *ShareService) ListForAthlete(ctx context.Context, athleteID int64, status model.ShareStatus) ([]model.SharedWorkout, error) {
	shares, err := s.shares.ListByAthlete(ctx, athleteID, status)
	if err != nil {
		return nil, err
	}
	for i := range shares {
		shares[i].Status = shares[i].PublicStatus()
	}
	return shares, nil
}
