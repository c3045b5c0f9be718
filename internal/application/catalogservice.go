package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// DefaultFreshnessWindow is how long a cached catalog is served without
// being flagged as needing a re-sync.
const DefaultFreshnessWindow = time.Hour

// CatalogService mirrors a coach's platform workout library into the local
// cache so workouts can be browsed and selected without a platform
// round-trip on every page view.
type CatalogService struct {
	vault     driven.CredentialVault
	platform  driven.PlatformClient
	workouts  driven.WorkoutStore
	activity  driven.ActivityStore
	freshness time.Duration
}

// NewCatalogService creates a CatalogService. freshness <= 0 uses
// DefaultFreshnessWindow.
func NewCatalogService(
	vault driven.CredentialVault,
	platform driven.PlatformClient,
	workouts driven.WorkoutStore,
	activity driven.ActivityStore,
	freshness time.Duration,
) *CatalogService {
	if freshness <= 0 {
		freshness = DefaultFreshnessWindow
	}
	return &CatalogService{
		vault:     vault,
		platform:  platform,
		workouts:  workouts,
		activity:  activity,
		freshness: freshness,
	}
}

// Sync fetches the coach's full workout library from the platform and
// replaces the local cache wholesale. It reports failures once and never
// retries; the caller decides whether to try again. sport filters the
// returned slice only — the cache always holds the full library, since the
// platform offers no server-side filter.
func (s *CatalogService) Sync(ctx context.Context, coachID int64, sport model.Sport) ([]model.RemoteWorkout, error) {
	email, password, err := s.vault.Load(ctx, coachID)
	if err != nil {
		return nil, err
	}

	session, err := s.platform.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	fetched, err := s.platform.ListWorkouts(ctx, session, 0)
	if err != nil {
		return nil, err
	}

	// One sync dates the whole cache; every row gets the same stamp.
	now := time.Now().UTC()
	for i := range fetched {
		fetched[i].CoachID = coachID
		fetched[i].FetchedAt = now
	}
	if err := s.workouts.ReplaceForCoach(ctx, coachID, fetched); err != nil {
		return nil, fmt.Errorf("refresh workout cache: %w", err)
	}

	if err := s.activity.Append(ctx, coachID, "catalog_sync", fmt.Sprintf("synced %d workouts", len(fetched))); err != nil {
		slog.Warn("record catalog sync activity", "coach_id", coachID, "error", err)
	}

	return filterBySport(fetched, sport), nil
}

// Cached returns the locally cached catalog together with a flag telling the
// caller the cache is older than the freshness window and should be
// re-synced. Stale entries are served, not deleted: a coach revisiting
// without a fresh sync still sees their library.
func (s *CatalogService) Cached(ctx context.Context, coachID int64, sport model.Sport) ([]model.RemoteWorkout, bool, error) {
	workouts, err := s.workouts.ListByCoach(ctx, coachID, sport)
	if err != nil {
		return nil, false, err
	}
	if len(workouts) == 0 {
		return workouts, true, nil
	}

	// Wholesale replacement stamps every row alike; the newest row dates
	// the whole cache.
	newest := workouts[0].FetchedAt
	for _, w := range workouts[1:] {
		if w.FetchedAt.After(newest) {
			newest = w.FetchedAt
		}
	}
	stale := model.RemoteWorkout{FetchedAt: newest}.Stale(s.freshness, time.Now())
	return workouts, stale, nil
}

func filterBySport(workouts []model.RemoteWorkout, sport model.Sport) []model.RemoteWorkout {
	if sport == "" {
		return workouts
	}
	filtered := make([]model.RemoteWorkout, 0, len(workouts))
	for _, w := range workouts {
		if w.Sport == sport {
			filtered = append(filtered, w)
		}
	}
	return filtered
}
