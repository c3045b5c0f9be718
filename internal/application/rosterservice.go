package application

import (
	"context"
	"errors"
	"time"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

var (
	// ErrCoachNotFound is returned when the referenced coach does not exist
	// or is not a coach.
	ErrCoachNotFound = errors.New("coach not found")

	// ErrAthleteAlreadyLinked is returned when a coach tries to claim an
	// athlete linked to someone else. The existing link must be released
	// first.
	ErrAthleteAlreadyLinked = errors.New("athlete is already linked to another coach")

	// ErrNotLinked is returned for operations that require an existing
	// coach-athlete link.
	ErrNotLinked = errors.New("athlete is not linked to this coach")
)

// AthleteOverview is one roster row on a coach's dashboard: the athlete plus
// the state of their platform connection.
type AthleteOverview struct {
	Athlete      model.User
	Connected    bool       // Credential stored and last check succeeded.
	LastVerified *time.Time // Nil when never verified.
	LastError    string
}

// RosterService manages coach-athlete links.
type RosterService struct {
	users driven.UserStore
	vault driven.CredentialVault
}

// NewRosterService creates a RosterService.
func NewRosterService(users driven.UserStore, vault driven.CredentialVault) *RosterService {
	return &RosterService{users: users, vault: vault}
}

// LinkAthlete links an unclaimed athlete to the coach. An athlete already
// linked to a different coach is rejected.
func (s *RosterService) LinkAthlete(ctx context.Context, coachID, athleteID int64) error {
	athlete, err := s.users.GetByID(ctx, athleteID)
	if err != nil {
		return err
	}
	if athlete == nil || athlete.Role != model.RoleAthlete {
		return ErrAthleteNotFound
	}
	if athlete.CoachID != nil && *athlete.CoachID != coachID {
		return ErrAthleteAlreadyLinked
	}
	return s.users.SetCoach(ctx, athleteID, &coachID)
}

// UnlinkAthlete releases the link between the coach and the athlete.
func (s *RosterService) UnlinkAthlete(ctx context.Context, coachID, athleteID int64) error {
	athlete, err := s.users.GetByID(ctx, athleteID)
	if err != nil {
		return err
	}
	if athlete == nil || athlete.Role != model.RoleAthlete {
		return ErrAthleteNotFound
	}
	if athlete.CoachID == nil || *athlete.CoachID != coachID {
		return ErrNotLinked
	}
	return s.users.SetCoach(ctx, athleteID, nil)
}

// SelectCoach is the athlete-side link: the athlete chooses a coach. The
// same already-linked rule applies.
func (s *RosterService) SelectCoach(ctx context.Context, athleteID, coachID int64) error {
	coach, err := s.users.GetByID(ctx, coachID)
	if err != nil {
		return err
	}
	if coach == nil || coach.Role != model.RoleCoach || !coach.IsActive {
		return ErrCoachNotFound
	}

	athlete, err := s.users.GetByID(ctx, athleteID)
	if err != nil {
		return err
	}
	if athlete == nil {
		return ErrAthleteNotFound
	}
	if athlete.CoachID != nil && *athlete.CoachID != coachID {
		return ErrAthleteAlreadyLinked
	}
	return s.users.SetCoach(ctx, athleteID, &coachID)
}

// ListAthletes returns the coach's roster with each athlete's platform
// connection state, from stored metadata only — no platform round-trips.
func (s *RosterService) ListAthletes(ctx context.Context, coachID int64) ([]AthleteOverview, error) {
	athletes, err := s.users.ListAthletes(ctx, coachID)
	if err != nil {
		return nil, err
	}

	overviews := make([]AthleteOverview, 0, len(athletes))
	for _, a := range athletes {
		a.PasswordHash = ""
		overview := AthleteOverview{Athlete: a}
		cred, err := s.vault.Status(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if cred != nil {
			overview.Connected = cred.LastVerifiedAt != nil && cred.LastError == ""
			overview.LastVerified = cred.LastVerifiedAt
			overview.LastError = cred.LastError
		}
		overviews = append(overviews, overview)
	}
	return overviews, nil
}

// Linked reports whether the two users are a linked coach-athlete pair, in
// either direction.
func (s *RosterService) Linked(ctx context.Context, userA, userB int64) (bool, error) {
	for _, pair := range [][2]int64{{userA, userB}, {userB, userA}} {
		athlete, err := s.users.GetByID(ctx, pair[0])
		if err != nil {
			return false, err
		}
		if athlete != nil && athlete.CoachID != nil && *athlete.CoachID == pair[1] {
			return true, nil
		}
	}
	return false, nil
}
