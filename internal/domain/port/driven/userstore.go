package driven

import (
	"context"
	"errors"

	"github.com/jdambron/coachsync/internal/domain/model"
)

// ErrEmailTaken is returned by Create when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// UserStore persists end-user accounts and coach-athlete links.
type UserStore interface {
	// Create inserts a new user and returns it with the assigned id.
	Create(ctx context.Context, user model.User) (model.User, error)

	// GetByID returns the user, or nil, nil when it does not exist.
	GetByID(ctx context.Context, id int64) (*model.User, error)

	// GetByEmail returns the user, or nil, nil when it does not exist.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// ListByRole returns all active users with the given role, ordered by name.
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)

	// ListAthletes returns all athletes linked to the given coach.
	ListAthletes(ctx context.Context, coachID int64) ([]model.User, error)

	// ListAll returns every user, ordered by name.
	ListAll(ctx context.Context) ([]model.User, error)

	// SetCoach links (or with nil, unlinks) an athlete to a coach.
	SetCoach(ctx context.Context, athleteID int64, coachID *int64) error

	// SetActive enables or disables an account.
	SetActive(ctx context.Context, id int64, active bool) error

	// TouchLastLogin records a successful login time.
	TouchLastLogin(ctx context.Context, id int64) error
}
