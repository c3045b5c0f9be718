package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdambron/coachsync/internal/domain/model"
)

// rosterUsers backs RosterService tests with a small fixed user set and
// records SetCoach calls.
func rosterUsers(t *testing.T) (*fakeUsers, *map[int64]*int64) {
	t.Helper()
	links := map[int64]*int64{}
	otherCoach := int64(9)
	users := map[int64]model.User{
		1:  {ID: 1, Role: model.RoleCoach, IsActive: true},
		2:  {ID: 2, Role: model.RoleAthlete, IsActive: true},
		3:  {ID: 3, Role: model.RoleAthlete, IsActive: true, CoachID: &otherCoach},
		9:  {ID: 9, Role: model.RoleCoach, IsActive: true},
		10: {ID: 10, Role: model.RoleCoach, IsActive: false},
	}
	fake := &fakeUsers{
		GetByIDFunc: func(ctx context.Context, id int64) (*model.User, error) {
			u, ok := users[id]
			if !ok {
				return nil, nil
			}
			if link, moved := links[id]; moved {
				u.CoachID = link
			}
			return &u, nil
		},
		SetCoachFunc: func(ctx context.Context, athleteID int64, coachID *int64) error {
			links[athleteID] = coachID
			return nil
		},
	}
	return fake, &links
}

func noCredVault() *fakeVault {
	return &fakeVault{
		StatusFunc: func(ctx context.Context, userID int64) (*model.Credential, error) {
			return nil, nil
		},
	}
}

func TestLinkAthlete(t *testing.T) {
	users, links := rosterUsers(t)
	svc := NewRosterService(users, noCredVault())

	require.NoError(t, svc.LinkAthlete(context.Background(), 1, 2))
	require.NotNil(t, (*links)[2])
	assert.EqualValues(t, 1, *(*links)[2])
}

func TestLinkAthlete_Rejections(t *testing.T) {
	users, _ := rosterUsers(t)
	svc := NewRosterService(users, noCredVault())

	assert.ErrorIs(t, svc.LinkAthlete(context.Background(), 1, 99), ErrAthleteNotFound)
	assert.ErrorIs(t, svc.LinkAthlete(context.Background(), 1, 9), ErrAthleteNotFound, "coaches cannot be claimed as athletes")
	assert.ErrorIs(t, svc.LinkAthlete(context.Background(), 1, 3), ErrAthleteAlreadyLinked)
}

func TestUnlinkAthlete(t *testing.T) {
	users, links := rosterUsers(t)
	svc := NewRosterService(users, noCredVault())

	require.NoError(t, svc.LinkAthlete(context.Background(), 1, 2))
	require.NoError(t, svc.UnlinkAthlete(context.Background(), 1, 2))
	assert.Nil(t, (*links)[2])

	assert.ErrorIs(t, svc.UnlinkAthlete(context.Background(), 1, 3), ErrNotLinked, "a coach cannot release someone else's athlete")
}

func TestSelectCoach(t *testing.T) {
	users, links := rosterUsers(t)
	svc := NewRosterService(users, noCredVault())

	require.NoError(t, svc.SelectCoach(context.Background(), 2, 1))
	assert.EqualValues(t, 1, *(*links)[2])

	assert.ErrorIs(t, svc.SelectCoach(context.Background(), 2, 99), ErrCoachNotFound)
	assert.ErrorIs(t, svc.SelectCoach(context.Background(), 2, 10), ErrCoachNotFound, "inactive coaches cannot be selected")
	assert.ErrorIs(t, svc.SelectCoach(context.Background(), 3, 1), ErrAthleteAlreadyLinked)
}

func TestListAthletes_ConnectionState(t *testing.T) {
	verifiedAt := time.Now().Add(-time.Hour)
	users := &fakeUsers{
		ListAthletesFunc: func(ctx context.Context, coachID int64) ([]model.User, error) {
			return []model.User{
				{ID: 2, Role: model.RoleAthlete, PasswordHash: "hash"},
				{ID: 3, Role: model.RoleAthlete},
				{ID: 4, Role: model.RoleAthlete},
			}, nil
		},
	}
	vault := &fakeVault{
		StatusFunc: func(ctx context.Context, userID int64) (*model.Credential, error) {
			switch userID {
			case 2:
				return &model.Credential{UserID: 2, LastVerifiedAt: &verifiedAt}, nil
			case 3:
				return &model.Credential{UserID: 3, LastError: "bad credentials"}, nil
			}
			return nil, nil
		},
	}

	overviews, err := NewRosterService(users, vault).ListAthletes(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, overviews, 3)

	assert.True(t, overviews[0].Connected)
	assert.Empty(t, overviews[0].Athlete.PasswordHash)

	assert.False(t, overviews[1].Connected)
	assert.Equal(t, "bad credentials", overviews[1].LastError)

	assert.False(t, overviews[2].Connected, "no stored credential means not connected")
	assert.Nil(t, overviews[2].LastVerified)
}

func TestLinked(t *testing.T) {
	users, _ := rosterUsers(t)
	svc := NewRosterService(users, noCredVault())

	require.NoError(t, svc.LinkAthlete(context.Background(), 1, 2))

	linked, err := svc.Linked(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, linked)

	linked, err = svc.Linked(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.True(t, linked, "link checks work in both directions")

	linked, err = svc.Linked(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.False(t, linked)
}
