package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jdambron/coachsync/internal/domain/model"
)

var testJWTSecret = []byte("test-signing-secret")

func registeredUser(t *testing.T, password string) model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return model.User{
		ID:           1,
		Email:        "casey@example.com",
		PasswordHash: string(hash),
		FullName:     "Casey Coach",
		Role:         model.RoleCoach,
		IsActive:     true,
	}
}

func TestRegister(t *testing.T) {
	var created model.User
	users := &fakeUsers{
		CreateFunc: func(ctx context.Context, user model.User) (model.User, error) {
			created = user
			user.ID = 1
			return user, nil
		},
	}
	svc := NewAuthService(users, testJWTSecret)

	user, err := svc.Register(context.Background(), "  Casey@Example.COM ", "longenough", "Casey Coach", model.RoleCoach)
	require.NoError(t, err)

	assert.Equal(t, "casey@example.com", created.Email, "emails are normalized")
	assert.NotEqual(t, "longenough", created.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("longenough")))
	assert.Empty(t, user.PasswordHash, "the hash never leaves the service")
	assert.Equal(t, model.RoleCoach, user.Role)
}

func TestRegister_Rejections(t *testing.T) {
	svc := NewAuthService(&fakeUsers{}, testJWTSecret)

	_, err := svc.Register(context.Background(), "not-an-email", "longenough", "", model.RoleAthlete)
	assert.Error(t, err)

	_, err = svc.Register(context.Background(), "a@b.com", "short", "", model.RoleAthlete)
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegister_AdminRoleDowngraded(t *testing.T) {
	users := &fakeUsers{
		CreateFunc: func(ctx context.Context, user model.User) (model.User, error) {
			return user, nil
		},
	}
	svc := NewAuthService(users, testJWTSecret)

	user, err := svc.Register(context.Background(), "a@b.com", "longenough", "", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAthlete, user.Role, "admin accounts are never self-service")
}

func TestLogin_RoundTrip(t *testing.T) {
	stored := registeredUser(t, "longenough")
	users := &fakeUsers{
		GetByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			if email != stored.Email {
				return nil, nil
			}
			cp := stored
			return &cp, nil
		},
	}
	svc := NewAuthService(users, testJWTSecret)

	user, token, err := svc.Login(context.Background(), "casey@example.com", "longenough")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.UserID)
	assert.Equal(t, model.RoleCoach, claims.Role)
}

func TestLogin_Failures(t *testing.T) {
	stored := registeredUser(t, "longenough")
	inactive := stored
	inactive.Email = "inactive@example.com"
	inactive.IsActive = false

	users := &fakeUsers{
		GetByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			switch email {
			case stored.Email:
				cp := stored
				return &cp, nil
			case inactive.Email:
				cp := inactive
				return &cp, nil
			}
			return nil, nil
		},
	}
	svc := NewAuthService(users, testJWTSecret)

	_, _, err := svc.Login(context.Background(), "casey@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidLogin)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "longenough")
	assert.ErrorIs(t, err, ErrInvalidLogin)

	_, _, err = svc.Login(context.Background(), "inactive@example.com", "longenough")
	assert.ErrorIs(t, err, ErrInvalidLogin, "deactivated accounts look identical to wrong passwords")
}

func TestParseToken_Rejections(t *testing.T) {
	svc := NewAuthService(&fakeUsers{}, testJWTSecret)

	_, err := svc.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A token signed with a different secret must not validate.
	other := NewAuthService(&fakeUsers{}, []byte("different-secret"))
	token, err := other.issueToken(1, model.RoleAthlete)
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
