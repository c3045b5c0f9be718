package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// tokenTTL is how long an issued access token stays valid.
const tokenTTL = 24 * time.Hour

var (
	// ErrInvalidLogin is returned for a wrong email, a wrong password, and a
	// deactivated account alike; callers must not be able to tell which.
	ErrInvalidLogin = errors.New("invalid email or password")

	// ErrInvalidToken is returned when a bearer token fails validation.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrWeakPassword is returned by Register for passwords under 8 characters.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

// Claims is the JWT payload for an issued access token.
type Claims struct {
	UserID int64      `json:"uid"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles account registration, login, and access-token issuance
// and validation. Tokens are HS256-signed JWTs carrying the user id and role.
type AuthService struct {
	users  driven.UserStore
	secret []byte
}

// NewAuthService creates an AuthService signing tokens with secret.
func NewAuthService(users driven.UserStore, secret []byte) *AuthService {
	return &AuthService{users: users, secret: secret}
}

// Register creates a new account with a bcrypt-hashed password. Role defaults
// to athlete; admin accounts are never self-service.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string, role model.Role) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return model.User{}, errors.New("a valid email address is required")
	}
	if len(password) < 8 {
		return model.User{}, ErrWeakPassword
	}
	if role != model.RoleCoach {
		role = model.RoleAthlete
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		return model.User{}, err
	}

	user.PasswordHash = ""
	return user, nil
}

// Login verifies the password and returns the user with a signed access
// token. Every failure mode collapses into ErrInvalidLogin.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return model.User{}, "", err
	}
	if user == nil || !user.IsActive {
		// Burn a hash comparison anyway so the timing does not reveal
		// whether the account exists.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000uGZv1O7Fats6Ph3uXXXXXXXXXXXXXXX"), []byte(password))
		return model.User{}, "", ErrInvalidLogin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, "", ErrInvalidLogin
	}

	token, err := s.issueToken(user.ID, user.Role)
	if err != nil {
		return model.User{}, "", err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		slog.Warn("record last login", "user_id", user.ID, "error", err)
	}

	out := *user
	out.PasswordHash = ""
	return out, token, nil
}

func (s *AuthService) issueToken(userID int64, role model.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates a bearer token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
