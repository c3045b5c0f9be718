// Package application contains use-case orchestration services. Services
// depend only on the port interfaces in domain/port/driven.
package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// VerificationResult is what a user sees after a connection check: whether
// the platform account is reachable and, when it is not, what to do about it.
type VerificationResult struct {
	Connected       bool
	Category        model.ErrorCategory // Empty when Connected or when no credential is stored.
	Message         string
	Recommendations []string
	DisplayName     string // Platform display name, set only on success.
}

// VerifyService performs the connection check that gates shares: a full
// login against the platform followed by one trivial read, proving the
// session is actually usable rather than merely that login succeeded.
type VerifyService struct {
	vault    driven.CredentialVault
	platform driven.PlatformClient
}

// NewVerifyService creates a VerifyService.
func NewVerifyService(vault driven.CredentialVault, platform driven.PlatformClient) *VerifyService {
	return &VerifyService{vault: vault, platform: platform}
}

// Verify checks whether the user's stored platform credential works end to
// end. It never retries; the caller decides what to do with the result. The
// outcome is recorded on the credential row so later status reads can show
// it without another round-trip.
func (s *VerifyService) Verify(ctx context.Context, userID int64) (VerificationResult, error) {
	email, password, err := s.vault.Load(ctx, userID)
	if errors.Is(err, driven.ErrCredentialNotFound) {
		return VerificationResult{
			Message: "No platform account is connected.",
			Recommendations: []string{
				"Connect a platform account under Settings before syncing or sharing workouts",
			},
		}, nil
	}
	if errors.Is(err, driven.ErrCredentialCorrupted) {
		return VerificationResult{
			Message: "The stored platform credentials could not be read.",
			Recommendations: []string{
				"Re-enter the platform email and password to reconnect the account",
			},
		}, nil
	}
	if err != nil {
		return VerificationResult{}, err
	}

	session, err := s.platform.Authenticate(ctx, email, password)
	if err != nil {
		return s.failed(ctx, userID, err), nil
	}

	// Login alone does not prove the session is usable; do one cheap read.
	if _, err := s.platform.ListWorkouts(ctx, session, 1); err != nil {
		return s.failed(ctx, userID, err), nil
	}

	if err := s.vault.MarkVerified(ctx, userID); err != nil {
		slog.Warn("record verification result", "user_id", userID, "error", err)
	}

	message := "Connected to the platform."
	if session.DisplayName != "" {
		message = "Connected to the platform as " + session.DisplayName + "."
	}
	return VerificationResult{
		Connected:   true,
		Message:     message,
		DisplayName: session.DisplayName,
	}, nil
}

func (s *VerifyService) failed(ctx context.Context, userID int64, err error) VerificationResult {
	category := model.CategoryOf(err)
	message := model.UserMessageOf(err)

	if markErr := s.vault.MarkError(ctx, userID, message); markErr != nil {
		slog.Warn("record verification failure", "user_id", userID, "error", markErr)
	}
	if category == model.CategoryUnexpected {
		slog.Error("connection check failed", "user_id", userID, "error", err)
	}

	return VerificationResult{
		Category:        category,
		Message:         message,
		Recommendations: recommendationsFor(category),
	}
}

// recommendationsFor maps a normalized error category to 1-3 plain-language
// next steps.
func recommendationsFor(category model.ErrorCategory) []string {
	switch category {
	case model.CategoryInvalidCredentials:
		return []string{
			"Verify the platform email address is correct",
			"Re-enter the platform password",
			"Try logging into the platform website directly to confirm the credentials",
		}
	case model.CategoryRateLimited:
		return []string{
			"Wait a few minutes before trying again",
			"Avoid repeated connection checks in quick succession",
		}
	case model.CategoryPlatformUnavailable:
		return []string{
			"Check whether the platform is reporting an outage",
			"Try again in a few minutes",
		}
	default:
		return []string{
			"Try disconnecting and reconnecting the platform account",
			"Contact support if the problem persists",
		}
	}
}
