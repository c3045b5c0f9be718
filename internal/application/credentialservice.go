package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// ErrEmptyCredential is returned by Connect when the platform email or
// password is blank.
var ErrEmptyCredential = errors.New("platform email and password are required")

// CredentialService owns the connect/status/disconnect flow around the vault.
// It is the only component that stores or forgets platform credentials; the
// verifier and the lifecycle engine only read them.
type CredentialService struct {
	vault    driven.CredentialVault
	verifier *VerifyService
	activity driven.ActivityStore
}

// NewCredentialService creates a CredentialService.
func NewCredentialService(vault driven.CredentialVault, verifier *VerifyService, activity driven.ActivityStore) *CredentialService {
	return &CredentialService{vault: vault, verifier: verifier, activity: activity}
}

// Connect stores the credential and immediately runs a connection check so
// the user learns right away whether the account works. A failed check does
// not roll the credential back; the user can retry verification without
// retyping, and the failure is recorded on the row.
func (s *CredentialService) Connect(ctx context.Context, userID int64, email, password string) (VerificationResult, error) {
	if email == "" || password == "" {
		return VerificationResult{}, ErrEmptyCredential
	}

	if err := s.vault.Store(ctx, userID, email, password); err != nil {
		return VerificationResult{}, err
	}

	if err := s.activity.Append(ctx, userID, "platform_connect", "stored platform credentials"); err != nil {
		slog.Warn("record connect activity", "user_id", userID, "error", err)
	}

	return s.verifier.Verify(ctx, userID)
}

// Test re-runs the connection check against the stored credential.
func (s *CredentialService) Test(ctx context.Context, userID int64) (VerificationResult, error) {
	return s.verifier.Verify(ctx, userID)
}

// Status returns credential metadata, or nil when no credential is stored.
func (s *CredentialService) Status(ctx context.Context, userID int64) (*model.Credential, error) {
	return s.vault.Status(ctx, userID)
}

// Disconnect hard-deletes the stored credential. Disconnecting when nothing
// is stored is not an error.
func (s *CredentialService) Disconnect(ctx context.Context, userID int64) error {
	if err := s.vault.Forget(ctx, userID); err != nil {
		return err
	}
	if err := s.activity.Append(ctx, userID, "platform_disconnect", "removed platform credentials"); err != nil {
		slog.Warn("record disconnect activity", "user_id", userID, "error", err)
	}
	return nil
}
