package driven

import (
	"context"
	"errors"

	"github.com/jdambron/coachsync/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by vault operations when the process
// was started without COACHSYNC_SECRET_KEY.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set COACHSYNC_SECRET_KEY")

// ErrCredentialNotFound is returned by Load when the user has never
// connected a platform account. Surfaced as "connect your account".
var ErrCredentialNotFound = errors.New("no platform credential stored")

// ErrCredentialCorrupted is returned by Load when a stored record cannot be
// decrypted or authenticated. Surfaced as "reconnect your account".
var ErrCredentialCorrupted = errors.New("stored platform credential is corrupted")

// CredentialVault persists platform credentials encrypted at rest. At most
// one live credential exists per user. Ciphertext is opaque to every other
// component; plaintext only ever crosses this interface.
type CredentialVault interface {
	// Store encrypts and saves the credential, replacing any existing one.
	// Every call re-encrypts with a fresh nonce, including password rotations.
	Store(ctx context.Context, userID int64, email, password string) error

	// Load decrypts and returns the stored credential. Returns
	// ErrCredentialNotFound when none exists and ErrCredentialCorrupted when
	// the record fails decryption.
	Load(ctx context.Context, userID int64) (email, password string, err error)

	// Forget hard-deletes the credential. Secrets must not linger, so there
	// is no soft delete. Forgetting a missing credential is not an error.
	Forget(ctx context.Context, userID int64) error

	// Status returns credential metadata without secret material, or nil
	// when no credential is stored.
	Status(ctx context.Context, userID int64) (*model.Credential, error)

	// MarkVerified records a successful connection check.
	MarkVerified(ctx context.Context, userID int64) error

	// MarkError records the user-facing text of a failed connection check.
	MarkError(ctx context.Context, userID int64, message string) error
}
