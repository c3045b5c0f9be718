package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialVault = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite credential vault. Platform email and password
// are encrypted with AES-256-GCM before write and decrypted after read; the
// key lives only in process memory and is never persisted next to the
// ciphertext.
type CredentialRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when no key was configured.
}

// NewCredentialRepo creates a CredentialRepo. key must be 32 bytes for
// AES-256-GCM, or nil to disable the vault (operations return
// driven.ErrEncryptionKeyNotSet).
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, key: key}
}

// Store encrypts and saves the credential, replacing any existing row for
// the user. Each call draws a fresh nonce, so ciphertext is never reused
// across password rotations.
func (r *CredentialRepo) Store(ctx context.Context, userID int64, email, password string) error {
	emailCT, err := r.encrypt(email)
	if err != nil {
		return err
	}
	passwordCT, err := r.encrypt(password)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO credentials (user_id, email_ciphertext, password_ciphertext, last_error, updated_at)
		VALUES (?, ?, ?, '', ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email_ciphertext = excluded.email_ciphertext,
			password_ciphertext = excluded.password_ciphertext,
			last_error = '',
			updated_at = excluded.updated_at
	`
	_, err = r.db.Writer.ExecContext(ctx, query, userID, emailCT, passwordCT, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store credential for user %d: %w", userID, err)
	}
	return nil
}

// Load decrypts and returns the stored credential.
func (r *CredentialRepo) Load(ctx context.Context, userID int64) (string, string, error) {
	if r.key == nil {
		return "", "", driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT email_ciphertext, password_ciphertext FROM credentials WHERE user_id = ?`
	var emailCT, passwordCT string
	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&emailCT, &passwordCT)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", driven.ErrCredentialNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("load credential for user %d: %w", userID, err)
	}

	email, err := r.decrypt(emailCT)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", driven.ErrCredentialCorrupted, err)
	}
	password, err := r.decrypt(passwordCT)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", driven.ErrCredentialCorrupted, err)
	}
	return email, password, nil
}

// Forget hard-deletes the credential row. No soft delete: secrets must not
// linger after a disconnect.
func (r *CredentialRepo) Forget(ctx context.Context, userID int64) error {
	const query = `DELETE FROM credentials WHERE user_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("forget credential for user %d: %w", userID, err)
	}
	return nil
}

// Status returns credential metadata without secret material, or nil when no
// credential is stored.
func (r *CredentialRepo) Status(ctx context.Context, userID int64) (*model.Credential, error) {
	const query = `SELECT last_verified_at, last_error, updated_at FROM credentials WHERE user_id = ?`

	var lastVerified sql.NullString
	var lastError, updatedAt string
	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&lastVerified, &lastError, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credential status for user %d: %w", userID, err)
	}

	cred := model.Credential{UserID: userID, LastError: lastError}
	if cred.LastVerifiedAt, err = parseNullTime(lastVerified); err != nil {
		return nil, fmt.Errorf("parse last_verified_at for user %d: %w", userID, err)
	}
	if cred.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for user %d: %w", userID, err)
	}
	return &cred, nil
}

// MarkVerified records a successful connection check and clears the last error.
func (r *CredentialRepo) MarkVerified(ctx context.Context, userID int64) error {
	const query = `UPDATE credentials SET last_verified_at = ?, last_error = '' WHERE user_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, time.Now().UTC(), userID); err != nil {
		return fmt.Errorf("mark credential verified for user %d: %w", userID, err)
	}
	return nil
}

// MarkError records the user-facing text of a failed connection check.
func (r *CredentialRepo) MarkError(ctx context.Context, userID int64, message string) error {
	const query = `UPDATE credentials SET last_error = ? WHERE user_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, message, userID); err != nil {
		return fmt.Errorf("mark credential error for user %d: %w", userID, err)
	}
	return nil
}

// encrypt seals plaintext with AES-256-GCM and returns base64 of
// nonce || ciphertext || tag.
func (r *CredentialRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt opens a base64-encoded AES-256-GCM ciphertext.
func (r *CredentialRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}
