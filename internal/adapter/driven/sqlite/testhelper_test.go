package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/jdambron/coachsync/internal/domain/model"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via
// cache=shared; a unique name derived from t.Name() isolates parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename
	// component and cannot be misread as query parameters in the DSN.
	safeName := url.PathEscape(t.Name())
	// WAL does not apply to in-memory databases; omit the journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// testVaultKey is a fixed 32-byte AES-256 key for vault tests.
var testVaultKey = []byte("0123456789abcdef0123456789abcdef")

// createTestUser inserts a user and returns it. Repos have foreign keys on
// users, so most tests need at least one row here.
func createTestUser(t *testing.T, db *DB, email string, role model.Role) model.User {
	t.Helper()

	repo := NewUserRepo(db)
	user, err := repo.Create(context.Background(), model.User{
		Email:        email,
		PasswordHash: "x",
		FullName:     "Test " + email,
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("create test user %s: %v", email, err)
	}
	return user
}

// createTestShare inserts a pending share from coach to athlete and returns it.
func createTestShare(t *testing.T, db *DB, coachID, athleteID int64, remoteID string) model.SharedWorkout {
	t.Helper()

	repo := NewShareRepo(db)
	created, err := repo.CreateBatch(context.Background(), []model.SharedWorkout{{
		BatchID:   "test-batch",
		CoachID:   coachID,
		AthleteID: athleteID,
		RemoteID:  remoteID,
		Name:      "Workout " + remoteID,
		Sport:     model.SportRun,
		Payload:   []byte(`{"workoutId":"` + remoteID + `","workoutName":"Workout"}`),
		SharedAt:  time.Now().UTC(),
	}})
	if err != nil {
		t.Fatalf("create test share: %v", err)
	}
	return created[0]
}
