package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ShareStore = (*ShareRepo)(nil)

// ShareRepo is the SQLite implementation of the ShareStore port. All status
// transitions are conditional single-statement updates on the writer, so the
// lifecycle graph is enforced at the row level even under concurrent imports.
type ShareRepo struct {
	db *DB
}

// NewShareRepo creates a ShareRepo backed by the given DB.
func NewShareRepo(db *DB) *ShareRepo {
	return &ShareRepo{db: db}
}

const shareColumns = `id, batch_id, coach_id, athlete_id, remote_id, name, sport, description,
	payload, status, attempts, last_error, last_category, imported_id,
	shared_at, last_attempt_at, imported_at`

// CreateBatch inserts all shares in a single transaction.
func (r *ShareRepo) CreateBatch(ctx context.Context, shares []model.SharedWorkout) ([]model.SharedWorkout, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin share batch: %w", err)
	}
	defer tx.Rollback()

	const insert = `
		INSERT INTO shared_workouts
			(batch_id, coach_id, athlete_id, remote_id, name, sport, description, payload, status, shared_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?)
	`

	now := time.Now().UTC()
	created := make([]model.SharedWorkout, 0, len(shares))
	for _, s := range shares {
		res, err := tx.ExecContext(ctx, insert,
			s.BatchID, s.CoachID, s.AthleteID, s.RemoteID, s.Name, string(s.Sport),
			s.Description, string(s.Payload), now,
		)
		if err != nil {
			return nil, fmt.Errorf("insert share of %q for athlete %d: %w", s.RemoteID, s.AthleteID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("share batch last insert id: %w", err)
		}
		s.ID = id
		s.Status = model.StatusPending
		s.SharedAt = now
		created = append(created, s)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit share batch: %w", err)
	}
	return created, nil
}

// GetByID returns one share, or nil, nil when it does not exist.
func (r *ShareRepo) GetByID(ctx context.Context, id int64) (*model.SharedWorkout, error) {
	query := `SELECT ` + shareColumns + ` FROM shared_workouts WHERE id = ?`

	s, err := scanShare(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get share %d: %w", id, err)
	}
	return s, nil
}

// ListByAthlete returns an athlete's shares, newest first. A pending filter
// also matches in-flight importing rows, since importing is not part of the
// public status vocabulary.
func (r *ShareRepo) ListByAthlete(ctx context.Context, athleteID int64, status model.ShareStatus) ([]model.SharedWorkout, error) {
	query := `SELECT ` + shareColumns + ` FROM shared_workouts WHERE athlete_id = ?`
	args := []any{athleteID}

	switch status {
	case "":
	case model.StatusPending:
		query += ` AND status IN ('pending', 'importing')`
	default:
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY shared_at DESC, id DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shares for athlete %d: %w", athleteID, err)
	}
	defer rows.Close()

	shares := []model.SharedWorkout{}
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}
	return shares, nil
}

// HasActiveShare reports whether a non-failed share already exists for
// (coach workout, athlete).
func (r *ShareRepo) HasActiveShare(ctx context.Context, coachID int64, remoteID string, athleteID int64) (bool, error) {
	const query = `
		SELECT COUNT(1) FROM shared_workouts
		WHERE coach_id = ? AND remote_id = ? AND athlete_id = ?
		  AND status IN ('pending', 'importing', 'imported')
	`
	var count int
	if err := r.db.Reader.QueryRowContext(ctx, query, coachID, remoteID, athleteID).Scan(&count); err != nil {
		return false, fmt.Errorf("check active share of %q for athlete %d: %w", remoteID, athleteID, err)
	}
	return count > 0, nil
}

// ClaimForImport atomically transitions pending|failed -> importing and
// increments the attempt counter. The writer pool holds a single connection,
// so at most one of two concurrent claims can see an affected row.
func (r *ShareRepo) ClaimForImport(ctx context.Context, id, athleteID int64) (*model.SharedWorkout, bool, error) {
	const claim = `
		UPDATE shared_workouts
		SET status = 'importing', attempts = attempts + 1, last_attempt_at = ?
		WHERE id = ? AND athlete_id = ? AND status IN ('pending', 'failed')
	`
	res, err := r.db.Writer.ExecContext(ctx, claim, time.Now().UTC(), id, athleteID)
	if err != nil {
		return nil, false, fmt.Errorf("claim share %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("claim share %d: rows affected: %w", id, err)
	}
	if affected == 0 {
		return nil, false, nil
	}

	share, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return share, true, nil
}

// MarkImported finalizes a claimed share as imported. importedID must be
// non-empty: a share never reaches imported without the identifier assigned
// by the athlete's platform account.
func (r *ShareRepo) MarkImported(ctx context.Context, id int64, importedID string) error {
	if importedID == "" {
		return fmt.Errorf("mark share %d imported: empty platform identifier", id)
	}

	const query = `
		UPDATE shared_workouts
		SET status = 'imported', imported_id = ?, imported_at = ?, last_error = '', last_category = ''
		WHERE id = ? AND status = 'importing'
	`
	res, err := r.db.Writer.ExecContext(ctx, query, importedID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark share %d imported: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("mark share %d imported: rows affected: %w", id, err)
	} else if affected == 0 {
		return fmt.Errorf("mark share %d imported: share was not in-flight", id)
	}
	return nil
}

// MarkFailed finalizes a claimed share as failed with the normalized
// category and user-facing message.
func (r *ShareRepo) MarkFailed(ctx context.Context, id int64, category model.ErrorCategory, message string) error {
	const query = `
		UPDATE shared_workouts
		SET status = 'failed', last_category = ?, last_error = ?
		WHERE id = ? AND status = 'importing'
	`
	res, err := r.db.Writer.ExecContext(ctx, query, string(category), message, id)
	if err != nil {
		return fmt.Errorf("mark share %d failed: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("mark share %d failed: rows affected: %w", id, err)
	} else if affected == 0 {
		return fmt.Errorf("mark share %d failed: share was not in-flight", id)
	}
	return nil
}

// ResetToPending performs the manual retry transition failed -> pending.
func (r *ShareRepo) ResetToPending(ctx context.Context, id, athleteID int64) (bool, error) {
	const query = `
		UPDATE shared_workouts
		SET status = 'pending'
		WHERE id = ? AND athlete_id = ? AND status = 'failed'
	`
	res, err := r.db.Writer.ExecContext(ctx, query, id, athleteID)
	if err != nil {
		return false, fmt.Errorf("reset share %d to pending: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reset share %d to pending: rows affected: %w", id, err)
	}
	return affected > 0, nil
}

// Delete removes a share owned by the athlete.
func (r *ShareRepo) Delete(ctx context.Context, id, athleteID int64) (bool, error) {
	const query = `DELETE FROM shared_workouts WHERE id = ? AND athlete_id = ?`
	res, err := r.db.Writer.ExecContext(ctx, query, id, athleteID)
	if err != nil {
		return false, fmt.Errorf("delete share %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete share %d: rows affected: %w", id, err)
	}
	return affected > 0, nil
}

func scanShare(row rowScanner) (*model.SharedWorkout, error) {
	var s model.SharedWorkout
	var sport, payload, status, category, sharedAt string
	var lastAttempt, importedAt sql.NullString

	err := row.Scan(
		&s.ID, &s.BatchID, &s.CoachID, &s.AthleteID, &s.RemoteID, &s.Name, &sport, &s.Description,
		&payload, &status, &s.Attempts, &s.LastError, &category, &s.ImportedID,
		&sharedAt, &lastAttempt, &importedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Sport = model.Sport(sport)
	s.Payload = json.RawMessage(payload)
	s.Status = model.ShareStatus(status)
	s.LastCategory = model.ErrorCategory(category)

	if s.SharedAt, err = parseTime(sharedAt); err != nil {
		return nil, fmt.Errorf("parse shared_at: %w", err)
	}
	if s.LastAttemptAt, err = parseNullTime(lastAttempt); err != nil {
		return nil, fmt.Errorf("parse last_attempt_at: %w", err)
	}
	if s.ImportedAt, err = parseNullTime(importedAt); err != nil {
		return nil, fmt.Errorf("parse imported_at: %w", err)
	}
	return &s, nil
}
