package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.WorkoutStore = (*WorkoutRepo)(nil)

// WorkoutRepo is the SQLite implementation of the WorkoutStore port.
type WorkoutRepo struct {
	db *DB
}

// NewWorkoutRepo creates a WorkoutRepo backed by the given DB.
func NewWorkoutRepo(db *DB) *WorkoutRepo {
	return &WorkoutRepo{db: db}
}

// ReplaceForCoach replaces the coach's entire cache in one transaction.
// Delete-then-insert keeps the invariant that entries for workouts removed
// on the platform never survive a sync cycle.
func (r *WorkoutRepo) ReplaceForCoach(ctx context.Context, coachID int64, workouts []model.RemoteWorkout) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace for coach %d: %w", coachID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM remote_workouts WHERE coach_id = ?`, coachID); err != nil {
		return fmt.Errorf("clear cache for coach %d: %w", coachID, err)
	}

	const insert = `
		INSERT INTO remote_workouts (coach_id, remote_id, name, sport, description, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, w := range workouts {
		payload := w.Payload
		if payload == nil {
			payload = json.RawMessage("{}")
		}
		_, err := tx.ExecContext(ctx, insert,
			coachID, w.RemoteID, w.Name, string(w.Sport), w.Description, string(payload), w.FetchedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert workout %q for coach %d: %w", w.RemoteID, coachID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace for coach %d: %w", coachID, err)
	}
	return nil
}

// ListByCoach returns cached workouts, newest fetch first.
func (r *WorkoutRepo) ListByCoach(ctx context.Context, coachID int64, sport model.Sport) ([]model.RemoteWorkout, error) {
	query := `
		SELECT id, coach_id, remote_id, name, sport, description, payload, fetched_at
		FROM remote_workouts
		WHERE coach_id = ?
	`
	args := []any{coachID}
	if sport != "" {
		query += ` AND sport = ?`
		args = append(args, string(sport))
	}
	query += ` ORDER BY fetched_at DESC, name`

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workouts for coach %d: %w", coachID, err)
	}
	defer rows.Close()

	workouts := []model.RemoteWorkout{}
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		workouts = append(workouts, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workouts: %w", err)
	}
	return workouts, nil
}

// GetByRemoteID returns one cached workout, or nil, nil when absent.
func (r *WorkoutRepo) GetByRemoteID(ctx context.Context, coachID int64, remoteID string) (*model.RemoteWorkout, error) {
	const query = `
		SELECT id, coach_id, remote_id, name, sport, description, payload, fetched_at
		FROM remote_workouts
		WHERE coach_id = ? AND remote_id = ?
	`

	w, err := scanWorkout(r.db.Reader.QueryRowContext(ctx, query, coachID, remoteID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workout %q for coach %d: %w", remoteID, coachID, err)
	}
	return w, nil
}

func scanWorkout(row rowScanner) (*model.RemoteWorkout, error) {
	var w model.RemoteWorkout
	var sport, payload, fetchedAt string

	if err := row.Scan(&w.ID, &w.CoachID, &w.RemoteID, &w.Name, &sport, &w.Description, &payload, &fetchedAt); err != nil {
		return nil, err
	}

	w.Sport = model.Sport(sport)
	w.Payload = json.RawMessage(payload)

	var err error
	if w.FetchedAt, err = parseTime(fetchedAt); err != nil {
		return nil, fmt.Errorf("parse fetched_at: %w", err)
	}
	return &w, nil
}
