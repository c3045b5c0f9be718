package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ActivityStore = (*ActivityRepo)(nil)

// ActivityRepo is the SQLite implementation of the append-only audit log.
type ActivityRepo struct {
	db *DB
}

// NewActivityRepo creates an ActivityRepo backed by the given DB.
func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

// Append records one audit entry.
func (r *ActivityRepo) Append(ctx context.Context, userID int64, action, detail string) error {
	const query = `INSERT INTO activity_log (user_id, action, detail, created_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.Writer.ExecContext(ctx, query, userID, action, detail, time.Now().UTC()); err != nil {
		return fmt.Errorf("append activity %q for user %d: %w", action, userID, err)
	}
	return nil
}

// ListByUser returns a user's entries, newest first, capped at limit.
func (r *ActivityRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, user_id, action, detail, created_at
		FROM activity_log
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity for user %d: %w", userID, err)
	}
	defer rows.Close()

	entries := []model.ActivityEntry{}
	for rows.Next() {
		var e model.ActivityEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse activity created_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity entries: %w", err)
	}
	return entries, nil
}
