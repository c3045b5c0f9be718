package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MessageStore = (*MessageRepo)(nil)

// MessageRepo is the SQLite implementation of the MessageStore port.
type MessageRepo struct {
	db *DB
}

// NewMessageRepo creates a MessageRepo backed by the given DB.
func NewMessageRepo(db *DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create inserts a message and returns it with the assigned id.
func (r *MessageRepo) Create(ctx context.Context, msg model.Message) (model.Message, error) {
	const query = `
		INSERT INTO messages (sender_id, recipient_id, subject, body, is_read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`

	now := time.Now().UTC()
	res, err := r.db.Writer.ExecContext(ctx, query, msg.SenderID, msg.RecipientID, msg.Subject, msg.Body, now)
	if err != nil {
		return model.Message{}, fmt.Errorf("create message from %d to %d: %w", msg.SenderID, msg.RecipientID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Message{}, fmt.Errorf("create message: last insert id: %w", err)
	}

	msg.ID = id
	msg.IsRead = false
	msg.CreatedAt = now
	return msg, nil
}

// ListForUser returns messages received by the user, newest first.
func (r *MessageRepo) ListForUser(ctx context.Context, userID int64) ([]model.Message, error) {
	const query = `
		SELECT id, sender_id, recipient_id, subject, body, is_read, created_at
		FROM messages
		WHERE recipient_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages for user %d: %w", userID, err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var m model.Message
		var isRead int
		var createdAt string
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Subject, &m.Body, &isRead, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.IsRead = isRead != 0
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse message created_at: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags a received message as read.
func (r *MessageRepo) MarkRead(ctx context.Context, id, recipientID int64) (bool, error) {
	const query = `UPDATE messages SET is_read = 1 WHERE id = ? AND recipient_id = ?`
	res, err := r.db.Writer.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return false, fmt.Errorf("mark message %d read: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark message %d read: rows affected: %w", id, err)
	}
	return affected > 0, nil
}
