package driven

import (
	"context"

	"github.com/jdambron/coachsync/internal/domain/model"
)

// MessageStore persists messages exchanged between linked users.
type MessageStore interface {
	// Create inserts a message and returns it with the assigned id.
	Create(ctx context.Context, msg model.Message) (model.Message, error)

	// ListForUser returns messages received by the user, newest first.
	ListForUser(ctx context.Context, userID int64) ([]model.Message, error)

	// MarkRead flags a received message as read. Returns false when the
	// message does not exist or belongs to another recipient.
	MarkRead(ctx context.Context, id, recipientID int64) (bool, error)
}

// ActivityStore persists the append-only audit log.
type ActivityStore interface {
	// Append records one audit entry.
	Append(ctx context.Context, userID int64, action, detail string) error

	// ListByUser returns a user's entries, newest first, capped at limit.
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.ActivityEntry, error)
}
