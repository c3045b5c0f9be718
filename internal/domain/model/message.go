package model

import "time"

// Message is a note sent between a linked coach and athlete. Body is
// markdown; rendering to sanitized HTML happens at the HTTP layer.
type Message struct {
	ID          int64
	SenderID    int64
	RecipientID int64
	Subject     string
	Body        string
	IsRead      bool
	CreatedAt   time.Time
}

// ActivityEntry is one append-only audit record of a user action
// (credential connect/disconnect, catalog sync, share, import).
type ActivityEntry struct {
	ID        int64
	UserID    int64
	Action    string
	Detail    string
	CreatedAt time.Time
}
