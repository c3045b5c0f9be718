package application

import (
	"context"
	"errors"
	"strings"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

var (
	// ErrNotLinkedRecipient is returned when a message targets a user the
	// sender is not linked to.
	ErrNotLinkedRecipient = errors.New("messages can only be sent between a linked coach and athlete")

	// ErrEmptyMessage is returned when the message body is blank.
	ErrEmptyMessage = errors.New("message body is required")

	// ErrMessageNotFound is returned when a message does not exist or
	// belongs to another recipient.
	ErrMessageNotFound = errors.New("message not found")
)

// MessageService lets linked coach-athlete pairs exchange notes.
type MessageService struct {
	messages driven.MessageStore
	roster   *RosterService
}

// NewMessageService creates a MessageService.
func NewMessageService(messages driven.MessageStore, roster *RosterService) *MessageService {
	return &MessageService{messages: messages, roster: roster}
}

// Send delivers a message from sender to recipient. The pair must be linked.
func (s *MessageService) Send(ctx context.Context, senderID, recipientID int64, subject, body string) (model.Message, error) {
	if strings.TrimSpace(body) == "" {
		return model.Message{}, ErrEmptyMessage
	}

	linked, err := s.roster.Linked(ctx, senderID, recipientID)
	if err != nil {
		return model.Message{}, err
	}
	if !linked {
		return model.Message{}, ErrNotLinkedRecipient
	}

	return s.messages.Create(ctx, model.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Subject:     strings.TrimSpace(subject),
		Body:        body,
	})
}

// Inbox returns the user's received messages, newest first.
func (s *MessageService) Inbox(ctx context.Context, userID int64) ([]model.Message, error) {
	return s.messages.ListForUser(ctx, userID)
}

// MarkRead flags a received message as read.
func (s *MessageService) MarkRead(ctx context.Context, userID, messageID int64) error {
	ok, err := s.messages.MarkRead(ctx, messageID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMessageNotFound
	}
	return nil
}
