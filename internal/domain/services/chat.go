package services

import (
	"context"

	"zaidev/internal/domain/models/chat"
)

// Orchestrator folds one user submission into a conversation state.
//
// Both methods return a usable State even when err is non-nil: on validation
// or generation failure the state carries the error string, on cancellation
// it is prev unchanged.
type Orchestrator interface {
	Handle(ctx context.Context, prev chat.State, sub chat.Submission) (chat.State, error)
	Decompose(ctx context.Context, prev chat.State, sub chat.Submission) (chat.State, error)
}

// ConversationService manages stored conversations for the HTTP API.
type ConversationService interface {
	Create(ctx context.Context, req *CreateConversationRequest) (*chat.Conversation, error)
	Get(ctx context.Context, id, userID string) (*chat.Conversation, error)
	SendMessage(ctx context.Context, req *SendMessageRequest) (*chat.Conversation, error)
	Decompose(ctx context.Context, req *SendMessageRequest) (*chat.Conversation, error)
	ReadAloud(ctx context.Context, conversationID, messageID, userID string) (string, error)
}

// CreateConversationRequest opens a new conversation.
type CreateConversationRequest struct {
	UserID   string `json:"-"`
	Greeting *bool  `json:"greeting,omitempty"`
}

// SendMessageRequest submits user input to a stored conversation.
type SendMessageRequest struct {
	ConversationID string `json:"-"`
	UserID         string `json:"-"`
	chat.Submission
}
