package services

import "context"

// ResourceAuthorizer checks if a user can access resources.
// Current implementation: ownership-based (user owns conversation).
//
// Services call the authorizer before operating on a resource. This keeps
// authorization (who can access) apart from lookup (which resource).
type ResourceAuthorizer interface {
	// CanAccessConversation checks if user can read and write a conversation.
	// Anonymous conversations (no owner) are open to every caller.
	CanAccessConversation(ctx context.Context, userID string, conv ConversationOwner) error
}

// ConversationOwner is the slice of a conversation the authorizer needs.
type ConversationOwner interface {
	OwnerID() string
}
