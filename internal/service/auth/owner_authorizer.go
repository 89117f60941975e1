package auth

import (
	"context"
	"fmt"

	"zaidev/internal/domain"
	"zaidev/internal/domain/services"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can access a conversation if they created it.
type OwnerBasedAuthorizer struct{}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer() *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{}
}

// CanAccessConversation checks if user owns the conversation
func (a *OwnerBasedAuthorizer) CanAccessConversation(_ context.Context, userID string, conv services.ConversationOwner) error {
	owner := conv.OwnerID()
	if owner == "" || owner == userID {
		return nil
	}
	return fmt.Errorf("access denied to conversation: %w", domain.ErrForbidden)
}

var _ services.ResourceAuthorizer = (*OwnerBasedAuthorizer)(nil)
