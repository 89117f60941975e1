package repositories

import (
	"context"

	"zaidev/internal/domain/models/chat"
)

// ConversationRepository stores conversation states between requests.
//
// Save is a compare-and-swap: it succeeds only when the stored version equals
// expectedVersion, and returns a *domain.ConflictError otherwise. A missing
// conversation is reported as *domain.NotFoundError.
type ConversationRepository interface {
	Create(ctx context.Context, conv *chat.Conversation) error
	Get(ctx context.Context, id string) (*chat.Conversation, error)
	Save(ctx context.Context, conv *chat.Conversation, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
}
