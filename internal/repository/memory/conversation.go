// Package memory keeps conversations in a bounded, expiring in-process cache.
// Conversations live for the lifetime of the server process at most.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"zaidev/internal/domain"
	"zaidev/internal/domain/models/chat"
	"zaidev/internal/domain/repositories"
)

// ConversationRepository implements repositories.ConversationRepository.
// Stored values are deep copies, so callers never share state slices with
// the cache.
type ConversationRepository struct {
	// mu serialises compare-and-swap in Save; the cache itself is safe for
	// concurrent use.
	mu    sync.Mutex
	cache *expirable.LRU[string, chat.Conversation]
}

// NewConversationRepository creates a repository holding at most size
// conversations, each evicted ttl after its last write. A zero ttl disables
// expiry.
func NewConversationRepository(size int, ttl time.Duration) *ConversationRepository {
	return &ConversationRepository{
		cache: expirable.NewLRU[string, chat.Conversation](size, nil, ttl),
	}
}

func (r *ConversationRepository) Create(_ context.Context, conv *chat.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cache.Peek(conv.ID); ok {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("conversation %s already exists", conv.ID),
			ResourceType: "conversation",
			ResourceID:   conv.ID,
		}
	}
	r.cache.Add(conv.ID, copyConversation(conv))
	return nil
}

func (r *ConversationRepository) Get(_ context.Context, id string) (*chat.Conversation, error) {
	conv, ok := r.cache.Get(id)
	if !ok {
		return nil, notFound(id)
	}
	out := copyConversation(&conv)
	return &out, nil
}

// Save stores conv if the cached version still equals expectedVersion and
// bumps conv.Version.
func (r *ConversationRepository) Save(_ context.Context, conv *chat.Conversation, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.cache.Peek(conv.ID)
	if !ok {
		return notFound(conv.ID)
	}
	if current.Version != expectedVersion {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("conversation %s was modified concurrently", conv.ID),
			ResourceType: "conversation",
			ResourceID:   conv.ID,
		}
	}

	conv.Version = expectedVersion + 1
	conv.UpdatedAt = time.Now()
	r.cache.Add(conv.ID, copyConversation(conv))
	return nil
}

func (r *ConversationRepository) Delete(_ context.Context, id string) error {
	if !r.cache.Remove(id) {
		return notFound(id)
	}
	return nil
}

// Len returns the number of live conversations.
func (r *ConversationRepository) Len() int {
	return r.cache.Len()
}

func copyConversation(conv *chat.Conversation) chat.Conversation {
	out := *conv
	out.State = conv.State.Clone()
	return out
}

func notFound(id string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("conversation %s not found", id)}
}

var _ repositories.ConversationRepository = (*ConversationRepository)(nil)
