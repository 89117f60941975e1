package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"zaidev/internal/domain"
	"zaidev/internal/domain/models/chat"
	"zaidev/internal/domain/repositories"
)

// PostgresConversationRepository implements the ConversationRepository
// interface. The state is stored as one jsonb document per conversation.
type PostgresConversationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	txm    repositories.TransactionManager
	logger *slog.Logger
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(config *RepositoryConfig) *PostgresConversationRepository {
	return &PostgresConversationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		txm:    NewTransactionManager(config.Pool, config.Logger),
		logger: config.Logger,
	}
}

// EnsureSchema creates the conversations table when it does not exist.
func (r *PostgresConversationRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL DEFAULT '',
			version    BIGINT NOT NULL,
			state      JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS %[1]s_user_id_idx ON %[1]s (user_id);
	`, r.tables.Conversations)

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure conversations table: %w", err)
	}
	return nil
}

// Create inserts a new conversation
func (r *PostgresConversationRepository) Create(ctx context.Context, conv *chat.Conversation) error {
	state, err := json.Marshal(conv.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, version, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	_, err = executor.Exec(ctx, query,
		conv.ID,
		conv.UserID,
		conv.Version,
		state,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("conversation %s already exists", conv.ID),
				ResourceType: "conversation",
				ResourceID:   conv.ID,
			}
		}
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// Get retrieves a conversation by ID
func (r *PostgresConversationRepository) Get(ctx context.Context, id string) (*chat.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, version, state, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Conversations)

	var (
		conv  chat.Conversation
		state []byte
	)
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Version,
		&state,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	if err := json.Unmarshal(state, &conv.State); err != nil {
		return nil, fmt.Errorf("unmarshal state of %s: %w", id, err)
	}
	if conv.State.Messages == nil {
		conv.State.Messages = []chat.Message{}
	}
	return &conv, nil
}

// Save writes the new state if the stored version still matches
// expectedVersion, and bumps conv.Version.
func (r *PostgresConversationRepository) Save(ctx context.Context, conv *chat.Conversation, expectedVersion int64) error {
	state, err := json.Marshal(conv.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	update := fmt.Sprintf(`
		UPDATE %s
		SET state = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
	`, r.tables.Conversations)
	exists := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, r.tables.Conversations)

	now := time.Now()
	return r.txm.ExecTx(ctx, func(ctx context.Context) error {
		executor := GetExecutor(ctx, r.pool)
		tag, err := executor.Exec(ctx, update, state, now, conv.ID, expectedVersion)
		if err != nil {
			return fmt.Errorf("save conversation: %w", err)
		}
		if tag.RowsAffected() == 1 {
			conv.Version = expectedVersion + 1
			conv.UpdatedAt = now
			return nil
		}

		var found bool
		if err := executor.QueryRow(ctx, exists, conv.ID).Scan(&found); err != nil {
			return fmt.Errorf("check conversation: %w", err)
		}
		if !found {
			return notFound(conv.ID)
		}
		r.logger.Debug("conversation version mismatch", "conversation_id", conv.ID, "expected", expectedVersion)
		return &domain.ConflictError{
			Message:      fmt.Sprintf("conversation %s was modified concurrently", conv.ID),
			ResourceType: "conversation",
			ResourceID:   conv.ID,
		}
	})
}

// Delete removes a conversation
func (r *PostgresConversationRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func notFound(id string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("conversation %s not found", id)}
}

var _ repositories.ConversationRepository = (*PostgresConversationRepository)(nil)
