package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"zaidev/internal/domain"
	models "zaidev/internal/domain/models/chat"
	"zaidev/internal/domain/models/generation"
	"zaidev/internal/domain/repositories"
	"zaidev/internal/domain/services"
	genSvc "zaidev/internal/domain/services/generation"
)

// conversationService implements the ConversationService interface
type conversationService struct {
	repo         repositories.ConversationRepository
	orchestrator services.Orchestrator
	generator    genSvc.Generator
	authorizer   services.ResourceAuthorizer
	greeting     bool
	logger       *slog.Logger
}

// NewConversationService creates a new conversation service. greeting is the
// default for conversations created without an explicit choice.
func NewConversationService(
	repo repositories.ConversationRepository,
	orchestrator services.Orchestrator,
	generator genSvc.Generator,
	authorizer services.ResourceAuthorizer,
	greeting bool,
	logger *slog.Logger,
) services.ConversationService {
	return &conversationService{
		repo:         repo,
		orchestrator: orchestrator,
		generator:    generator,
		authorizer:   authorizer,
		greeting:     greeting,
		logger:       logger,
	}
}

// Create opens a new conversation
func (s *conversationService) Create(ctx context.Context, req *services.CreateConversationRequest) (*models.Conversation, error) {
	greeting := s.greeting
	if req.Greeting != nil {
		greeting = *req.Greeting
	}

	state := models.NewState()
	if greeting {
		state = models.NewStateWithGreeting()
	}

	now := time.Now()
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Version:   1,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Info("conversation created",
		"conversation_id", conv.ID,
		"user_id", req.UserID,
		"greeting", greeting,
	)
	return conv, nil
}

// Get retrieves a conversation the user may access
func (s *conversationService) Get(ctx context.Context, id, userID string) (*models.Conversation, error) {
	conv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccessConversation(ctx, userID, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// SendMessage runs one turn and stores the resulting state. Validation and
// generation failures are carried in the state, not returned.
func (s *conversationService) SendMessage(ctx context.Context, req *services.SendMessageRequest) (*models.Conversation, error) {
	return s.turn(ctx, req, s.orchestrator.Handle)
}

// Decompose runs the explicit task breakdown and stores the resulting state.
func (s *conversationService) Decompose(ctx context.Context, req *services.SendMessageRequest) (*models.Conversation, error) {
	return s.turn(ctx, req, s.orchestrator.Decompose)
}

type turnFn func(context.Context, models.State, models.Submission) (models.State, error)

func (s *conversationService) turn(ctx context.Context, req *services.SendMessageRequest, run turnFn) (*models.Conversation, error) {
	conv, err := s.Get(ctx, req.ConversationID, req.UserID)
	if err != nil {
		return nil, err
	}

	next, err := run(ctx, conv.State, req.Submission)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Info("turn finished with error",
			"conversation_id", conv.ID,
			"error", err,
		)
	}

	expected := conv.Version
	conv.State = next
	if err := s.repo.Save(ctx, conv, expected); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			s.logger.Warn("conversation changed during turn", "conversation_id", conv.ID, "version", expected)
		}
		return nil, err
	}

	s.logger.Debug("conversation saved",
		"conversation_id", conv.ID,
		"version", conv.Version,
		"messages", conv.State.Len(),
	)
	return conv, nil
}

// ReadAloud synthesizes speech for one message of a conversation.
func (s *conversationService) ReadAloud(ctx context.Context, conversationID, messageID, userID string) (string, error) {
	conv, err := s.Get(ctx, conversationID, userID)
	if err != nil {
		return "", err
	}
	msg, ok := conv.State.Find(messageID)
	if !ok {
		return "", &domain.NotFoundError{Message: fmt.Sprintf("message %s not found", messageID)}
	}

	out, err := s.generator.TextToSpeech(ctx, generation.SpeechInput{Text: msg.Content})
	if err != nil {
		return "", err
	}
	return out.AudioDataURI, nil
}
