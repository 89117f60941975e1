package handler

import (
	"context"
	"log/slog"
	"net/http"

	"zaidev/internal/domain/models/chat"
	"zaidev/internal/domain/services"
	"zaidev/internal/httputil"
)

// ConversationHandler handles conversation HTTP requests.
// Handlers only talk to the service layer, never to repositories.
type ConversationHandler struct {
	service services.ConversationService
	logger  *slog.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(service services.ConversationService, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		logger:  logger,
	}
}

// CreateConversation opens a conversation
// POST /api/conversations
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req services.CreateConversationRequest
	if err := httputil.ParseOptionalJSON(w, r, &req); err != nil {
		httputil.RespondParseError(w, err)
		return
	}
	req.UserID = httputil.GetUserID(r)

	conv, err := h.service.Create(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, conv)
}

// GetConversation returns the current state
// GET /api/conversations/{id}
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.service.Get(r.Context(), r.PathValue("id"), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conv)
}

// SendMessage runs one chat turn.
// POST /api/conversations/{id}/messages
// Returns 200 even when the turn failed: the error is in state.error.
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	h.turn(w, r, h.service.SendMessage)
}

// Decompose runs the task breakdown.
// POST /api/conversations/{id}/decompose
func (h *ConversationHandler) Decompose(w http.ResponseWriter, r *http.Request) {
	h.turn(w, r, h.service.Decompose)
}

func (h *ConversationHandler) turn(
	w http.ResponseWriter,
	r *http.Request,
	run func(context.Context, *services.SendMessageRequest) (*chat.Conversation, error),
) {
	var req services.SendMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondParseError(w, err)
		return
	}
	req.ConversationID = r.PathValue("id")
	req.UserID = httputil.GetUserID(r)

	conv, err := run(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	if conv.State.Error != "" {
		h.logger.Debug("turn carried an error",
			"conversation_id", conv.ID,
			"request_id", httputil.GetRequestID(r),
			"error", conv.State.Error,
		)
	}
	httputil.RespondJSON(w, http.StatusOK, conv)
}

// SpeechResponse carries synthesized audio
type SpeechResponse struct {
	AudioDataURI string `json:"audioDataUri"`
}

// ReadAloud synthesizes one stored message.
// POST /api/conversations/{id}/messages/{messageID}/speech
func (h *ConversationHandler) ReadAloud(w http.ResponseWriter, r *http.Request) {
	audio, err := h.service.ReadAloud(r.Context(), r.PathValue("id"), r.PathValue("messageID"), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, SpeechResponse{AudioDataURI: audio})
}
