package handler

import "net/http"

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Conversations *ConversationHandler
	Media         *MediaHandler
	Models        *ModelsHandler
	Health        *HealthHandler
}

// Register adds the API routes to mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health.HealthCheck)

	mux.HandleFunc("GET /api/models", h.Models.GetCapabilities)

	mux.HandleFunc("POST /api/conversations", h.Conversations.CreateConversation)
	mux.HandleFunc("GET /api/conversations/{id}", h.Conversations.GetConversation)
	mux.HandleFunc("POST /api/conversations/{id}/messages", h.Conversations.SendMessage)
	mux.HandleFunc("POST /api/conversations/{id}/decompose", h.Conversations.Decompose)
	mux.HandleFunc("POST /api/conversations/{id}/messages/{messageID}/speech", h.Conversations.ReadAloud)

	mux.HandleFunc("POST /api/speech", h.Media.Speak)
	mux.HandleFunc("POST /api/images/edits", h.Media.EditImage)
}
