package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"zaidev/internal/domain"
	"zaidev/internal/domain/models/generation"
	genSvc "zaidev/internal/domain/services/generation"
	"zaidev/internal/httputil"
)

const (
	imageAndPromptRequired = "Image and prompt are required."
	textRequired           = "Text is required."
	aiErrorPrefix          = "AI Error: "
)

// MediaHandler serves the standalone image editor and read-aloud actions.
// They are not tied to a conversation and answer {result} or {error}.
type MediaHandler struct {
	generator genSvc.Generator
	logger    *slog.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(generator genSvc.Generator, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		generator: generator,
		logger:    logger,
	}
}

// ActionError is the body of a failed media action.
type ActionError struct {
	Error string `json:"error"`
}

// EditImage applies an edit instruction to an uploaded image.
// POST /api/images/edits
func (h *MediaHandler) EditImage(w http.ResponseWriter, r *http.Request) {
	var in generation.ImageEditInput
	if err := httputil.ParseJSON(w, r, &in); err != nil {
		httputil.RespondParseError(w, err)
		return
	}
	if in.ImageDataURI == "" || in.Prompt == "" {
		httputil.RespondJSON(w, http.StatusBadRequest, ActionError{Error: imageAndPromptRequired})
		return
	}

	out, err := h.generator.GenerateImageEdits(r.Context(), in)
	if err != nil {
		h.respondActionError(w, r, "image_edit", err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, out)
}

// Speak reads arbitrary text aloud.
// POST /api/speech
func (h *MediaHandler) Speak(w http.ResponseWriter, r *http.Request) {
	var in generation.SpeechInput
	if err := httputil.ParseJSON(w, r, &in); err != nil {
		httputil.RespondParseError(w, err)
		return
	}
	if in.Text == "" {
		httputil.RespondJSON(w, http.StatusBadRequest, ActionError{Error: textRequired})
		return
	}

	out, err := h.generator.TextToSpeech(r.Context(), in)
	if err != nil {
		h.respondActionError(w, r, "speech", err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, out)
}

func (h *MediaHandler) respondActionError(w http.ResponseWriter, r *http.Request, action string, err error) {
	if errors.Is(err, context.Canceled) {
		handleError(w, err)
		return
	}
	if errors.Is(err, domain.ErrValidation) {
		httputil.RespondJSON(w, http.StatusBadRequest, ActionError{Error: err.Error()})
		return
	}

	h.logger.Error("media action failed",
		"action", action,
		"request_id", httputil.GetRequestID(r),
		"error", err,
	)
	httputil.RespondJSON(w, http.StatusBadGateway, ActionError{Error: aiErrorPrefix + err.Error()})
}
