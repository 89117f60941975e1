package handler

import (
	"context"
	"errors"
	"net/http"

	"zaidev/internal/domain"
	"zaidev/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError
	var genErr *domain.GenerationError

	switch {
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the response
		httputil.RespondError(w, http.StatusServiceUnavailable, "request cancelled")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())
	case errors.As(err, &genErr):
		httputil.RespondErrorWithExtras(w, http.StatusBadGateway, genErr.Error(), map[string]interface{}{
			"capability": genErr.Capability,
		})
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
