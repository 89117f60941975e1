package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input. It is always raised before
	// any external call is made.
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrGeneration   = errors.New("generation failed")
	ErrEnrichment   = errors.New("enrichment failed")
)

// ConflictError represents a concurrent modification of a resource.
type ConflictError struct {
	Message      string
	ResourceType string
	ResourceID   string
}

func (e *ConflictError) Error() string        { return e.Message }
func (e *ConflictError) StatusCode() int      { return http.StatusConflict }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// GenerationError reports that an external model call failed, timed out, or
// returned output that does not match the declared response shape.
type GenerationError struct {
	Capability string
	Message    string
	Err        error
}

func (e *GenerationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "generation failed"
}

func (e *GenerationError) Unwrap() error        { return e.Err }
func (e *GenerationError) StatusCode() int      { return http.StatusBadGateway }
func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// EnrichmentError reports a failed best-effort call (suggestions). It never
// fails the operation that triggered it.
type EnrichmentError struct {
	Err error
}

func (e *EnrichmentError) Error() string        { return "enrichment: " + e.Err.Error() }
func (e *EnrichmentError) Unwrap() error        { return e.Err }
func (e *EnrichmentError) Is(target error) bool { return target == ErrEnrichment }

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// NewGenerationError wraps err as a GenerationError for the given capability.
func NewGenerationError(capability string, err error) *GenerationError {
	return &GenerationError{Capability: capability, Message: err.Error(), Err: err}
}
