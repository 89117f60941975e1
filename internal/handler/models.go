package handler

import (
	"log/slog"
	"net/http"

	"zaidev/internal/capabilities"
	"zaidev/internal/domain/models/generation"
	"zaidev/internal/httputil"
	genService "zaidev/internal/service/generation"
)

// ModelsHandler handles HTTP requests for model capabilities
type ModelsHandler struct {
	stack    *genService.Stack
	registry *capabilities.Registry
	logger   *slog.Logger
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(stack *genService.Stack, registry *capabilities.Registry, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{
		stack:    stack,
		registry: registry,
		logger:   logger,
	}
}

// CapabilityResponse is the model serving one capability
type CapabilityResponse struct {
	Capability  string `json:"capability"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	DisplayName string `json:"display_name,omitempty"`
}

// ProviderResponse represents a provider with its models
type ProviderResponse struct {
	ID     string                           `json:"id"`
	Name   string                           `json:"name"`
	Models []capabilities.ModelCapabilities `json:"models"`
}

// ModelsResponse is the body of GET /api/models
type ModelsResponse struct {
	Capabilities []CapabilityResponse `json:"capabilities"`
	Providers    []ProviderResponse   `json:"providers"`
}

// GetCapabilities returns the active model per capability and the catalog
// of every provider in use.
// GET /api/models
func (h *ModelsHandler) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	resp := ModelsResponse{
		Capabilities: make([]CapabilityResponse, 0, len(generation.AllCapabilities)),
		Providers:    []ProviderResponse{},
	}

	seen := make(map[string]bool)
	for _, c := range generation.AllCapabilities {
		provider := h.stack.Providers[c]
		item := CapabilityResponse{
			Capability: c.String(),
			Provider:   provider,
			Model:      h.stack.Models[c],
		}
		if mc, err := h.registry.GetModelCapabilities(provider, item.Model); err == nil {
			item.DisplayName = mc.DisplayName
		}
		resp.Capabilities = append(resp.Capabilities, item)

		if provider == "" || seen[provider] {
			continue
		}
		seen[provider] = true
		p, ok := h.registry.Provider(provider)
		if !ok {
			h.logger.Warn("provider has no catalog", "provider", provider)
			continue
		}
		resp.Providers = append(resp.Providers, ProviderResponse{
			ID:     p.Provider,
			Name:   p.DisplayName,
			Models: p.Models,
		})
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}
