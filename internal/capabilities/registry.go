package capabilities

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Providers with an embedded catalog file.
var knownProviders = []string{"gemini", "anthropic", "elevenlabs", "fake"}

// Registry is the model catalog for every provider.
type Registry struct {
	providers map[string]*ProviderCapabilities
	mu        sync.RWMutex
}

// NewRegistry creates a registry from the embedded YAML files.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		providers: make(map[string]*ProviderCapabilities),
	}

	for _, provider := range knownProviders {
		if err := r.loadProviderFile(provider); err != nil {
			return nil, fmt.Errorf("failed to load %s capabilities: %w", provider, err)
		}
	}

	return r, nil
}

func (r *Registry) loadProviderFile(provider string) error {
	filename := fmt.Sprintf("config/%s.yaml", provider)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var providerCaps ProviderCapabilities
	if err := yaml.Unmarshal(data, &providerCaps); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	// every default must point at a model that declares the capability
	for capability, modelID := range providerCaps.Defaults {
		model, ok := findModel(&providerCaps, modelID)
		if !ok {
			return fmt.Errorf("%s: default %s references unknown model %s", filename, capability, modelID)
		}
		if !model.Supports(capability) {
			return fmt.Errorf("%s: model %s does not support %s", filename, modelID, capability)
		}
	}

	r.mu.Lock()
	r.providers[provider] = &providerCaps
	r.mu.Unlock()

	return nil
}

func findModel(p *ProviderCapabilities, model string) (*ModelCapabilities, bool) {
	for i := range p.Models {
		if p.Models[i].ID == model {
			return &p.Models[i], true
		}
	}
	return nil, false
}

// GetModelCapabilities returns capabilities for a specific model
func (r *Registry) GetModelCapabilities(provider, model string) (*ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providerCaps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	m, ok := findModel(providerCaps, model)
	if !ok {
		return nil, fmt.Errorf("unknown model %s for provider %s", model, provider)
	}
	return m, nil
}

// DefaultModel returns the model a provider uses for a capability.
func (r *Registry) DefaultModel(provider, capability string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providerCaps, ok := r.providers[provider]
	if !ok {
		return "", fmt.Errorf("unknown provider: %s", provider)
	}
	model, ok := providerCaps.Defaults[capability]
	if !ok {
		return "", fmt.Errorf("provider %s has no model for %s", provider, capability)
	}
	return model, nil
}

// ListProviderModels returns all models for a provider (ordered as defined in YAML)
func (r *Registry) ListProviderModels(provider string) ([]ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providerCaps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	return providerCaps.Models, nil
}

// Provider returns the full catalog entry for a provider.
func (r *Registry) Provider(provider string) (*ProviderCapabilities, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[provider]
	return p, ok
}

// GetAllProviders returns the registered provider names, sorted.
func (r *Registry) GetAllProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]string, 0, len(r.providers))
	for provider := range r.providers {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	return providers
}
