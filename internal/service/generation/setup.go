package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"zaidev/internal/capabilities"
	"zaidev/internal/config"
	"zaidev/internal/domain/models/generation"
	genSvc "zaidev/internal/domain/services/generation"
	"zaidev/internal/service/generation/providers/anthropic"
	"zaidev/internal/service/generation/providers/elevenlabs"
	"zaidev/internal/service/generation/providers/fake"
	"zaidev/internal/service/generation/providers/gemini"
)

// Stack is the wired generation layer: the client plus what the health and
// models endpoints report about it.
type Stack struct {
	Client *Client
	// Providers maps each capability to the provider serving it.
	Providers map[generation.Capability]string
	Models    Models

	breakers map[string]func() gobreaker.State
}

// BreakerStates returns the circuit state per backend. It is empty when the
// breakers are disabled.
func (s *Stack) BreakerStates() map[string]string {
	states := make(map[string]string, len(s.breakers))
	for name, state := range s.breakers {
		states[name] = state().String()
	}
	return states
}

// Setup builds the backends named by the config, resolves the model for
// every capability and returns the ready client.
func Setup(ctx context.Context, cfg *config.Config, registry *capabilities.Registry, logger *slog.Logger) (*Stack, error) {
	var geminiClient *gemini.Client
	getGemini := func() (*gemini.Client, error) {
		if geminiClient != nil {
			return geminiClient, nil
		}
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		geminiClient = c
		return c, nil
	}

	var text genSvc.TextBackend
	switch cfg.TextProvider {
	case "gemini":
		c, err := getGemini()
		if err != nil {
			return nil, err
		}
		text = c
	case "anthropic":
		p, err := anthropic.NewProvider(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, err
		}
		text = p
	case "fake":
		text = &fake.Text{}
	default:
		return nil, fmt.Errorf("unknown text provider: %s", cfg.TextProvider)
	}

	var images genSvc.ImageBackend
	switch cfg.ImageProvider {
	case "gemini":
		c, err := getGemini()
		if err != nil {
			return nil, err
		}
		images = c
	case "fake":
		images = &fake.Images{}
	default:
		return nil, fmt.Errorf("unknown image provider: %s", cfg.ImageProvider)
	}

	var speech genSvc.SpeechBackend
	switch cfg.SpeechProvider {
	case "gemini":
		c, err := getGemini()
		if err != nil {
			return nil, err
		}
		speech = c
	case "elevenlabs":
		c, err := elevenlabs.NewClient(elevenlabs.Config{
			APIKey:  cfg.ElevenLabsAPIKey,
			VoiceID: cfg.ElevenLabsVoiceID,
		})
		if err != nil {
			return nil, err
		}
		speech = c
	case "fake":
		speech = &fake.Speech{}
	default:
		return nil, fmt.Errorf("unknown speech provider: %s", cfg.SpeechProvider)
	}

	providers := map[generation.Capability]string{
		generation.CapabilityDecompose:   cfg.TextProvider,
		generation.CapabilitySuggestions: cfg.TextProvider,
		generation.CapabilityCodeAndText: cfg.TextProvider,
		generation.CapabilityImage:       cfg.ImageProvider,
		generation.CapabilityImageEdit:   cfg.ImageProvider,
		generation.CapabilitySpeech:      cfg.SpeechProvider,
	}
	models, err := ResolveModels(registry, providers, cfg.ModelOverrides)
	if err != nil {
		return nil, err
	}

	stack := &Stack{
		Providers: providers,
		Models:    models,
		breakers:  make(map[string]func() gobreaker.State),
	}

	if cfg.BreakerEnabled {
		bc := BreakerConfig{MaxFailures: cfg.BreakerMaxFailures, Timeout: cfg.BreakerTimeout}
		bt := NewBreakerText(text, bc, logger)
		bi := NewBreakerImage(images, bc, logger)
		bs := NewBreakerSpeech(speech, bc, logger)
		stack.breakers["text"] = bt.State
		stack.breakers["image"] = bi.State
		stack.breakers["speech"] = bs.State
		text, images, speech = bt, bi, bs
	}

	client, err := NewClient(ClientConfig{
		Text:    text,
		Images:  images,
		Speech:  speech,
		Models:  models,
		Timeout: cfg.GenerationTimeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	stack.Client = client

	logger.Info("generation backends ready",
		"text", text.Name(),
		"image", images.Name(),
		"speech", speech.Name(),
		"breakers", cfg.BreakerEnabled,
	)
	return stack, nil
}

// ResolveModels picks the model for every capability: an override when the
// catalog knows it for that provider, otherwise the provider default.
func ResolveModels(registry *capabilities.Registry, providers map[generation.Capability]string, overrides map[string]string) (Models, error) {
	models := make(Models, len(generation.AllCapabilities))
	for _, capability := range generation.AllCapabilities {
		provider := providers[capability]

		if model, ok := overrides[capability.String()]; ok {
			caps, err := registry.GetModelCapabilities(provider, model)
			if err != nil {
				return nil, fmt.Errorf("MODEL_%s: %w", capability, err)
			}
			if !caps.Supports(capability.String()) {
				return nil, fmt.Errorf("MODEL_%s: model %s does not support %s", capability, model, capability)
			}
			models[capability] = model
			continue
		}

		model, err := registry.DefaultModel(provider, capability.String())
		if err != nil {
			return nil, err
		}
		models[capability] = model
	}
	return models, nil
}
