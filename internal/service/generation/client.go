package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zaidev/internal/domain"
	"zaidev/internal/domain/models/generation"
	genSvc "zaidev/internal/domain/services/generation"
	"zaidev/internal/tracing"
)

// Models maps each capability to the model id it is served by.
type Models map[generation.Capability]string

// Client implements genSvc.Generator on top of the text, image and speech
// backends. It makes exactly one backend call per operation and never
// retries or caches.
type Client struct {
	text    genSvc.TextBackend
	images  genSvc.ImageBackend
	speech  genSvc.SpeechBackend
	models  Models
	schemas *outputSchemas
	timeout time.Duration
	logger  *slog.Logger
}

// ClientConfig holds the dependencies of a Client.
type ClientConfig struct {
	Text   genSvc.TextBackend
	Images genSvc.ImageBackend
	Speech genSvc.SpeechBackend
	Models Models
	// Timeout bounds each backend call. Zero means no extra bound.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewClient creates a generation client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Text == nil || cfg.Images == nil || cfg.Speech == nil {
		return nil, errors.New("text, image and speech backends are required")
	}
	for _, capability := range generation.AllCapabilities {
		if cfg.Models[capability] == "" {
			return nil, fmt.Errorf("no model configured for %s", capability)
		}
	}
	schemas, err := compileOutputSchemas()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		text:    cfg.Text,
		images:  cfg.Images,
		speech:  cfg.Speech,
		models:  cfg.Models,
		schemas: schemas,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

var _ genSvc.Generator = (*Client)(nil)

// DecomposeTask splits a task into actionable steps.
func (c *Client) DecomposeTask(ctx context.Context, in generation.DecomposeTaskInput) (*generation.DecomposeTaskOutput, error) {
	if err := validateDecomposeInput(&in); err != nil {
		return nil, err
	}

	var out generation.DecomposeTaskOutput
	err := c.generateJSON(ctx, generation.CapabilityDecompose, genSvc.JSONRequest{
		System: decomposeSystemPrompt,
		Prompt: decomposePrompt(in),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateContextAwareSuggestions proposes follow-up replies. The count is
// not enforced here; callers keep as many as they show.
func (c *Client) GenerateContextAwareSuggestions(ctx context.Context, in generation.SuggestionsInput) (*generation.SuggestionsOutput, error) {
	if err := validateSuggestionsInput(&in); err != nil {
		return nil, err
	}

	var out generation.SuggestionsOutput
	err := c.generateJSON(ctx, generation.CapabilitySuggestions, genSvc.JSONRequest{
		System: suggestionsSystemPrompt,
		Prompt: suggestionsPrompt(in),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateCodeAndText answers a chat prompt with prose and, for technical
// prompts, a code snippet.
func (c *Client) GenerateCodeAndText(ctx context.Context, in generation.CodeAndTextInput) (*generation.CodeAndTextOutput, error) {
	if err := validateCodeAndTextInput(&in); err != nil {
		return nil, err
	}

	history := make([]genSvc.Turn, 0, len(in.History))
	for _, h := range in.History {
		history = append(history, genSvc.Turn{Role: h.Role, Content: h.Content})
	}

	var out generation.CodeAndTextOutput
	err := c.generateJSON(ctx, generation.CapabilityCodeAndText, genSvc.JSONRequest{
		System:  codeAndTextSystemPrompt,
		History: history,
		Prompt:  codeAndTextPrompt(in),
	}, &out)
	if err != nil {
		return nil, err
	}
	if err := validateCodeAndTextOutput(&out); err != nil {
		return nil, c.malformed(generation.CapabilityCodeAndText, err)
	}
	return &out, nil
}

// GenerateImageFromText synthesizes one image.
func (c *Client) GenerateImageFromText(ctx context.Context, in generation.ImageFromTextInput) (*generation.ImageFromTextOutput, error) {
	if err := validateImageFromTextInput(&in); err != nil {
		return nil, err
	}

	capability := generation.CapabilityImage
	media, err := callBackend(ctx, c, capability, func(ctx context.Context, model string) (generation.Media, error) {
		return c.images.GenerateImage(ctx, model, in.Prompt)
	})
	if err != nil {
		return nil, err
	}
	if err := validateMedia(media, true); err != nil {
		return nil, c.malformed(capability, err)
	}
	return &generation.ImageFromTextOutput{ImageDataURI: media.DataURI()}, nil
}

// GenerateImageEdits applies a natural-language edit to an image.
func (c *Client) GenerateImageEdits(ctx context.Context, in generation.ImageEditInput) (*generation.ImageEditOutput, error) {
	if err := validateImageEditInput(&in); err != nil {
		return nil, err
	}
	source, err := generation.ParseDataURI(in.ImageDataURI)
	if err != nil {
		return nil, domain.NewValidationError("imageDataUri: " + err.Error())
	}

	capability := generation.CapabilityImageEdit
	media, err := callBackend(ctx, c, capability, func(ctx context.Context, model string) (generation.Media, error) {
		return c.images.EditImage(ctx, model, source, in.Prompt)
	})
	if err != nil {
		return nil, err
	}
	if err := validateMedia(media, true); err != nil {
		return nil, c.malformed(capability, err)
	}
	return &generation.ImageEditOutput{EditedImageDataURI: media.DataURI()}, nil
}

// TextToSpeech reads text aloud and returns the audio as a data URI.
func (c *Client) TextToSpeech(ctx context.Context, in generation.SpeechInput) (*generation.SpeechOutput, error) {
	if err := validateSpeechInput(&in); err != nil {
		return nil, err
	}

	capability := generation.CapabilitySpeech
	media, err := callBackend(ctx, c, capability, func(ctx context.Context, model string) (generation.Media, error) {
		return c.speech.Synthesize(ctx, model, in.Text)
	})
	if err != nil {
		return nil, err
	}
	if err := validateMedia(media, false); err != nil {
		return nil, c.malformed(capability, err)
	}
	return &generation.SpeechOutput{AudioDataURI: media.DataURI()}, nil
}

// generateJSON runs one structured text call and decodes the validated
// reply into dest.
func (c *Client) generateJSON(ctx context.Context, capability generation.Capability, req genSvc.JSONRequest, dest any) error {
	req.Capability = capability
	req.Schema = c.schemas.Raw(capability)
	raw, err := callBackend(ctx, c, capability, func(ctx context.Context, model string) (json.RawMessage, error) {
		req.Model = model
		return c.text.GenerateJSON(ctx, req)
	})
	if err != nil {
		return err
	}
	if err := c.schemas.Decode(capability, raw, dest); err != nil {
		return c.malformed(capability, err)
	}
	return nil
}

// callBackend wraps a single backend call with the per-call timeout, a
// tracing span and error classification.
func callBackend[T any](ctx context.Context, c *Client, capability generation.Capability, call func(context.Context, string) (T, error)) (T, error) {
	model := c.models[capability]

	ctx, span := tracing.StartSpan(ctx, "generation."+capability.String(),
		tracing.StringAttr("capability", capability.String()),
		tracing.StringAttr("model", model),
	)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := call(ctx, model)
	tracing.End(span, err)
	if err != nil {
		var zero T
		c.logger.Warn("generation call failed",
			"capability", capability,
			"model", model,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return zero, &domain.GenerationError{Capability: capability.String(), Message: "model call timed out", Err: err}
		}
		return zero, domain.NewGenerationError(capability.String(), err)
	}

	c.logger.Debug("generation call completed",
		"capability", capability,
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *Client) malformed(capability generation.Capability, err error) error {
	c.logger.Warn("malformed model output", "capability", capability, "error", err)
	return domain.NewGenerationError(capability.String(), err)
}
