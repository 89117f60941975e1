// Package gemini serves every capability through the Google Gen AI SDK:
// structured chat on Gemini, image synthesis on Imagen, image editing on
// the Gemini image model and speech on the Gemini TTS model.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"zaidev/internal/domain/models/generation"
	genSvc "zaidev/internal/domain/services/generation"
	"zaidev/internal/service/generation/providers/pcm"
)

// ErrEmptyResponse is returned when the model produced no usable part.
var ErrEmptyResponse = errors.New("gemini: empty response")

const defaultVoice = "Algenib"

// Client is a thin wrapper around the official genai client. It implements
// the text, image and speech backends.
type Client struct {
	cli   *genai.Client
	voice string
}

// Option configures a Client.
type Option func(*Client)

// WithVoice sets the prebuilt voice used for speech.
func WithVoice(voice string) Option {
	return func(c *Client) {
		if voice != "" {
			c.voice = voice
		}
	}
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c := &Client{cli: cli, voice: defaultVoice}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Name() string { return "gemini" }

// GenerateJSON asks for application/json constrained by the request schema
// and returns the concatenated text parts of the first candidate.
func (c *Client) GenerateJSON(ctx context.Context, req genSvc.JSONRequest) (json.RawMessage, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Schema) > 0 {
		schema, err := SchemaFromJSON(req.Schema)
		if err != nil {
			return nil, err
		}
		cfg.ResponseSchema = schema
	}

	resp, err := c.cli.Models.GenerateContent(ctx, req.Model, buildContents(req), cfg)
	if err != nil {
		return nil, err
	}

	parts, err := firstCandidateParts(resp)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return nil, ErrEmptyResponse
	}
	return json.RawMessage(b.String()), nil
}

// GenerateImage synthesizes one image with an Imagen model.
func (c *Client) GenerateImage(ctx context.Context, model, prompt string) (generation.Media, error) {
	resp, err := c.cli.Models.GenerateImages(ctx, model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return generation.Media{}, err
	}
	for _, img := range resp.GeneratedImages {
		if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
			continue
		}
		mime := img.Image.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return generation.Media{MIMEType: mime, Data: img.Image.ImageBytes}, nil
	}
	return generation.Media{}, ErrEmptyResponse
}

// EditImage sends the source image and the instruction to an image-capable
// Gemini model and returns the first image part of the reply.
func (c *Client) EditImage(ctx context.Context, model string, image generation.Media, prompt string) (generation.Media, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image.Data, image.MIMEType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	resp, err := c.cli.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return generation.Media{}, err
	}
	return firstInlineData(resp, "image/")
}

// Synthesize reads text aloud. Gemini returns raw PCM which is wrapped in
// a WAV container.
func (c *Client) Synthesize(ctx context.Context, model, text string) (generation.Media, error) {
	resp, err := c.cli.Models.GenerateContent(ctx, model, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.voice},
			},
		},
	})
	if err != nil {
		return generation.Media{}, err
	}
	audio, err := firstInlineData(resp, "audio/")
	if err != nil {
		return generation.Media{}, err
	}
	if isRawPCM(audio.MIMEType) {
		return generation.Media{MIMEType: "audio/wav", Data: pcm.WAV(audio.Data, pcm.Gemini)}, nil
	}
	return audio, nil
}

func buildContents(req genSvc.JSONRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		var role genai.Role = genai.RoleUser
		if turn.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))
	return contents
}

func firstCandidateParts(resp *genai.GenerateContentResponse) ([]*genai.Part, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return nil, ErrEmptyResponse
	}
	return parts, nil
}

func firstInlineData(resp *genai.GenerateContentResponse, mimePrefix string) (generation.Media, error) {
	parts, err := firstCandidateParts(resp)
	if err != nil {
		return generation.Media{}, err
	}
	for _, p := range parts {
		if p.InlineData == nil || len(p.InlineData.Data) == 0 {
			continue
		}
		if strings.HasPrefix(p.InlineData.MIMEType, mimePrefix) {
			return generation.Media{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data}, nil
		}
	}
	return generation.Media{}, fmt.Errorf("%w: no %s* part", ErrEmptyResponse, mimePrefix)
}

// isRawPCM matches the "audio/L16;codec=pcm;rate=24000" style types
// returned by the TTS models.
func isRawPCM(mime string) bool {
	m := strings.ToLower(mime)
	return strings.HasPrefix(m, "audio/l16") || strings.Contains(m, "codec=pcm") || m == "audio/pcm"
}

var (
	_ genSvc.TextBackend   = (*Client)(nil)
	_ genSvc.ImageBackend  = (*Client)(nil)
	_ genSvc.SpeechBackend = (*Client)(nil)
)
