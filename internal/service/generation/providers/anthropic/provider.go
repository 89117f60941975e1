// Package anthropic serves the structured text capabilities with Claude
// models through meridian-llm-go.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/anthropic"

	genSvc "zaidev/internal/domain/services/generation"
)

const blockTypeText = "text"

// ErrNoJSON is returned when the reply holds no JSON object.
var ErrNoJSON = errors.New("anthropic: reply contains no JSON object")

// codeFenceRe matches markdown code fences wrapping JSON.
var codeFenceRe = regexp.MustCompile("(?si)^```(?:json)?\\s*(.*?)\\s*```$")

// Provider adapts a library provider to the TextBackend port.
type Provider struct {
	provider llmprovider.Provider
}

// NewProvider creates a Claude text backend.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	provider, err := anthropic.NewProvider(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}
	return &Provider{provider: provider}, nil
}

// NewProviderWith wraps an existing library provider.
func NewProviderWith(provider llmprovider.Provider) *Provider {
	return &Provider{provider: provider}
}

func (p *Provider) Name() string { return p.provider.Name().String() }

// GenerateJSON sends the conversation as Claude messages and extracts the
// JSON object from the text reply. Claude has no constrained decoding here,
// so the schema travels in the system prompt.
func (p *Provider) GenerateJSON(ctx context.Context, req genSvc.JSONRequest) (json.RawMessage, error) {
	if !p.provider.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by %s", req.Model, p.Name())
	}

	resp, err := p.provider.GenerateResponse(ctx, buildRequest(req))
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, block := range resp.Blocks {
		if block == nil || block.BlockType != blockTypeText || block.TextContent == nil {
			continue
		}
		b.WriteString(*block.TextContent)
	}
	return ExtractJSON(b.String())
}

func buildRequest(req genSvc.JSONRequest) *llmprovider.GenerateRequest {
	messages := make([]llmprovider.Message, 0, len(req.History)+1)
	for _, turn := range req.History {
		messages = append(messages, textMessage(turn.Role, turn.Content))
	}
	messages = append(messages, textMessage("user", req.Prompt))

	system := req.System
	if len(req.Schema) > 0 {
		system += "\n\nReply with only a JSON object matching this JSON Schema, without any surrounding prose:\n" + string(req.Schema)
	}

	return &llmprovider.GenerateRequest{
		Messages: messages,
		Model:    req.Model,
		Params:   &llmprovider.RequestParams{System: &system},
	}
}

func textMessage(role, text string) llmprovider.Message {
	return llmprovider.Message{
		Role: role,
		Blocks: []*llmprovider.Block{{
			BlockType:   blockTypeText,
			Sequence:    0,
			TextContent: &text,
		}},
	}
}

// ExtractJSON returns the JSON object in a model reply, tolerating code
// fences and leading or trailing prose.
func ExtractJSON(reply string) (json.RawMessage, error) {
	s := strings.TrimSpace(reply)
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s), nil
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, ErrNoJSON
	}
	return json.RawMessage(candidate), nil
}

var _ genSvc.TextBackend = (*Provider)(nil)
