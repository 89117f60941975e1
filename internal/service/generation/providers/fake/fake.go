// Package fake provides offline model backends with deterministic replies.
// They back local development (TEXT_PROVIDER=fake) and the test suites.
package fake

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"sync"

	"zaidev/internal/domain/models/generation"
	genSvc "zaidev/internal/domain/services/generation"
	"zaidev/internal/service/generation/providers/pcm"
)

// PixelPNG is a 1x1 transparent PNG.
var PixelPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

// technicalHints mark a prompt as a coding question for the canned reply.
var technicalHints = []string{"code", "function", "program", "script", "implement", "write a", "how do i", "bug", "compile", "regex", "sql"}

// Text is a scriptable TextBackend. When Respond is nil it returns canned
// replies that satisfy each capability's schema.
type Text struct {
	Respond func(ctx context.Context, req genSvc.JSONRequest) (json.RawMessage, error)

	mu       sync.Mutex
	requests []genSvc.JSONRequest
}

func (t *Text) Name() string { return "fake" }

func (t *Text) GenerateJSON(ctx context.Context, req genSvc.JSONRequest) (json.RawMessage, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.Respond != nil {
		return t.Respond(ctx, req)
	}
	return Canned(req), nil
}

// Requests returns every request received so far.
func (t *Text) Requests() []genSvc.JSONRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]genSvc.JSONRequest(nil), t.requests...)
}

// Calls returns the number of requests for a capability.
func (t *Text) Calls(capability generation.Capability) int {
	n := 0
	for _, r := range t.Requests() {
		if r.Capability == capability {
			n++
		}
	}
	return n
}

// Canned builds the default reply for a request.
func Canned(req genSvc.JSONRequest) json.RawMessage {
	var v any
	switch req.Capability {
	case generation.CapabilityDecompose:
		task := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(req.Prompt, "Task: "), "\nSteps:"))
		v = generation.DecomposeTaskOutput{Steps: []string{
			"Clarify the goal: " + task + ".",
			"Break the work into small pieces.",
			"Complete each piece and verify the result.",
		}}
	case generation.CapabilitySuggestions:
		v = generation.SuggestionsOutput{Suggestions: []string{
			"Can you explain that in more detail?",
			"Show me an example.",
			"What are the alternatives?",
		}}
	default:
		prompt := strings.ToLower(req.Prompt)
		out := generation.CodeAndTextOutput{Text: "Happy to help! " + strings.TrimPrefix(req.Prompt, "User Prompt: ")}
		for _, hint := range technicalHints {
			if strings.Contains(prompt, hint) {
				code := "package main\n\nfunc main() {}\n"
				out = generation.CodeAndTextOutput{Text: "Here is a minimal example:", Code: &code}
				break
			}
		}
		v = out
	}
	b, _ := json.Marshal(v)
	return b
}

// Images is a scriptable ImageBackend. Edits echo the source image unless
// Edit is set.
type Images struct {
	Generate func(ctx context.Context, model, prompt string) (generation.Media, error)
	Edit     func(ctx context.Context, model string, image generation.Media, prompt string) (generation.Media, error)

	mu    sync.Mutex
	calls int
}

func (i *Images) Name() string { return "fake" }

func (i *Images) GenerateImage(ctx context.Context, model, prompt string) (generation.Media, error) {
	i.count()
	if err := ctx.Err(); err != nil {
		return generation.Media{}, err
	}
	if i.Generate != nil {
		return i.Generate(ctx, model, prompt)
	}
	return generation.Media{MIMEType: "image/png", Data: PixelPNG}, nil
}

func (i *Images) EditImage(ctx context.Context, model string, image generation.Media, prompt string) (generation.Media, error) {
	i.count()
	if err := ctx.Err(); err != nil {
		return generation.Media{}, err
	}
	if i.Edit != nil {
		return i.Edit(ctx, model, image, prompt)
	}
	return image, nil
}

func (i *Images) count() {
	i.mu.Lock()
	i.calls++
	i.mu.Unlock()
}

// Calls returns the number of image requests.
func (i *Images) Calls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

// Speech is a scriptable SpeechBackend returning 100ms of silence.
type Speech struct {
	Respond func(ctx context.Context, model, text string) (generation.Media, error)

	mu    sync.Mutex
	calls int
}

func (s *Speech) Name() string { return "fake" }

func (s *Speech) Synthesize(ctx context.Context, model, text string) (generation.Media, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return generation.Media{}, err
	}
	if s.Respond != nil {
		return s.Respond(ctx, model, text)
	}
	silence := make([]byte, pcm.Gemini.SampleRate/10*pcm.Gemini.BitsPerSample/8)
	return generation.Media{MIMEType: "audio/wav", Data: pcm.WAV(silence, pcm.Gemini)}, nil
}

// Calls returns the number of speech requests.
func (s *Speech) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var (
	_ genSvc.TextBackend   = (*Text)(nil)
	_ genSvc.ImageBackend  = (*Images)(nil)
	_ genSvc.SpeechBackend = (*Speech)(nil)
)
