package generation

import (
	"context"
	"encoding/json"

	"zaidev/internal/domain/models/generation"
)

// Generator is the typed capability surface used by the orchestrator and
// the HTTP layer. Every method validates its input before making a call and
// validates the model output before returning it.
type Generator interface {
	DecomposeTask(ctx context.Context, in generation.DecomposeTaskInput) (*generation.DecomposeTaskOutput, error)
	GenerateContextAwareSuggestions(ctx context.Context, in generation.SuggestionsInput) (*generation.SuggestionsOutput, error)
	GenerateCodeAndText(ctx context.Context, in generation.CodeAndTextInput) (*generation.CodeAndTextOutput, error)
	GenerateImageFromText(ctx context.Context, in generation.ImageFromTextInput) (*generation.ImageFromTextOutput, error)
	GenerateImageEdits(ctx context.Context, in generation.ImageEditInput) (*generation.ImageEditOutput, error)
	TextToSpeech(ctx context.Context, in generation.SpeechInput) (*generation.SpeechOutput, error)
}

// Turn is one prior conversation turn sent to a text backend.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// JSONRequest asks a text backend for a JSON document.
type JSONRequest struct {
	Capability generation.Capability
	Model      string
	System     string
	// History holds prior turns, oldest first.
	History []Turn
	Prompt  string
	// Schema is a JSON Schema document describing the expected reply.
	Schema json.RawMessage
}

// TextBackend produces structured JSON replies.
type TextBackend interface {
	Name() string
	GenerateJSON(ctx context.Context, req JSONRequest) (json.RawMessage, error)
}

// ImageBackend synthesizes and edits images.
type ImageBackend interface {
	Name() string
	GenerateImage(ctx context.Context, model, prompt string) (generation.Media, error)
	EditImage(ctx context.Context, model string, image generation.Media, prompt string) (generation.Media, error)
}

// SpeechBackend converts text to audio.
type SpeechBackend interface {
	Name() string
	Synthesize(ctx context.Context, model, text string) (generation.Media, error)
}
