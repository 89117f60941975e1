package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zaidev/internal/domain"
	models "zaidev/internal/domain/models/chat"
	"zaidev/internal/domain/models/generation"
	"zaidev/internal/domain/services"
	genSvc "zaidev/internal/domain/services/generation"
	generationSvc "zaidev/internal/service/generation"
	"zaidev/internal/service/generation/providers/fake"
)

const pngURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type backends struct {
	text   *fake.Text
	images *fake.Images
	speech *fake.Speech
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGenerator(t *testing.T, b *backends) genSvc.Generator {
	t.Helper()
	if b.text == nil {
		b.text = &fake.Text{}
	}
	if b.images == nil {
		b.images = &fake.Images{}
	}
	if b.speech == nil {
		b.speech = &fake.Speech{}
	}
	c, err := generationSvc.NewClient(generationSvc.ClientConfig{
		Text:   b.text,
		Images: b.images,
		Speech: b.speech,
		Models: generationSvc.Models{
			generation.CapabilityDecompose:   "fake-text",
			generation.CapabilitySuggestions: "fake-text",
			generation.CapabilityCodeAndText: "fake-text",
			generation.CapabilityImage:       "fake-image",
			generation.CapabilityImageEdit:   "fake-image",
			generation.CapabilitySpeech:      "fake-speech",
		},
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	return c
}

func newOrchestrator(t *testing.T, b *backends, cfg Config) services.Orchestrator {
	t.Helper()
	return NewOrchestrator(newGenerator(t, b), cfg, quietLogger())
}

var defaultConfig = Config{Suggestions: true, PreserveRejectedInput: true}

func TestHandleAppendsUserThenAssistant(t *testing.T) {
	o := newOrchestrator(t, &backends{}, defaultConfig)
	prev := models.NewStateWithGreeting()

	next, err := o.Handle(context.Background(), prev, models.Submission{Text: "Hello, how are you?"})
	require.NoError(t, err)

	require.Equal(t, prev.Len()+2, next.Len())
	assert.True(t, prev.IsPrefixOf(next))
	assert.Empty(t, next.Error)

	user, reply := next.Messages[1], next.Messages[2]
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "Hello, how are you?", user.Content)
	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.NotEmpty(t, reply.Content)
	assert.NotEqual(t, user.ID, reply.ID)
}

func TestHandleDoesNotTouchPrevious(t *testing.T) {
	o := newOrchestrator(t, &backends{}, defaultConfig)
	prev := models.NewStateWithGreeting()
	snapshot := prev.Clone()

	_, err := o.Handle(context.Background(), prev, models.Submission{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, snapshot, prev)
}

func TestCodeOmittedForGeneralPrompt(t *testing.T) {
	o := newOrchestrator(t, &backends{
		text: &fake.Text{Respond: func(_ context.Context, req genSvc.JSONRequest) (json.RawMessage, error) {
			if req.Capability == generation.CapabilityCodeAndText {
				return json.RawMessage(`{"text":"I'm doing well, thanks!"}`), nil
			}
			return fake.Canned(req), nil
		}},
	}, defaultConfig)

	next, err := o.Handle(context.Background(), models.NewState(), models.Submission{Text: "Hello, how are you?"})
	require.NoError(t, err)

	reply, _ := next.Last()
	assert.False(t, reply.HasCode())
	b, err := json.Marshal(reply)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"code"`)
}

func TestCodePresentForCodingPrompt(t *testing.T) {
	o := newOrchestrator(t, &backends{}, defaultConfig)

	next, err := o.Handle(context.Background(), models.NewState(), models.Submission{Text: "write a function that reverses a string in Python"})
	require.NoError(t, err)

	reply, _ := next.Last()
	assert.NotEmpty(t, reply.Content)
	assert.True(t, reply.HasCode())
}

func TestImagePayloadRoutesToEdit(t *testing.T) {
	b := &backends{}
	o := newOrchestrator(t, b, defaultConfig)

	next, err := o.Handle(context.Background(), models.NewState(), models.Submission{
		Text:         "make this black and white",
		ImagePayload: pngURI,
	})
	require.NoError(t, err)

	user := next.Messages[0]
	assert.Equal(t, pngURI, user.ImageURL)

	reply, _ := next.Last()
	assert.NotEmpty(t, reply.ImageURL)
	assert.False(t, reply.HasCode())
	assert.Equal(t, 1, b.images.Calls())
	assert.Zero(t, b.text.Calls(generation.CapabilityCodeAndText))
}

func TestGenerateImageTrigger(t *testing.T) {
	for _, text := range []string{
		"generate an image of a lighthouse at dusk",
		"Generate An Image",
		"  CREATE AN IMAGE: robots",
	} {
		b := &backends{}
		o := newOrchestrator(t, b, defaultConfig)

		next, err := o.Handle(context.Background(), models.NewState(), models.Submission{Text: text})
		require.NoError(t, err, text)

		reply, _ := next.Last()
		assert.True(t, strings.HasPrefix(reply.ImageURL, "data:image/"), text)
		assert.Equal(t, 1, b.images.Calls(), text)
		assert.Zero(t, b.text.Calls(generation.CapabilityCodeAndText), text)
	}
}

func TestHistoryExcludesSystemTurns(t *testing.T) {
	b := &backends{}
	o := newOrchestrator(t, b, defaultConfig)

	prev := models.NewStateWithGreeting().Append(
		models.Message{ID: "sys", Role: models.RoleSystem, Content: "internal note"},
		models.NewUserMessage("first question", ""),
		models.NewAssistantMessage("first answer"),
	)

	_, err := o.Handle(context.Background(), prev, models.Submission{Text: "second question"})
	require.NoError(t, err)

	var found bool
	for _, req := range b.text.Requests() {
		if req.Capability != generation.CapabilityCodeAndText {
			continue
		}
		found = true
		require.Len(t, req.History, 2)
		for _, turn := range req.History {
			assert.NotEqual(t, "system", turn.Role)
			assert.NotEqual(t, "internal note", turn.Content)
			assert.NotEqual(t, models.GreetingText, turn.Content)
		}
		assert.Equal(t, "user", req.History[0].Role)
		assert.Equal(t, "first question", req.History[0].Content)
	}
	assert.True(t, found)
}

func TestGenerationErrorKeepsUserMessage(t *testing.T) {
	o := newOrchestrator(t, &backends{
		text: &fake.Text{Respond: func(context.Context, genSvc.JSONRequest) (json.RawMessage, error) {
			return nil, errors.New("model overloaded")
		}},
	}, defaultConfig)
	prev := models.NewStateWithGreeting()

	next, err := o.Handle(context.Background(), prev, models.Submission{Text: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGeneration)

	require.Equal(t, prev.Len()+1, next.Len())
	assert.True(t, prev.IsPrefixOf(next))
	last, _ := next.Last()
	assert.Equal(t, models.RoleUser, last.Role)
	assert.Equal(t, "AI Error: model overloaded", next.Error)
}

func TestMalformedReplyIsGenerationError(t *testing.T) {
	o := newOrchestrator(t, &backends{
		text: &fake.Text{Respond: func(context.Context, genSvc.JSONRequest) (json.RawMessage, error) {
			return json.RawMessage(`{"text":"x","code":""}`), nil
		}},
	}, defaultConfig)

	next, err := o.Handle(context.Background(), models.NewState(), models.Submission{Text: "hi"})
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.Equal(t, 1, next.Len())
	assert.True(t, strings.HasPrefix(next.Error, "AI Error: "))
}

func TestErrorClearedBySuccess(t *testing.T) {
	o := newOrchestrator(t, &backends{}, defaultConfig)
	prev := models.NewStateWithGreeting().WithError("AI Error: earlier")

	next, err := o.Handle(context.Background(), prev, models.Submission{Text: "hi"})
	require.NoError(t, err)
	assert.Empty(t, next.Error)
}

func TestSuggestionsAttachedBeforeReturn(t *testing.T) {
	b := &backends{}
	o := newOrchestrator(t, b, defaultConfig)

	next, err := o.Handle(context.Background(), models.NewStateWithGreeting(), models.Submission{Text: "hi"})
	require.NoError(t, err)

	reply, _ := next.Last()
	assert.Len(t, reply.Suggestions, 3)

	var req genSvc.JSONRequest
	for _, r := range b.text.Requests() {
		if r.Capability == generation.CapabilitySuggestions {
			req = r
		}
	}
	assert.Contains(t, req.Prompt, "assistant: "+models.GreetingText)
	assert.Contains(t, req.Prompt, "user: hi")
	assert.Contains(t, req.Prompt, "assistant: "+reply.Content)
	assert.True(t, strings.HasSuffix(req.Prompt, "Current User Message:\nhi"))
}

func TestSuggestionFailureIsSwallowed(t *testing.T) {
	o := newOrchestrator(t, &backends{
		text: &fake.Text{Respond: func(_ context.Context, req genSvc.JSONRequest) (json.RawMessage, error) {
			if req.Capability == generation.CapabilitySuggestions {
				return nil, errors.New("suggestions down")
			}
			return fake.Canned(req), nil
		}},
	}, defaultConfig)

	next, err := o.Handle(context.Background(), models.NewState(), models.Submission{Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, 2, next.Len())
	reply, _ := next.Last()
	assert.Nil(t, reply.Suggestions)
	assert.Empty(t, next.Error)
}

func TestSuggestionsAreCapped(t *testing.T) {
	o := newOrchestrator(t, &backends{
		text: &fake.Text{Respond: func(_ context.Context, req genSvc.JSONRequest) (json.RawMessage, error) {
			if req.Capability == generation.CapabilitySuggestions {
				return json.RawMessage(`{"suggestions":["a"," ","b","c","d"]}`), nil
			}
			return fake.Canned(req), nil
		}},
	}, defaultConfig)

	next, err := o.Handle(context.Background(), models.NewState(), models.Submission{Text: "hi"})
	require.NoError(t, err)
	reply, _ := next.Last()
	assert.Equal(t, []string{"a", "b", "c"}, reply.Suggestions)
}

func TestSuggestionsDisabled(t *testing.T) {
	b := &backends{}
	o := newOrchestrator(t, b, Config{PreserveRejectedInput: true})

	next, err := o.Handle(context.Background(), models.NewState(), models.Submission{Text: "hi"})
	require.NoError(t, err)
	reply, _ := next.Last()
	assert.Nil(t, reply.Suggestions)
	assert.Zero(t, b.text.Calls(generation.CapabilitySuggestions))
}

func TestValidationPolicy(t *testing.T) {
	t.Run("empty submission never appends", func(t *testing.T) {
		b := &backends{}
		o := newOrchestrator(t, b, defaultConfig)
		prev := models.NewStateWithGreeting()

		next, err := o.Handle(context.Background(), prev, models.Submission{Text: "   "})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, prev.Len(), next.Len())
		assert.Equal(t, MessageRequired, next.Error)
		assert.Empty(t, b.text.Requests())
	})

	t.Run("edit without prompt preserves input", func(t *testing.T) {
		b := &backends{}
		o := newOrchestrator(t, b, defaultConfig)

		next, err := o.Handle(context.Background(), models.NewState(), models.Submission{ImagePayload: pngURI})
		assert.ErrorIs(t, err, domain.ErrValidation)
		require.Equal(t, 1, next.Len())
		assert.Equal(t, pngURI, next.Messages[0].ImageURL)
		assert.Equal(t, ImageAndPromptRequired, next.Error)
		assert.Zero(t, b.images.Calls())
	})

	t.Run("edit without prompt dropped when not preserving", func(t *testing.T) {
		o := newOrchestrator(t, &backends{}, Config{})

		next, err := o.Handle(context.Background(), models.NewState(), models.Submission{ImagePayload: pngURI})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, next.Len())
		assert.Equal(t, ImageAndPromptRequired, next.Error)
	})

	t.Run("client side validation", func(t *testing.T) {
		b := &backends{}
		o := newOrchestrator(t, b, defaultConfig)

		next, err := o.Handle(context.Background(), models.NewState(), models.Submission{
			Text:         "make it blue",
			ImagePayload: "data:text/plain;base64,aGVsbG8=",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, 1, next.Len())
		assert.NotEmpty(t, next.Error)
		assert.False(t, strings.HasPrefix(next.Error, "AI Error: "))
		assert.Zero(t, b.images.Calls())
	})
}

func TestCancelledHandleReturnsPrevious(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	o := newOrchestrator(t, &backends{
		text: &fake.Text{Respond: func(_ context.Context, req genSvc.JSONRequest) (json.RawMessage, error) {
			cancel()
			return fake.Canned(req), nil
		}},
	}, defaultConfig)
	prev := models.NewStateWithGreeting()

	next, err := o.Handle(ctx, prev, models.Submission{Text: "hi"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, prev, next)
}

func TestDecompose(t *testing.T) {
	b := &backends{}
	o := newOrchestrator(t, b, defaultConfig)

	next, err := o.Decompose(context.Background(), models.NewState(), models.Submission{Text: "launch a blog"})
	require.NoError(t, err)
	require.Equal(t, 2, next.Len())

	reply, _ := next.Last()
	assert.Equal(t, "Clarify the goal: launch a blog. Break the work into small pieces. Complete each piece and verify the result.", reply.Content)
	assert.Len(t, reply.Suggestions, 3)
	assert.Equal(t, 1, b.text.Calls(generation.CapabilityDecompose))
	assert.Zero(t, b.text.Calls(generation.CapabilityCodeAndText))
}

func TestDecomposeFallback(t *testing.T) {
	o := newOrchestrator(t, &backends{
		text: &fake.Text{Respond: func(_ context.Context, req genSvc.JSONRequest) (json.RawMessage, error) {
			if req.Capability == generation.CapabilityDecompose {
				return json.RawMessage(`{"steps":[]}`), nil
			}
			return fake.Canned(req), nil
		}},
	}, defaultConfig)

	next, err := o.Decompose(context.Background(), models.NewState(), models.Submission{Text: "???"})
	require.NoError(t, err)
	reply, _ := next.Last()
	assert.Equal(t, DecomposeFallback, reply.Content)
}

func TestDecomposeIsNotInferred(t *testing.T) {
	assert.Equal(t, models.IntentChat, Classify(models.Submission{Text: "decompose: plan a wedding"}))
	assert.Equal(t, models.IntentChat, Classify(models.Submission{Text: "please generate an image"}))
	assert.Equal(t, models.IntentImageEdit, Classify(models.Submission{Text: "generate an image", ImagePayload: pngURI}))
}
