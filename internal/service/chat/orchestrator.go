package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"zaidev/internal/config"
	"zaidev/internal/domain"
	models "zaidev/internal/domain/models/chat"
	"zaidev/internal/domain/models/generation"
	"zaidev/internal/domain/services"
	genSvc "zaidev/internal/domain/services/generation"
	"zaidev/internal/tracing"
)

// User-facing error strings.
const (
	MessageRequired        = "Message is required."
	ImageAndPromptRequired = "Image and prompt are required."
	errorPrefix            = "AI Error: "

	// DecomposeFallback is the reply when a task yields no steps.
	DecomposeFallback = "I'm not sure how to respond to that. Can you try rephrasing?"

	imageGeneratedReply = "Here is the image you asked for."
	imageEditedReply    = "Here is your edited image."
)

// Config controls the optional parts of a turn.
type Config struct {
	// Suggestions enables the follow-up suggestions call after a reply.
	Suggestions bool
	// PreserveRejectedInput keeps a rejected non-empty submission in the
	// transcript as a user message.
	PreserveRejectedInput bool
}

type orchestrator struct {
	generator genSvc.Generator
	cfg       Config
	logger    *slog.Logger
}

// NewOrchestrator creates the message handler.
func NewOrchestrator(generator genSvc.Generator, cfg Config, logger *slog.Logger) services.Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &orchestrator{
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Handle answers one submission. The returned state always extends prev:
// the user message first, then the assistant reply on success. When ctx is
// cancelled the result is discarded and prev is returned unchanged.
func (o *orchestrator) Handle(ctx context.Context, prev models.State, sub models.Submission) (models.State, error) {
	if err := ctx.Err(); err != nil {
		return prev, err
	}

	intent := Classify(sub)
	ctx, span := tracing.StartSpan(ctx, "chat.handle", tracing.StringAttr("intent", string(intent)))
	next, err := o.handle(ctx, prev, sub, intent)
	tracing.End(span, err)
	return next, err
}

func (o *orchestrator) handle(ctx context.Context, prev models.State, sub models.Submission, intent models.Intent) (models.State, error) {
	user := models.NewUserMessage(sub.Text, strings.TrimSpace(sub.ImagePayload))

	if strings.TrimSpace(sub.Text) == "" {
		if intent == models.IntentImageEdit {
			return o.reject(prev, user, sub, ImageAndPromptRequired)
		}
		return o.reject(prev, user, sub, MessageRequired)
	}

	var (
		reply models.Message
		err   error
	)
	switch intent {
	case models.IntentImageEdit:
		reply, err = o.editImage(ctx, sub)
	case models.IntentImageGenerate:
		reply, err = o.generateImage(ctx, sub)
	default:
		reply, err = o.codeAndText(ctx, prev, sub)
	}
	return o.finish(ctx, prev, user, reply, intent, err)
}

// Decompose splits the submitted task into steps and replies with them
// joined into one paragraph. It is only reached by explicit request.
func (o *orchestrator) Decompose(ctx context.Context, prev models.State, sub models.Submission) (models.State, error) {
	if err := ctx.Err(); err != nil {
		return prev, err
	}

	ctx, span := tracing.StartSpan(ctx, "chat.decompose")
	next, err := o.decompose(ctx, prev, sub)
	tracing.End(span, err)
	return next, err
}

func (o *orchestrator) decompose(ctx context.Context, prev models.State, sub models.Submission) (models.State, error) {
	user := models.NewUserMessage(sub.Text, "")
	if strings.TrimSpace(sub.Text) == "" {
		return o.reject(prev, user, models.Submission{Text: sub.Text}, MessageRequired)
	}

	var reply models.Message
	out, err := o.generator.DecomposeTask(ctx, generation.DecomposeTaskInput{Task: sub.Text})
	if err == nil {
		content := strings.Join(out.Steps, " ")
		if len(out.Steps) == 0 || strings.TrimSpace(content) == "" {
			content = DecomposeFallback
		}
		reply = models.NewAssistantMessage(content)
	}
	return o.finish(ctx, prev, user, reply, models.IntentDecompose, err)
}

// finish folds the outcome of the primary call into the next state.
func (o *orchestrator) finish(ctx context.Context, prev models.State, user, reply models.Message, intent models.Intent, err error) (models.State, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		o.logger.Debug("turn abandoned", "intent", intent, "error", ctxErr)
		return prev, ctxErr
	}
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return o.reject(prev, user, models.Submission{Text: user.Content, ImagePayload: user.ImageURL}, vErr.Message)
		}
		o.logger.Warn("turn failed", "intent", intent, "error", err)
		return prev.Append(user).WithError(errorPrefix + err.Error()), err
	}

	if o.cfg.Suggestions {
		reply.Suggestions = o.suggest(ctx, prev, user, reply)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return prev, ctxErr
		}
	}

	o.logger.Debug("turn completed",
		"intent", intent,
		"has_code", reply.HasCode(),
		"has_image", reply.ImageURL != "",
		"suggestions", len(reply.Suggestions),
	)
	return prev.Append(user, reply).ClearError(), nil
}

// reject records a validation failure. Nothing is sent to a model.
func (o *orchestrator) reject(prev models.State, user models.Message, sub models.Submission, msg string) (models.State, error) {
	err := domain.NewValidationError(msg)
	if sub.IsEmpty() || !o.cfg.PreserveRejectedInput {
		return prev.WithError(msg), err
	}
	return prev.Append(user).WithError(msg), err
}

func (o *orchestrator) codeAndText(ctx context.Context, prev models.State, sub models.Submission) (models.Message, error) {
	out, err := o.generator.GenerateCodeAndText(ctx, generation.CodeAndTextInput{
		Prompt:  sub.Text,
		History: History(prev),
	})
	if err != nil {
		return models.Message{}, err
	}
	reply := models.NewAssistantMessage(out.Text)
	if out.Code != nil {
		reply.Code = *out.Code
	}
	return reply, nil
}

func (o *orchestrator) generateImage(ctx context.Context, sub models.Submission) (models.Message, error) {
	out, err := o.generator.GenerateImageFromText(ctx, generation.ImageFromTextInput{Prompt: sub.Text})
	if err != nil {
		return models.Message{}, err
	}
	reply := models.NewAssistantMessage(imageGeneratedReply)
	reply.ImageURL = out.ImageDataURI
	return reply, nil
}

func (o *orchestrator) editImage(ctx context.Context, sub models.Submission) (models.Message, error) {
	out, err := o.generator.GenerateImageEdits(ctx, generation.ImageEditInput{
		ImageDataURI: strings.TrimSpace(sub.ImagePayload),
		Prompt:       sub.Text,
	})
	if err != nil {
		return models.Message{}, err
	}
	reply := models.NewAssistantMessage(imageEditedReply)
	reply.ImageURL = out.EditedImageDataURI
	return reply, nil
}

// suggest asks for follow-up replies over the transcript including the new
// reply. Failures are logged and yield no suggestions.
func (o *orchestrator) suggest(ctx context.Context, prev models.State, user, reply models.Message) []string {
	transcript := Transcript(prev.Append(user, reply).Messages)
	out, err := o.generator.GenerateContextAwareSuggestions(ctx, generation.SuggestionsInput{
		ConversationHistory: transcript,
		CurrentUserMessage:  user.Content,
	})
	if err != nil {
		o.logger.Warn("suggestions skipped", "error", &domain.EnrichmentError{Err: err})
		return nil
	}

	suggestions := make([]string, 0, config.MaxSuggestions)
	for _, s := range out.Suggestions {
		if strings.TrimSpace(s) == "" {
			continue
		}
		suggestions = append(suggestions, s)
		if len(suggestions) == config.MaxSuggestions {
			break
		}
	}
	if len(suggestions) == 0 {
		return nil
	}
	return suggestions
}
