package generation

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"zaidev/internal/config"
	"zaidev/internal/domain"
	"zaidev/internal/domain/models/generation"
)

// Input validation. Every rule runs before a network call is made, and a
// failure is always a *domain.ValidationError.

var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

func imageDataURI(value interface{}) error {
	s, _ := value.(string)
	media, err := generation.ParseDataURI(s)
	if err != nil {
		return err
	}
	if !media.IsImage() {
		return fmt.Errorf("must be an image, got %s", media.MIMEType)
	}
	if len(media.Data) > config.MaxImagePayloadBytes {
		return fmt.Errorf("image exceeds %d bytes", config.MaxImagePayloadBytes)
	}
	return nil
}

func historyEntry(value interface{}) error {
	entry, ok := value.(generation.HistoryEntry)
	if !ok {
		return errors.New("invalid history entry")
	}
	return validation.ValidateStruct(&entry,
		validation.Field(&entry.Role, validation.Required, validation.In("user", "assistant")),
		validation.Field(&entry.Content, notBlank),
	)
}

func validateDecomposeInput(in *generation.DecomposeTaskInput) error {
	return asValidationError(validation.ValidateStruct(in,
		validation.Field(&in.Task, notBlank, validation.RuneLength(1, config.MaxTaskLength)),
	))
}

func validateSuggestionsInput(in *generation.SuggestionsInput) error {
	return asValidationError(validation.ValidateStruct(in,
		validation.Field(&in.ConversationHistory, notBlank),
		validation.Field(&in.CurrentUserMessage, notBlank, validation.RuneLength(1, config.MaxMessageLength)),
	))
}

func validateCodeAndTextInput(in *generation.CodeAndTextInput) error {
	return asValidationError(validation.ValidateStruct(in,
		validation.Field(&in.Prompt, notBlank, validation.RuneLength(1, config.MaxMessageLength)),
		validation.Field(&in.History, validation.Each(validation.By(historyEntry))),
	))
}

func validateImageFromTextInput(in *generation.ImageFromTextInput) error {
	return asValidationError(validation.ValidateStruct(in,
		validation.Field(&in.Prompt, notBlank, validation.RuneLength(1, config.MaxMessageLength)),
	))
}

func validateImageEditInput(in *generation.ImageEditInput) error {
	return asValidationError(validation.ValidateStruct(in,
		validation.Field(&in.ImageDataURI, validation.Required, validation.By(imageDataURI)),
		validation.Field(&in.Prompt, notBlank, validation.RuneLength(1, config.MaxMessageLength)),
	))
}

func validateSpeechInput(in *generation.SpeechInput) error {
	return asValidationError(validation.ValidateStruct(in,
		validation.Field(&in.Text, notBlank, validation.RuneLength(1, config.MaxSpeechTextLength)),
	))
}

// Output validation on top of the JSON schema.

func validateCodeAndTextOutput(out *generation.CodeAndTextOutput) error {
	return validation.ValidateStruct(out,
		validation.Field(&out.Text, notBlank),
		validation.Field(&out.Code, validation.When(out.Code != nil, validation.By(func(value interface{}) error {
			var code string
			switch v := value.(type) {
			case *string:
				if v != nil {
					code = *v
				}
			case string:
				code = v
			}
			if strings.TrimSpace(code) == "" {
				return errors.New("must be omitted instead of empty")
			}
			return nil
		}))),
	)
}

func validateMedia(media generation.Media, wantImage bool) error {
	if len(media.Data) == 0 {
		return errors.New("model returned no media")
	}
	if wantImage && !media.IsImage() {
		return fmt.Errorf("model returned %q, expected an image", media.MIMEType)
	}
	if !wantImage && !media.IsAudio() {
		return fmt.Errorf("model returned %q, expected audio", media.MIMEType)
	}
	return nil
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	return domain.NewValidationError(err.Error())
}
