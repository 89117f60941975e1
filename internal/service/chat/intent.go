package chat

import (
	"strings"

	models "zaidev/internal/domain/models/chat"
)

// imageTriggers are the phrases that, at the start of a submission, ask for
// an image instead of a chat reply. Matching is case-insensitive.
var imageTriggers = []string{
	"generate an image",
	"create an image",
	"generate a picture",
	"create a picture",
	"draw an image",
	"make an image",
}

// Classify maps a submission to the capability that answers it. An attached
// image always means an edit. Decompose is never inferred from text; it has
// its own entry point.
func Classify(sub models.Submission) models.Intent {
	if sub.HasImage() {
		return models.IntentImageEdit
	}
	text := strings.ToLower(strings.TrimSpace(sub.Text))
	for _, trigger := range imageTriggers {
		if strings.HasPrefix(text, trigger) {
			return models.IntentImageGenerate
		}
	}
	return models.IntentChat
}

// ImageTriggers returns a copy of the trigger phrase table.
func ImageTriggers() []string {
	return append([]string(nil), imageTriggers...)
}
