package chat

import "strings"

// Submission is the raw user input for one orchestration call.
type Submission struct {
	Text string `json:"text"`

	// ImagePayload is an attached image as a data URI. When present the text
	// is the edit instruction.
	ImagePayload string `json:"imagePayload,omitempty"`
}

// HasImage reports whether an image is attached.
func (s Submission) HasImage() bool {
	return strings.TrimSpace(s.ImagePayload) != ""
}

// IsEmpty reports whether the submission carries neither text nor image.
func (s Submission) IsEmpty() bool {
	return strings.TrimSpace(s.Text) == "" && !s.HasImage()
}

// Intent is the capability selected for a submission.
type Intent string

const (
	IntentChat          Intent = "chat"
	IntentDecompose     Intent = "decompose"
	IntentImageGenerate Intent = "image-generate"
	IntentImageEdit     Intent = "image-edit"
)
