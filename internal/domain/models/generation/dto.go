package generation

// Capability names one generation operation.
type Capability string

const (
	CapabilityDecompose   Capability = "decompose"
	CapabilitySuggestions Capability = "suggestions"
	CapabilityCodeAndText Capability = "code_and_text"
	CapabilityImage       Capability = "image"
	CapabilityImageEdit   Capability = "image_edit"
	CapabilitySpeech      Capability = "speech"
)

// AllCapabilities lists every capability in a stable order.
var AllCapabilities = []Capability{
	CapabilityDecompose,
	CapabilitySuggestions,
	CapabilityCodeAndText,
	CapabilityImage,
	CapabilityImageEdit,
	CapabilitySpeech,
}

func (c Capability) String() string { return string(c) }

// DecomposeTaskInput asks for a complex task to be split into steps.
type DecomposeTaskInput struct {
	Task string `json:"task"`
}

// DecomposeTaskOutput is the ordered list of actionable steps.
type DecomposeTaskOutput struct {
	Steps []string `json:"steps"`
}

// SuggestionsInput carries the flattened transcript and the latest user text.
type SuggestionsInput struct {
	ConversationHistory string `json:"conversationHistory"`
	CurrentUserMessage  string `json:"currentUserMessage"`
}

// SuggestionsOutput holds short follow-up replies as the model returned them.
type SuggestionsOutput struct {
	Suggestions []string `json:"suggestions"`
}

// HistoryEntry is one prior turn sent with a chat request. Only "user" and
// "assistant" roles are allowed.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CodeAndTextInput is a chat prompt with optional prior turns.
type CodeAndTextInput struct {
	Prompt  string         `json:"prompt"`
	History []HistoryEntry `json:"history,omitempty"`
}

// CodeAndTextOutput is a prose reply with an optional code snippet. Code is
// nil when the reply is not technical; it is never a pointer to "".
type CodeAndTextOutput struct {
	Text string  `json:"text"`
	Code *string `json:"code,omitempty"`
}

// ImageFromTextInput describes an image to synthesize.
type ImageFromTextInput struct {
	Prompt string `json:"prompt"`
}

// ImageFromTextOutput is the generated image as a data URI.
type ImageFromTextOutput struct {
	ImageDataURI string `json:"imageDataUri"`
}

// ImageEditInput is an image plus a natural-language edit instruction.
type ImageEditInput struct {
	ImageDataURI string `json:"imageDataUri"`
	Prompt       string `json:"prompt"`
}

// ImageEditOutput is the edited image as a data URI.
type ImageEditOutput struct {
	EditedImageDataURI string `json:"editedImageDataUri"`
}

// SpeechInput is the text to read aloud.
type SpeechInput struct {
	Text string `json:"text"`
}

// SpeechOutput is the synthesized audio as a data URI.
type SpeechOutput struct {
	AudioDataURI string `json:"audioDataUri"`
}
