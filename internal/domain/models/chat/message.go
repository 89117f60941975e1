package chat

import "github.com/google/uuid"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// GreetingID is the fixed identifier of the synthetic opening message.
const GreetingID = "init"

// GreetingText is the content of the synthetic opening message.
const GreetingText = "Hello! I'm Zaidev AI. Ask me a coding question."

// Message is a single conversation turn. A message is never modified after
// it has been appended to a State; all optional fields are set at creation.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Code is present only when the reply carries a code snippet. It is never
	// the empty string on a message built by the orchestrator.
	Code string `json:"code,omitempty"`

	// ImageURL is a data URI. On user messages it is the attached image, on
	// assistant messages the generated or edited image.
	ImageURL string `json:"imageUrl,omitempty"`

	// Suggestions holds at most three follow-up replies.
	Suggestions []string `json:"suggestions,omitempty"`
}

// NewUserMessage creates a user message with a fresh ID.
func NewUserMessage(content, imageURL string) Message {
	return Message{
		ID:       uuid.NewString(),
		Role:     RoleUser,
		Content:  content,
		ImageURL: imageURL,
	}
}

// NewAssistantMessage creates an assistant message with a fresh ID.
func NewAssistantMessage(content string) Message {
	return Message{
		ID:      uuid.NewString(),
		Role:    RoleAssistant,
		Content: content,
	}
}

// Greeting returns the opening assistant message.
func Greeting() Message {
	return Message{
		ID:      GreetingID,
		Role:    RoleAssistant,
		Content: GreetingText,
	}
}

// HasCode reports whether the message carries a code snippet.
func (m Message) HasCode() bool {
	return m.Code != ""
}

// clone returns a deep copy so that callers cannot mutate message slices
// shared with another State.
func (m Message) clone() Message {
	if m.Suggestions != nil {
		m.Suggestions = append([]string(nil), m.Suggestions...)
	}
	return m
}
