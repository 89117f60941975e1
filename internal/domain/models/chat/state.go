package chat

// State is the conversation aggregate. It has value semantics: every
// operation returns a new State and never mutates the receiver or shares a
// backing array with it.
type State struct {
	Messages []Message `json:"messages"`

	// Error describes the failure of the last operation, if any. It is
	// cleared by the next successful operation and never removes messages.
	Error string `json:"error,omitempty"`
}

// NewState returns an empty conversation.
func NewState() State {
	return State{Messages: []Message{}}
}

// NewStateWithGreeting returns a conversation holding only the greeting.
func NewStateWithGreeting() State {
	return State{Messages: []Message{Greeting()}}
}

// Len returns the number of messages.
func (s State) Len() int {
	return len(s.Messages)
}

// Last returns the most recent message and false when the state is empty.
func (s State) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Find returns the message with the given ID.
func (s State) Find(id string) (Message, bool) {
	for _, m := range s.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Append returns a copy of s with msgs added at the end. The error field is
// carried over unchanged.
func (s State) Append(msgs ...Message) State {
	out := make([]Message, 0, len(s.Messages)+len(msgs))
	for _, m := range s.Messages {
		out = append(out, m.clone())
	}
	for _, m := range msgs {
		out = append(out, m.clone())
	}
	return State{Messages: out, Error: s.Error}
}

// WithError returns a copy of s with the error field set.
func (s State) WithError(msg string) State {
	next := s.Append()
	next.Error = msg
	return next
}

// ClearError returns a copy of s without an error.
func (s State) ClearError() State {
	return s.WithError("")
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return s.Append()
}

// IsPrefixOf reports whether every message in s appears, unchanged and in
// the same position, at the start of other.
func (s State) IsPrefixOf(other State) bool {
	if len(s.Messages) > len(other.Messages) {
		return false
	}
	for i, m := range s.Messages {
		if !m.Equal(other.Messages[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two messages are identical.
func (m Message) Equal(o Message) bool {
	if m.ID != o.ID || m.Role != o.Role || m.Content != o.Content ||
		m.Code != o.Code || m.ImageURL != o.ImageURL ||
		len(m.Suggestions) != len(o.Suggestions) {
		return false
	}
	for i := range m.Suggestions {
		if m.Suggestions[i] != o.Suggestions[i] {
			return false
		}
	}
	return true
}
