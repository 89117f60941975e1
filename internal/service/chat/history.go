package chat

import (
	"strings"

	models "zaidev/internal/domain/models/chat"
	"zaidev/internal/domain/models/generation"
)

// History returns the user and assistant turns of a state in order. System
// turns, turns without text and the synthetic greeting are never sent to the
// model, so the history never opens with an assistant turn it did not write.
func History(s models.State) []generation.HistoryEntry {
	history := make([]generation.HistoryEntry, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			continue
		}
		if m.ID == models.GreetingID {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		history = append(history, generation.HistoryEntry{Role: string(m.Role), Content: m.Content})
	}
	return history
}

// Transcript flattens messages into "role: content" blocks separated by a
// blank line, the shape the suggestions prompt expects.
func Transcript(msgs []models.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, string(m.Role)+": "+m.Content)
	}
	return strings.Join(parts, "\n\n")
}
