package chat

import "time"

// Conversation is a stored State plus its storage metadata. Version is
// incremented on every successful save and is used to detect concurrent
// writers.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Version   int64     `json:"version"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnerID returns the owning user, empty for anonymous conversations.
func (c *Conversation) OwnerID() string {
	return c.UserID
}
