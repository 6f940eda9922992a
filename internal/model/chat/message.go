package chat

import "time"

// Origin identifies who authored a conversation entry.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// Message is one immutable entry of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Origin    Origin    `json:"origin"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
