package models

import "time"

// ChatMessage is a single chat utterance as delivered by the chat service.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	IsAdmin   bool      `json:"isAdmin"`
	// ReplyTo references another message id in the same room.
	ReplyTo *string `json:"replyTo,omitempty"`
}

// ChatSettings is the room-level policy snapshot. It is always replaced as a
// whole, never merged field by field.
type ChatSettings struct {
	IsChatEnabled    bool `json:"isChatEnabled"`
	MaxMessageLength int  `json:"maxMessageLength"`
	// RateLimit is the number of messages a user may send per minute.
	RateLimit     int  `json:"rateLimit"`
	IsPrivateMode bool `json:"isPrivateMode"`
}

// DefaultChatSettings is what a freshly created room starts with.
func DefaultChatSettings() ChatSettings {
	return ChatSettings{
		IsChatEnabled:    true,
		MaxMessageLength: 500,
		RateLimit:        10,
	}
}
