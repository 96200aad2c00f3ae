package models

import "gorm.io/gorm"

// ChatHistory represents a saved chat message in the PostgreSQL database.
// The embedded gorm.Model provides the row ID and timestamps; MessageID is the
// public identifier the clients see.
type ChatHistory struct {
	gorm.Model

	// MessageID is the UUID sent to clients as ChatMessage.ID.
	MessageID string `gorm:"type:uuid;uniqueIndex;not null"`
	// StreamID is the room the message was posted in.
	StreamID string `gorm:"type:text;not null;index:idx_stream_msg"`
	// UserID is the author.
	UserID   string `gorm:"type:text;not null;index:idx_stream_msg"`
	UserName string `gorm:"type:text"`
	Content  string `gorm:"type:text;not null"`
	IsAdmin  bool
	// ReplyTo is a reference to the MessageID being replied to.
	ReplyTo *string `gorm:"type:uuid"`
}

// ToChatMessage converts a stored row into the wire representation.
func (h ChatHistory) ToChatMessage() ChatMessage {
	return ChatMessage{
		ID:        h.MessageID,
		UserID:    h.UserID,
		UserName:  h.UserName,
		Message:   h.Content,
		Timestamp: h.CreatedAt,
		IsAdmin:   h.IsAdmin,
		ReplyTo:   h.ReplyTo,
	}
}
