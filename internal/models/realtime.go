package models

import "encoding/json"

// Events emitted by the client.
const (
	EventJoinStream    = "join-stream"
	EventLeaveStream   = "leave-stream"
	EventSendMessage   = "send-message"
	EventReportMessage = "report-message"
	EventTypingStart   = "typing-start"
	EventTypingStop    = "typing-stop"
)

// Events pushed by the chat service.
const (
	EventJoinedRoom      = "joined-room"
	EventMessageReceived = "message-received"
	EventMessageDeleted  = "message-deleted"
	EventMessagePinned   = "message-pinned"
	EventMessageUnpinned = "message-unpinned"
	EventSettingsUpdated = "settings-updated"
	EventReportSuccess   = "report-success"
	EventReportError     = "report-error"
	EventError           = "error"
)

// Local lifecycle events raised by the connection manager itself. They never
// travel over the wire.
const (
	EventConnected     = "connect"
	EventDisconnected  = "disconnect"
	EventReconnecting  = "reconnecting"
	EventConnectFailed = "connect-failed"
)

// Envelope is the frame format on the websocket: one named event and its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope encodes data into an Envelope for the given event.
func NewEnvelope(event string, data any) (Envelope, error) {
	if data == nil {
		return Envelope{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}

type StreamRef struct {
	StreamID string `json:"streamId"`
}

type SendMessagePayload struct {
	StreamID string `json:"streamId"`
	Message  string `json:"message"`
}

type ReportMessagePayload struct {
	StreamID    string       `json:"streamId"`
	MessageID   string       `json:"messageId"`
	Reason      ReportReason `json:"reason"`
	Description string       `json:"description,omitempty"`
}

// JoinedRoomPayload is the room snapshot sent once the join succeeds.
type JoinedRoomPayload struct {
	StreamID       string        `json:"streamId"`
	Settings       ChatSettings  `json:"settings"`
	RecentMessages []ChatMessage `json:"recentMessages"`
	PinnedMessage  *ChatMessage  `json:"pinnedMessage"`
	OnlineCount    int           `json:"onlineCount"`
	UserName       string        `json:"userName"`
	IsAdmin        bool          `json:"isAdmin"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
	StreamID  string `json:"streamId"`
}

type MessagePinnedPayload struct {
	StreamID      string       `json:"streamId"`
	PinnedMessage *ChatMessage `json:"pinnedMessage"`
}

type SettingsUpdatedPayload struct {
	StreamID string       `json:"streamId"`
	Settings ChatSettings `json:"settings"`
}

type ReportSuccessPayload struct {
	ReportID string `json:"reportId"`
	Message  string `json:"message"`
}

type ReportErrorPayload struct {
	Message string `json:"message"`
}

// ErrorPayload is the body of a generic "error" event.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RoomEvent is an event addressed to every member of one room. The dev server
// carries these over Redis so admin tooling can reach a running hub.
type RoomEvent struct {
	StreamID string          `json:"streamId"`
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data,omitempty"`
	// Origin is the id of the hub that published the event, empty for tools.
	Origin string `json:"origin,omitempty"`
}
