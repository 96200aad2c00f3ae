// Package chatclient owns the client side of the real-time chat transport: one
// websocket per Manager, typed room operations on top of it, and bounded
// automatic reconnection.
package chatclient

import (
	"context"
	"encoding/json"

	"streamchat/internal/models"
)

// Conn is a single established transport connection. ReadEnvelope is only
// called from one goroutine and WriteEnvelope from another; Close may be
// called from anywhere and must unblock both.
type Conn interface {
	ReadEnvelope() (models.Envelope, error)
	WriteEnvelope(models.Envelope) error
	Close() error
}

// Dialer opens a Conn authenticated with token.
type Dialer interface {
	Dial(ctx context.Context, token string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, token string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, token string) (Conn, error) { return f(ctx, token) }

// Handler receives the raw payload of one event.
type Handler func(data json.RawMessage)

// Subscriber is anything events can be registered on.
type Subscriber interface {
	On(event string, h Handler)
}

// Status is the connection state of a Manager.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
)

// ReconnectPayload is the data of the local "reconnecting" event.
type ReconnectPayload struct {
	Attempt     int `json:"attempt"`
	MaxAttempts int `json:"maxAttempts"`
}
