package chathub

import "streamchat/internal/models"

// Client is one connection attached to the hub.
type Client interface {
	// GetUser returns the authenticated user behind the connection.
	GetUser() models.User

	// GetSendChannel returns the channel the hub writes outbound events to.
	GetSendChannel() chan<- models.Envelope

	// Run starts the client's read and write pumps.
	Run()
	// Close stops the write pump. It is safe to call more than once.
	Close()
}

// Inbound is one event received from a client.
type Inbound struct {
	Client   Client
	Envelope models.Envelope
}
