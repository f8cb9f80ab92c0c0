package feed

import "smartpothole/backend/internal/models"

// Client is one subscriber to the complaint feed, typically a staff
// dashboard connected over WebSocket.
type Client interface {
	// GetID returns the connection identifier.
	GetID() string
	// GetSendChannel returns the channel the hub pushes events into.
	GetSendChannel() chan<- models.FeedEvent
	// Run starts the client's pumps.
	Run()
	// Close is called by the hub exactly once, after the client is removed.
	Close()
}
