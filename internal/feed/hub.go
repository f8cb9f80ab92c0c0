// Package feed broadcasts complaint changes to connected staff dashboards.
package feed

import (
	"context"

	"go.uber.org/zap"

	"smartpothole/backend/internal/models"
)

// Relay carries events between server instances.
type Relay interface {
	Publish(ctx context.Context, event models.FeedEvent) error
	Listen(ctx context.Context, handle func(models.FeedEvent)) error
}

// Hub owns the set of connected clients. All map access happens on the Run
// goroutine.
type Hub struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	BroadcastCh  chan models.FeedEvent

	relay  Relay
	logger *zap.Logger
	done   chan struct{}
}

// NewHub creates a hub. relay may be nil for a single-instance deployment.
func NewHub(relay Relay, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		BroadcastCh:  make(chan models.FeedEvent, 64),
		relay:        relay,
		logger:       logger.Named("feed"),
		done:         make(chan struct{}),
	}
}

// Publish hands an event to the feed without blocking the caller. With a
// relay configured the event reaches local clients through the relay
// subscription, like every other instance.
func (h *Hub) Publish(ctx context.Context, event models.FeedEvent) {
	if h.relay != nil {
		err := h.relay.Publish(ctx, event)
		if err == nil {
			return
		}
		h.logger.Warn("relay publish failed, delivering locally",
			zap.String("complaint_id", event.ComplaintID),
			zap.Error(err))
	}
	h.deliver(event)
}

func (h *Hub) deliver(event models.FeedEvent) {
	select {
	case h.BroadcastCh <- event:
	case <-h.done:
	default:
		h.logger.Warn("feed backlog full, dropping event",
			zap.String("type", event.Type),
			zap.String("complaint_id", event.ComplaintID))
	}
}

// Register adds a client; it is a no-op once the hub has stopped.
func (h *Hub) Register(c Client) bool {
	select {
	case h.RegisterCh <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; it never blocks after the hub has stopped.
func (h *Hub) Unregister(c Client) {
	select {
	case h.UnregisterCh <- c:
	case <-h.done:
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every remaining client.
func (h *Hub) Run(ctx context.Context) {
	if h.relay != nil {
		go func() {
			if err := h.relay.Listen(ctx, h.deliver); err != nil && ctx.Err() == nil {
				h.logger.Error("relay listener stopped", zap.Error(err))
			}
		}()
	}

	defer func() {
		close(h.done)
		for id, client := range h.Clients {
			delete(h.Clients, id)
			client.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.RegisterCh:
			h.Clients[client.GetID()] = client
			h.logger.Debug("client registered", zap.String("client_id", client.GetID()), zap.Int("clients", len(h.Clients)))

		case client := <-h.UnregisterCh:
			h.remove(client.GetID())

		case event := <-h.BroadcastCh:
			for id, client := range h.Clients {
				select {
				case client.GetSendChannel() <- event:
				default:
					h.logger.Warn("client too slow, disconnecting", zap.String("client_id", id))
					h.remove(id)
				}
			}
		}
	}
}

func (h *Hub) remove(id string) {
	client, ok := h.Clients[id]
	if !ok {
		return
	}
	delete(h.Clients, id)
	client.Close()
	h.logger.Debug("client unregistered", zap.String("client_id", id), zap.Int("clients", len(h.Clients)))
}
