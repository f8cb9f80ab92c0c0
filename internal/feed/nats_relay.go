package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"smartpothole/backend/internal/models"
)

// NATSRelay shares feed events between instances over a NATS subject.
type NATSRelay struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

func NewNATSRelay(conn *nats.Conn, subject string, logger *zap.Logger) *NATSRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSRelay{conn: conn, subject: subject, logger: logger}
}

func (r *NATSRelay) Publish(ctx context.Context, event models.FeedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode feed event: %w", err)
	}
	return r.conn.Publish(r.subject, payload)
}

// Listen subscribes to the subject and calls handle for every event until
// ctx is cancelled.
func (r *NATSRelay) Listen(ctx context.Context, handle func(models.FeedEvent)) error {
	msgs := make(chan *nats.Msg, 64)
	sub, err := r.conn.ChanSubscribe(r.subject, msgs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.subject, err)
	}
	defer sub.Unsubscribe() //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgs:
			var event models.FeedEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				r.logger.Warn("discarding malformed feed event", zap.Error(err))
				continue
			}
			handle(event)
		}
	}
}
