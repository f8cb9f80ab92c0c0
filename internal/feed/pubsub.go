package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"smartpothole/backend/internal/models"
)

// RedisRelay shares feed events between instances over a Redis channel.
type RedisRelay struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisRelay(client *redis.Client, channel string, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{client: client, channel: channel, logger: logger}
}

func (r *RedisRelay) Publish(ctx context.Context, event models.FeedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode feed event: %w", err)
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Listen subscribes to the channel and calls handle for every event until
// ctx is cancelled.
func (r *RedisRelay) Listen(ctx context.Context, handle func(models.FeedEvent)) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event models.FeedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Warn("discarding malformed feed event", zap.Error(err))
				continue
			}
			handle(event)
		}
	}
}
