package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "teamtask:realtime"

// RedisBroker relays envelopes through a Redis pub/sub channel so every
// server instance delivers them to its own local hub.
type RedisBroker struct {
	rdb     *redis.Client
	hub     *Hub
	channel string
	logger  *slog.Logger
}

// NewRedisBroker connects to the Redis instance at url.
func NewRedisBroker(url string, hub *Hub, logger *slog.Logger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisBroker{rdb: rdb, hub: hub, channel: DefaultChannel, logger: logger}, nil
}

// Publish sends the event to every instance. On failure the event is still
// delivered locally.
func (b *RedisBroker) Publish(ctx context.Context, rooms []string, event Event) {
	payload, err := json.Marshal(Envelope{Rooms: rooms, Event: event})
	if err == nil {
		err = b.rdb.Publish(ctx, b.channel, payload).Err()
	}
	if err != nil {
		b.logger.Warn("redis publish failed, delivering locally",
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
		)
		b.hub.Publish(ctx, rooms, event)
	}
}

// Run consumes the channel until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	b.logger.Info("realtime redis relay started", slog.String("channel", b.channel))
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("realtime redis relay stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("discarding malformed realtime envelope", slog.String("error", err.Error()))
				continue
			}
			b.hub.Deliver(env)
		}
	}
}

// Close closes the Redis connection
func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}
