package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroadcaster publishes to a shared channel; every instance, this one
// included, delivers to its own hub from Run.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *zap.Logger
}

func NewRedisBroadcaster(client *redis.Client, channel string, hub *Hub, log *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:  client,
		channel: channel,
		hub:     hub,
		log:     log.With(zap.String("broadcaster", "redis"), zap.String("channel", channel)),
	}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, room, event string, payload any) error {
	msg, err := encode(room, event, payload)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, msg).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event, room, err)
	}
	return nil
}

// Run relays channel messages to local subscribers until ctx is done.
func (b *RedisBroadcaster) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info("Realtime relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				b.log.Warn("Discarding malformed realtime message", zap.Error(err))
				continue
			}
			b.hub.Deliver(msg.Room, []byte(m.Payload))
		}
	}
}
