package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const EventInventoryUpdated = "inventory:updated"

// Message is the frame pushed to subscribers and relayed between instances.
type Message struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Broadcaster fans an event out to every subscriber of a room, across all
// server instances the backend can reach.
type Broadcaster interface {
	Broadcast(ctx context.Context, room, event string, payload any) error
}

func ShowtimeRoom(showtimeID uuid.UUID) string {
	return "showtime-" + showtimeID.String()
}

func encode(room, event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Message{Room: room, Event: event, Data: data})
}

// LocalBroadcaster delivers straight to this instance's hub.
type LocalBroadcaster struct {
	hub *Hub
	log *zap.Logger
}

func NewLocalBroadcaster(hub *Hub, log *zap.Logger) *LocalBroadcaster {
	return &LocalBroadcaster{
		hub: hub,
		log: log.With(zap.String("broadcaster", "local")),
	}
}

func (b *LocalBroadcaster) Broadcast(_ context.Context, room, event string, payload any) error {
	msg, err := encode(room, event, payload)
	if err != nil {
		return err
	}
	n := b.hub.Deliver(room, msg)
	b.log.Debug("Broadcast delivered", zap.String("room", room), zap.String("event", event), zap.Int("clients", n))
	return nil
}
