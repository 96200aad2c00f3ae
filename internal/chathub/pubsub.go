package chathub

import (
	"context"
	"encoding/json"
	"log"

	"streamchat/internal/models"

	"github.com/redis/go-redis/v9"
)

// RoomEventSource subscribes to the shared room event channel.
type RoomEventSource interface {
	SubscribeRoomEvents(ctx context.Context) *redis.PubSub
}

// StartPubSubListener forwards room events published by other hubs and by
// admin tooling into PubSubCh.
func (m *ManagerService) StartPubSubListener(ctx context.Context) {
	go func() {
		pubsub := m.Events.SubscribeRoomEvents(ctx)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.RoomEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("Error unmarshalling Redis message: %v", err)
					continue
				}
				if ev.Origin == m.ID || ev.StreamID == "" {
					continue
				}
				select {
				case m.PubSubCh <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}
