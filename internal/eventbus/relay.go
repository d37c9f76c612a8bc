// Package eventbus carries message events between instances over Redis so
// that only the instance owning the tracker mutates session state.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"rollcall/backend/internal/config"
	"rollcall/backend/internal/models"
	"rollcall/backend/internal/tracker"
)

// Relay publishes message events to a Redis Pub/Sub channel and feeds them
// into a local Ingestor on the consuming side.
type Relay struct {
	Redis   *redis.Client
	Channel string
}

// NewRelay creates a Relay on the default events channel.
func NewRelay(rdb *redis.Client) *Relay {
	return &Relay{
		Redis:   rdb,
		Channel: config.EventsChannel,
	}
}

// Publish sends ev to every subscribed instance. Events without an ID get one.
func (r *Relay) Publish(ctx context.Context, ev models.MessageEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := r.Redis.Publish(ctx, r.Channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", ev.ID, err)
	}
	return nil
}

// Ingest makes the relay usable wherever a tracker.Ingestor is expected.
func (r *Relay) Ingest(ctx context.Context, ev models.MessageEvent) error {
	return r.Publish(ctx, ev)
}

// Consume subscribes to the channel and hands every event to sink until ctx
// is done. Malformed payloads are logged and skipped.
func (r *Relay) Consume(ctx context.Context, sink tracker.Ingestor) error {
	pubsub := r.Redis.Subscribe(ctx, r.Channel)
	defer pubsub.Close()

	// Wait for the subscription confirmation so no event published after
	// Consume starts is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.Channel, err)
	}
	log.Printf("INFO: consuming message events from %s", r.Channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("event subscription closed")
			}
			var ev models.MessageEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("WARN: Error unmarshalling relayed event: %v", err)
				continue
			}
			if err := sink.Ingest(ctx, ev); err != nil {
				log.Printf("ERROR: Failed to ingest relayed event %s: %v", ev.ID, err)
			}
		}
	}
}
