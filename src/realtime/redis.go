package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis channel instances exchange events on.
const DefaultChannel = "lovepixel:events"

// envelope is the wire form of an event on the Redis channel.
type envelope struct {
	Topic string `json:"topic"`
	Event Event  `json:"event"`
}

// RedisHub publishes through a Redis channel and relays every message it
// receives back into the local Hub, so subscribers on every instance see
// events published on any of them.
type RedisHub struct {
	local   *Hub
	client  *redis.Client
	channel string
}

var _ Publisher = (*RedisHub)(nil)

func NewRedisHub(local *Hub, addr, password string, db int) *RedisHub {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisHub{local: local, client: rdb, channel: DefaultChannel}
}

// NewRedisHubWithClient uses an existing client, for tests and shared pools.
func NewRedisHubWithClient(local *Hub, client *redis.Client, channel string) *RedisHub {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisHub{local: local, client: client, channel: channel}
}

func (r *RedisHub) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisHub) Publish(ctx context.Context, topic string, ev Event) error {
	payload, err := encode(topic, ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Run relays messages from Redis into the local hub until ctx is done.
func (r *RedisHub) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}
	log.Printf("[RealtimeRelay] Listening on redis channel %s", r.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			topic, ev, err := decode(msg.Payload)
			if err != nil {
				log.Printf("[RealtimeRelay] Dropping malformed message: %v", err)
				continue
			}
			_ = r.local.Publish(ctx, topic, ev)
		}
	}
}

func (r *RedisHub) Close() error {
	return r.client.Close()
}

func encode(topic string, ev Event) (string, error) {
	b, err := json.Marshal(envelope{Topic: topic, Event: ev})
	if err != nil {
		return "", fmt.Errorf("encode event %s: %w", ev.Type, err)
	}
	return string(b), nil
}

func decode(payload string) (string, Event, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return "", Event{}, err
	}
	if env.Topic == "" || env.Event.Type == "" {
		return "", Event{}, fmt.Errorf("missing topic or type")
	}
	return env.Topic, env.Event, nil
}
