package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPublishTimeout bounds a single fan-out PUBLISH.
const DefaultPublishTimeout = 500 * time.Millisecond

// RedisPublisher forwards dispatched events to a Redis pub/sub channel so other
// processes (e.g. a notification sender) can react to complaint changes.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	timeout time.Duration
}

// NewRedisPublisher builds a publisher for channel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, timeout: DefaultPublishTimeout}
}

// Register subscribes the publisher to every event type on d.
func (p *RedisPublisher) Register(d Dispatcher) {
	if p == nil || p.client == nil || d == nil {
		return
	}
	for _, eventType := range AllEventTypes {
		d.Subscribe(eventType, p.Handle)
	}
}

// Handle publishes event as JSON. The write has already committed when this runs, so an
// unresponsive Redis costs the request at most the publish timeout.
func (p *RedisPublisher) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.Publish(ctx, p.channel, body).Err()
}
