// Package notify provides outbound event publishers: redis pub/sub for
// dashboard consumers and MQTT for field devices. All publishers
// implement events.Notifier and are combined through Multi.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lifeline-ems/lifeline/core/model"
)

const defaultRedisChannel = "lifeline:events"

// NewRedisClient connects and pings a redis server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// RedisPublisher broadcasts events on a redis pub/sub channel as JSON.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher. An empty channel selects the
// default lifeline:events channel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = defaultRedisChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Publish implements events.Notifier.
func (p *RedisPublisher) Publish(ctx context.Context, ev model.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event to redis: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (p *RedisPublisher) Close() error { return p.client.Close() }
