package notify

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisSink publishes each mention as JSON on a pub/sub channel.
type RedisSink struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisSink(client redis.UniversalClient, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

// NewRedisSinkFromURL parses a redis:// url.
func NewRedisSinkFromURL(rawURL, channel string) (*RedisSink, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return NewRedisSink(redis.NewClient(opts), channel), nil
}

func (s *RedisSink) Deliver(ctx context.Context, m Mention) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
