package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/bft-labs/syslogship/internal/domain"
)

// RedisMode selects how messages are written to Redis.
type RedisMode string

const (
	// RedisList appends to a list with RPUSH.
	RedisList RedisMode = "list"
	// RedisStream appends to a stream with XADD under the "message" field.
	RedisStream RedisMode = "stream"
	// RedisPubSub publishes on a channel.
	RedisPubSub RedisMode = "pubsub"
)

// Redis writes every message to a Redis list, stream or channel.
type Redis struct {
	client *redis.Client
	mode   RedisMode
	key    string
}

// NewRedis creates a Redis transmitter. address is host:port or a
// redis:// URL.
func NewRedis(address string, mode RedisMode, key string) (*Redis, error) {
	if address == "" || key == "" {
		return nil, fmt.Errorf("%w: redis transport requires an address and a key", domain.ErrInvalidConfig)
	}
	switch mode {
	case "":
		mode = RedisList
	case RedisList, RedisStream, RedisPubSub:
	default:
		return nil, fmt.Errorf("%w: unknown redis mode %q", domain.ErrInvalidConfig, mode)
	}

	opts := &redis.Options{Addr: address}
	if strings.Contains(address, "://") {
		parsed, err := redis.ParseURL(address)
		if err != nil {
			return nil, fmt.Errorf("%w: redis url: %v", domain.ErrInvalidConfig, err)
		}
		opts = parsed
	}

	return &Redis{
		client: redis.NewClient(opts),
		mode:   mode,
		key:    key,
	}, nil
}

// Send writes payload according to the configured mode.
func (r *Redis) Send(ctx context.Context, payload []byte) error {
	var err error
	switch r.mode {
	case RedisStream:
		err = r.client.XAdd(ctx, &redis.XAddArgs{
			Stream: r.key,
			Values: map[string]any{"message": payload},
		}).Err()
	case RedisPubSub:
		err = r.client.Publish(ctx, r.key, payload).Err()
	default:
		err = r.client.RPush(ctx, r.key, payload).Err()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("redis %s %s: %w", r.mode, r.key, err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
