package notify

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/courtsync/internal/domain/court"
)

const DefaultRedisChannel = "courtsync.events"

// Publisher is the slice of the go-redis client the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publishes each event as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  Publisher
	channel string
}

func NewRedisNotifier(client Publisher, channel string) *RedisNotifier {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

func (n *RedisNotifier) Notify(ctx context.Context, event court.Event) error {
	payload, err := sonic.Marshal(event)
	if err != nil {
		return crerr.Wrap(err, "encode redis event")
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return crerr.Wrapf(err, "publish event to channel=%s", n.channel)
	}
	return nil
}
