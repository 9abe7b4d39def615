package remote

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRedisChannel carries project change signals between processes.
const DefaultRedisChannel = "shipit:projects:changed"

// RedisFeed is a ChangeFeed over Redis Pub/Sub. Writers publish explicitly.
type RedisFeed struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisFeed(client *redis.Client, channel string, log *zap.Logger) *RedisFeed {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisFeed{client: client, channel: channel, log: log}
}

func (f *RedisFeed) Publish(ctx context.Context) error {
	if err := f.client.Publish(ctx, f.channel, "changed").Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, onChange func()) (Subscription, error) {
	ps := f.client.Subscribe(ctx, f.channel)
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	sub := &redisSubscription{ps: ps, done: make(chan struct{})}
	ch := ps.Channel()
	go func() {
		defer close(sub.done)
		for range ch {
			onChange()
		}
	}()
	f.log.Info("listening for project changes", zap.String("channel", f.channel))
	return sub, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	done chan struct{}
}

func (s *redisSubscription) Close() error {
	err := s.ps.Close()
	<-s.done
	return err
}
