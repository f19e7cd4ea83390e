package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBroker fans out over Redis pub/sub so every server instance sees
// every message.
type RedisBroker struct {
	client *redis.Client
}

var _ Broker = (*RedisBroker)(nil)

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, channels ...string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, channels...)
	// Wait for the subscription confirmation so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	sub := &redisSubscription{ps: ps, ch: make(chan []byte, subscriptionBuffer), done: make(chan struct{})}
	go sub.pump(ctx)
	return sub, nil
}

// Close is a no-op; the client is shared and closed by its owner.
func (b *RedisBroker) Close() error {
	return nil
}

type redisSubscription struct {
	ps        *redis.PubSub
	ch        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (s *redisSubscription) Messages() <-chan []byte { return s.ch }

func (s *redisSubscription) pump(ctx context.Context) {
	defer close(s.ch)

	in := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.done:
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.ch <- []byte(msg.Payload):
			case <-s.done:
				return
			case <-ctx.Done():
				s.Close()
				return
			}
		}
	}
}

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
