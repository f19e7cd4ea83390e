// Package chat fans stored chat messages out to live subscribers and keeps
// a polling fallback for clients that cannot hold a socket open.
package chat

import (
	"context"
	"errors"
	"sync"

	"roboclub/clubhouse/internal/logging"
)

// Broker delivers published payloads to every subscription on a channel.
// Delivery is best effort; the store stays the source of truth.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channels ...string) (Subscription, error)
	Close() error
}

// Subscription yields payloads until Close is called or the context given
// to Subscribe is cancelled.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// UserChannel is the channel a user's messages are published on.
func UserChannel(userID string) string {
	return "chat:" + userID
}

const subscriptionBuffer = 32

var ErrBrokerClosed = errors.New("chat broker closed")

// MemoryBroker is the in-process broker used when Redis is not configured.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySubscription]struct{}
	closed bool
}

var _ Broker = (*MemoryBroker)(nil)

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[*memorySubscription]struct{})}
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[channel] {
		sub.deliver(channel, payload)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channels ...string) (Subscription, error) {
	sub := &memorySubscription{
		broker:   b,
		channels: channels,
		ch:       make(chan []byte, subscriptionBuffer),
		done:     make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBrokerClosed
	}
	for _, c := range channels {
		if b.subs[c] == nil {
			b.subs[c] = make(map[*memorySubscription]struct{})
		}
		b.subs[c][sub] = struct{}{}
	}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	all := make([]*memorySubscription, 0)
	for _, set := range b.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	b.closed = true
	b.mu.Unlock()

	for _, sub := range all {
		sub.Close()
	}
	return nil
}

func (b *MemoryBroker) remove(sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range sub.channels {
		delete(b.subs[c], sub)
		if len(b.subs[c]) == 0 {
			delete(b.subs, c)
		}
	}
}

type memorySubscription struct {
	broker   *MemoryBroker
	channels []string

	mu     sync.Mutex
	ch     chan []byte
	done   chan struct{}
	closed bool
}

func (s *memorySubscription) Messages() <-chan []byte { return s.ch }

// deliver never blocks the publisher; a full buffer drops the payload.
func (s *memorySubscription) deliver(channel string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- payload:
	default:
		logging.Warn("Chat subscriber buffer full, dropping message", "channel", channel)
	}
}

func (s *memorySubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	close(s.ch)
	s.mu.Unlock()

	s.broker.remove(s)
	return nil
}
