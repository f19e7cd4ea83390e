package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueueService provides queue functionality using Redis Streams
type RedisQueueService struct {
	client *redis.Client
}

func NewRedisQueueService(client *redis.Client) *RedisQueueService {
	return &RedisQueueService{client: client}
}

// QueueItem is one unit of background work. Payload is decoded by the
// worker that owns Kind.
type QueueItem struct {
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewQueueItem encodes payload into an item of the given kind.
func NewQueueItem(kind string, payload any) (*QueueItem, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	return &QueueItem{Kind: kind, Payload: data, EnqueuedAt: time.Now().UTC()}, nil
}

// Enqueue adds an item to the stream
func (s *RedisQueueService) Enqueue(ctx context.Context, stream string, item *QueueItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal queue item: %w", err)
	}

	// XADD stream * data <json>
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"data": string(data)},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}
	return nil
}

// Dequeue reads one new item for consumer within group. It returns a nil
// item when nothing arrived before block elapsed.
func (s *RedisQueueService) Dequeue(ctx context.Context, stream, group, consumer string, block time.Duration) (*QueueItem, string, error) {
	// XREADGROUP GROUP group consumer BLOCK ms COUNT 1 STREAMS stream >
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read from stream: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, "", nil
	}

	msg := streams[0].Messages[0]
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return nil, msg.ID, fmt.Errorf("invalid message format: data field missing")
	}

	var item QueueItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, msg.ID, fmt.Errorf("failed to unmarshal queue item: %w", err)
	}
	return &item, msg.ID, nil
}

// Ack acknowledges successful processing of a message
func (s *RedisQueueService) Ack(ctx context.Context, stream, group, messageID string) error {
	return s.client.XAck(ctx, stream, group, messageID).Err()
}

// CreateConsumerGroup creates the group, and the stream with it, unless
// the group already exists.
func (s *RedisQueueService) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := s.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

// Length returns the number of entries in the stream
func (s *RedisQueueService) Length(ctx context.Context, stream string) (int64, error) {
	n, err := s.client.XLen(ctx, stream).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return n, nil
}
