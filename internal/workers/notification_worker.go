package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/logging"
	models "roboclub/clubhouse/internal/models/gorm"
	"roboclub/clubhouse/internal/services"
)

// Queue is the consuming side of a stream.
type Queue interface {
	Dequeue(ctx context.Context, stream, group, consumer string, block time.Duration) (*common.QueueItem, string, error)
	Ack(ctx context.Context, stream, group, messageID string) error
	CreateConsumerGroup(ctx context.Context, stream, group string) error
}

// NotificationWorker delivers queued admin notifications.
type NotificationWorker struct {
	workerID string
	queue    Queue
	notifier services.Notifier

	block   time.Duration
	backoff time.Duration
}

func NewNotificationWorker(workerID string, queue Queue, notifier services.Notifier) *NotificationWorker {
	return &NotificationWorker{
		workerID: workerID,
		queue:    queue,
		notifier: notifier,
		block:    5 * time.Second,
		backoff:  time.Second,
	}
}

// Start runs numWorkers consumers until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context, numWorkers int) error {
	if err := w.queue.CreateConsumerGroup(ctx, constants.NotificationStream, constants.NotificationConsumerGroup); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	logging.Info("Notification workers starting", "count", numWorkers, "stream", constants.NotificationStream)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		name := fmt.Sprintf("%s-%d", w.workerID, i)
		go func() {
			defer wg.Done()
			w.processQueue(ctx, name)
		}()
	}
	wg.Wait()

	logging.Info("Notification workers stopped")
	return nil
}

func (w *NotificationWorker) processQueue(ctx context.Context, consumer string) {
	log := logging.Module("notification_worker").With("consumer", consumer)
	processed, failed := 0, 0

	for {
		if ctx.Err() != nil {
			log.Infow("Shutting down", "processed", processed, "failed", failed)
			return
		}

		item, messageID, err := w.queue.Dequeue(ctx, constants.NotificationStream, constants.NotificationConsumerGroup, consumer, w.block)
		if err != nil && messageID == "" {
			if ctx.Err() == nil {
				log.Warnw("Dequeue failed", "error", err)
				sleep(ctx, w.backoff)
			}
			continue
		}
		if item == nil && err == nil {
			continue
		}

		if err == nil {
			err = w.handle(ctx, item)
		}
		if err != nil {
			// Failed items are acked too; the applicant is already visible
			// in the admin overview.
			failed++
			log.Warnw("Notification failed", "message_id", messageID, "error", err)
		} else {
			processed++
		}

		if err := w.queue.Ack(ctx, constants.NotificationStream, constants.NotificationConsumerGroup, messageID); err != nil {
			log.Warnw("Ack failed", "message_id", messageID, "error", err)
		}
	}
}

func (w *NotificationWorker) handle(ctx context.Context, item *common.QueueItem) error {
	switch item.Kind {
	case constants.JobApplicationSubmitted:
		var profile models.Profile
		if err := json.Unmarshal(item.Payload, &profile); err != nil {
			return fmt.Errorf("decode profile: %w", err)
		}
		return w.notifier.ApplicationSubmitted(ctx, &profile)
	default:
		return fmt.Errorf("unknown job kind %q", item.Kind)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
