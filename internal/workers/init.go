package workers

import (
	"context"

	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/services"
)

type WorkersContainer struct {
	Notifications *NotificationWorker
}

// InitWorkers starts the background workers. They stop when ctx is
// cancelled.
func InitWorkers(ctx context.Context, queue Queue, notifier services.Notifier) *WorkersContainer {
	nw := NewNotificationWorker("notify", queue, notifier)

	go func() {
		if err := nw.Start(ctx, 2); err != nil {
			logging.Error("Notification workers exited", "error", err)
		}
	}()

	return &WorkersContainer{Notifications: nw}
}
