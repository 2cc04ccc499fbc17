package worker

import (
	"context"

	"github.com/spec-kit/civic-intake/internal/events"
	"github.com/spec-kit/civic-intake/internal/service"
)

// StartNotificationWorker registers notification handlers and starts
// delivering queued events in the background. The returned channel closes
// once the queue has drained after ctx is cancelled.
func StartNotificationWorker(ctx context.Context, dispatcher *events.AsyncDispatcher, notificationService *service.NotificationService) <-chan struct{} {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if dispatcher == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	go dispatcher.Run(ctx)
	return dispatcher.Done()
}
