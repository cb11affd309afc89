package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/service"
)

// Subscriber is anything that attaches itself to the dispatcher.
type Subscriber interface {
	Register(d events.Dispatcher)
}

// StartNotificationWorker attaches the notification handlers and any extra fan-out
// subscribers (such as the Redis publisher) to dispatcher. Nil entries are skipped.
func StartNotificationWorker(dispatcher events.Dispatcher, notifications *service.NotificationService, logger *zap.Logger, fanOut ...Subscriber) {
	if dispatcher == nil {
		return
	}
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	for _, sub := range fanOut {
		if sub == nil {
			continue
		}
		sub.Register(dispatcher)
	}
	logger.Info("event subscribers registered", zap.Int("fan_out", len(fanOut)))
}
