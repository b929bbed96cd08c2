package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/service"
)

// StartNotificationWorker registers complaint notification handlers on the dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification worker subscribed",
			zap.Strings("events", []string{"complaint_submitted", "complaint_status_changed"}))
	}
}
