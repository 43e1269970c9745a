package worker

import (
	"github.com/spec-kit/maintenance-service/internal/service"
)

// StartActivityWorker registers the activity log subscribers.
func StartActivityWorker(activity *service.ActivityService) {
	if activity == nil {
		return
	}
	activity.RegisterHandlers()
}
