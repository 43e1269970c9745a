package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/observability"
)

// ActivityService turns domain events into an activity log and metrics.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventRequestCreated, a.handleRequestCreated)
	a.dispatcher.Subscribe(events.EventRequestAssigned, a.handleRequestAssigned)
	a.dispatcher.Subscribe(events.EventRequestStatusChanged, a.handleRequestStatusChanged)
	a.dispatcher.Subscribe(events.EventEquipmentScrapped, a.handleEquipmentScrapped)
}

func (a *ActivityService) handleRequestCreated(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.RequestCreatedPayload)
	a.metrics.RecordRequestCreated(string(payload.Type))
	a.logger.Info("RequestCreated",
		zap.String("request_id", event.RequestID),
		zap.String("external_key", payload.ExternalKey),
		zap.String("actor_id", event.ActorID),
		zap.String("type", string(payload.Type)),
		zap.String("equipment_id", payload.EquipmentID),
		zap.Stringp("team_id", payload.AssignedTeamID),
		zap.Stringp("technician_id", payload.AssignedTechnicianID),
	)
	return nil
}

func (a *ActivityService) handleRequestAssigned(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.RequestAssignedPayload)
	a.metrics.RecordWorkflowOperation(OpAssignTechnician, string(payload.Status))
	a.logger.Info("RequestAssigned",
		zap.String("request_id", event.RequestID),
		zap.String("actor_id", event.ActorID),
		zap.String("technician_id", payload.TechnicianID),
		zap.Stringp("previous_technician_id", payload.PreviousTechnicianID),
	)
	return nil
}

func (a *ActivityService) handleRequestStatusChanged(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.RequestStatusChangedPayload)
	a.metrics.RecordWorkflowOperation(payload.Operation, string(payload.NewStatus))
	fields := []zap.Field{
		zap.String("request_id", event.RequestID),
		zap.String("actor_id", event.ActorID),
		zap.String("operation", payload.Operation),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)),
	}
	if payload.DurationHours != nil {
		fields = append(fields, zap.Float64("duration_hours", *payload.DurationHours))
	}
	a.logger.Info("RequestStatusChanged", fields...)
	return nil
}

func (a *ActivityService) handleEquipmentScrapped(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.EquipmentScrappedPayload)
	a.metrics.RecordEquipmentScrapped()
	a.logger.Warn("EquipmentScrapped",
		zap.String("request_id", event.RequestID),
		zap.String("actor_id", event.ActorID),
		zap.String("equipment_id", payload.EquipmentID),
		zap.String("equipment_name", payload.EquipmentName),
	)
	return nil
}
