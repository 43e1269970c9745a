package events

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestAssigned      EventType = "request_assigned"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventEquipmentScrapped    EventType = "equipment_scrapped"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	ExternalKey          string             `json:"external_key"`
	Type                 domain.RequestType `json:"type"`
	EquipmentID          string             `json:"equipment_id"`
	AssignedTeamID       *string            `json:"assigned_team_id,omitempty"`
	AssignedTechnicianID *string            `json:"assigned_technician_id,omitempty"`
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	PreviousTechnicianID *string              `json:"previous_technician_id,omitempty"`
	TechnicianID         string               `json:"technician_id"`
	TeamID               *string              `json:"team_id,omitempty"`
	Status               domain.RequestStatus `json:"status"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	Operation     string               `json:"operation"`
	OldStatus     domain.RequestStatus `json:"old_status"`
	NewStatus     domain.RequestStatus `json:"new_status"`
	DurationHours *float64             `json:"duration_hours,omitempty"`
}

// EquipmentScrappedPayload payload.
type EquipmentScrappedPayload struct {
	EquipmentID   string `json:"equipment_id"`
	EquipmentName string `json:"equipment_name"`
}
