package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	Subject       string             `json:"subject" validate:"required,max=200"`
	Type          domain.RequestType `json:"type" validate:"required"`
	EquipmentID   string             `json:"equipment_id"`
	TeamID        *string            `json:"team_id" validate:"omitempty,min=1"`
	ScheduledDate *time.Time         `json:"scheduled_date"`
	DueDate       *time.Time         `json:"due_date"`
}

// AssignTechnicianRequest payload.
type AssignTechnicianRequest struct {
	TechnicianID string `json:"technician_id"`
}

// CompleteWorkRequest payload. duration_hours may be a JSON number or a string.
type CompleteWorkRequest struct {
	DurationHours json.RawMessage `json:"duration_hours"`
}

// DurationText returns the raw duration as text, or "" when it was absent or null.
func (r CompleteWorkRequest) DurationText() string {
	raw := bytes.TrimSpace(r.DurationHours)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	return string(raw)
}

// RequestSummary is the list and detail representation of a request.
type RequestSummary struct {
	ID                     string               `json:"id"`
	ExternalKey            string               `json:"external_key"`
	Subject                string               `json:"subject"`
	Type                   domain.RequestType   `json:"type"`
	Status                 domain.RequestStatus `json:"status"`
	EquipmentID            string               `json:"equipment_id"`
	EquipmentName          string               `json:"equipment_name,omitempty"`
	AssignedTeamID         *string              `json:"assigned_team_id"`
	AssignedTeamName       string               `json:"assigned_team_name,omitempty"`
	AssignedTechnicianID   *string              `json:"assigned_technician_id"`
	AssignedTechnicianName string               `json:"assigned_technician_name,omitempty"`
	CreatedByID            *string              `json:"created_by_id"`
	ScheduledDate          *time.Time           `json:"scheduled_date"`
	DueDate                *time.Time           `json:"due_date"`
	DurationHours          *float64             `json:"duration_hours"`
	IsOverdue              bool                 `json:"is_overdue"`
	CreatedAt              time.Time            `json:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at"`
}

// WorkflowStateResponse is the lifecycle snapshot of a request.
type WorkflowStateResponse struct {
	ID                   string                 `json:"id"`
	ExternalKey          string                 `json:"external_key"`
	Status               domain.RequestStatus   `json:"status"`
	Type                 domain.RequestType     `json:"type"`
	Subject              string                 `json:"subject"`
	Equipment            string                 `json:"equipment"`
	AssignedTeam         *string                `json:"assigned_team"`
	AssignedTechnician   *string                `json:"assigned_technician"`
	DurationHours        *float64               `json:"duration_hours"`
	CreatedAt            *time.Time             `json:"created_at"`
	CreatedBy            *string                `json:"created_by"`
	IsOverdue            bool                   `json:"is_overdue"`
	ValidNextTransitions []domain.RequestStatus `json:"valid_next_transitions"`
}

// ActionsResponse lists what the caller may do next.
type ActionsResponse struct {
	CurrentStatus      domain.RequestStatus `json:"current_status"`
	AssignedTechnician *string              `json:"assigned_technician"`
	CanAssign          bool                 `json:"can_assign"`
	CanStart           bool                 `json:"can_start"`
	CanComplete        bool                 `json:"can_complete"`
	CanScrap           bool                 `json:"can_scrap"`
}

// RequestDetailResponse bundles a request with its workflow view.
type RequestDetailResponse struct {
	Request RequestSummary        `json:"request"`
	State   WorkflowStateResponse `json:"workflow_state"`
	Actions ActionsResponse       `json:"available_actions"`
}

// WorkflowResultResponse is returned by every lifecycle endpoint.
type WorkflowResultResponse struct {
	Message    string               `json:"message"`
	Status     domain.RequestStatus `json:"status"`
	Technician string               `json:"technician,omitempty"`
	Duration   *float64             `json:"duration,omitempty"`
	Request    RequestSummary       `json:"request"`
}

// HistoryResponse is one audit trail entry.
type HistoryResponse struct {
	ID          string                   `json:"id"`
	ChangeType  domain.RequestChangeType `json:"change_type"`
	ChangedByID *string                  `json:"changed_by_id"`
	OldValue    map[string]any           `json:"old_value"`
	NewValue    map[string]any           `json:"new_value"`
	CreatedAt   time.Time                `json:"created_at"`
}

// ListMeta describes pagination of a list response.
type ListMeta struct {
	Total  uint64 `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
