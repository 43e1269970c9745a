package workflow

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// Actions tells a caller which operations to offer a user on a request.
type Actions struct {
	CurrentStatus      domain.RequestStatus
	AssignedTechnician *string
	CanAssign          bool
	CanStart           bool
	CanComplete        bool
	CanScrap           bool
}

// State is a read-only snapshot of a request's position in the lifecycle.
type State struct {
	ID                   string
	ExternalKey          string
	Status               domain.RequestStatus
	Type                 domain.RequestType
	Subject              string
	Equipment            string
	AssignedTeam         *string
	AssignedTechnician   *string
	DurationHours        *float64
	CreatedAt            *time.Time
	CreatedBy            *string
	IsOverdue            bool
	ValidNextTransitions []domain.RequestStatus
}

// AvailableActions combines each permission with the status the action starts from.
func (e *Engine) AvailableActions(req *domain.MaintenanceRequest, user *domain.User) Actions {
	p := e.permissions
	return Actions{
		CurrentStatus:      req.Status,
		AssignedTechnician: technicianName(req),
		CanAssign:          p.CanAssignTechnician(user, req) && req.Status == domain.RequestStatusNew,
		CanStart:           p.CanStartWork(user, req) && req.Status == domain.RequestStatusNew,
		CanComplete:        p.CanCompleteWork(user, req) && req.Status == domain.RequestStatusInProgress,
		CanScrap:           p.CanScrapRequest(user, req) && req.Status != domain.RequestStatusScrap,
	}
}

// WorkflowState snapshots the request for display.
func (e *Engine) WorkflowState(req *domain.MaintenanceRequest) State {
	state := State{
		ID:                   req.ID,
		ExternalKey:          req.ExternalKey,
		Status:               req.Status,
		Type:                 req.Type,
		Subject:              req.Subject,
		AssignedTechnician:   technicianName(req),
		DurationHours:        req.DurationHours,
		IsOverdue:            req.IsOverdue(e.now()),
		ValidNextTransitions: ValidNextTransitions(req.Status),
	}
	if req.Equipment != nil {
		state.Equipment = req.Equipment.Name
	}
	if req.AssignedTeam != nil {
		name := req.AssignedTeam.Name
		state.AssignedTeam = &name
	}
	if !req.CreatedAt.IsZero() {
		createdAt := req.CreatedAt
		state.CreatedAt = &createdAt
	}
	if req.CreatedBy != nil {
		name := req.CreatedBy.DisplayName()
		state.CreatedBy = &name
	}
	return state
}

func technicianName(req *domain.MaintenanceRequest) *string {
	if req.AssignedTechnician == nil {
		return nil
	}
	name := req.AssignedTechnician.DisplayName()
	return &name
}
