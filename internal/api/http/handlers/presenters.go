package handlers

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/service"
	"github.com/spec-kit/maintenance-service/internal/workflow"
)

func requestSummary(req *domain.MaintenanceRequest, now time.Time) dto.RequestSummary {
	out := dto.RequestSummary{
		ID:                   req.ID,
		ExternalKey:          req.ExternalKey,
		Subject:              req.Subject,
		Type:                 req.Type,
		Status:               req.Status,
		EquipmentID:          req.EquipmentID,
		AssignedTeamID:       req.AssignedTeamID,
		AssignedTechnicianID: req.AssignedTechnicianID,
		CreatedByID:          req.CreatedByID,
		ScheduledDate:        req.ScheduledDate,
		DueDate:              req.DueDate,
		DurationHours:        req.DurationHours,
		IsOverdue:            req.IsOverdue(now),
		CreatedAt:            req.CreatedAt,
		UpdatedAt:            req.UpdatedAt,
	}
	if req.Equipment != nil {
		out.EquipmentName = req.Equipment.Name
	}
	if req.AssignedTeam != nil {
		out.AssignedTeamName = req.AssignedTeam.Name
	}
	if req.AssignedTechnician != nil {
		out.AssignedTechnicianName = req.AssignedTechnician.DisplayName()
	}
	return out
}

func workflowState(s workflow.State) dto.WorkflowStateResponse {
	return dto.WorkflowStateResponse{
		ID:                   s.ID,
		ExternalKey:          s.ExternalKey,
		Status:               s.Status,
		Type:                 s.Type,
		Subject:              s.Subject,
		Equipment:            s.Equipment,
		AssignedTeam:         s.AssignedTeam,
		AssignedTechnician:   s.AssignedTechnician,
		DurationHours:        s.DurationHours,
		CreatedAt:            s.CreatedAt,
		CreatedBy:            s.CreatedBy,
		IsOverdue:            s.IsOverdue,
		ValidNextTransitions: s.ValidNextTransitions,
	}
}

func actionsResponse(a workflow.Actions) dto.ActionsResponse {
	return dto.ActionsResponse{
		CurrentStatus:      a.CurrentStatus,
		AssignedTechnician: a.AssignedTechnician,
		CanAssign:          a.CanAssign,
		CanStart:           a.CanStart,
		CanComplete:        a.CanComplete,
		CanScrap:           a.CanScrap,
	}
}

func workflowResult(out *service.WorkflowOutcome, now time.Time) dto.WorkflowResultResponse {
	return dto.WorkflowResultResponse{
		Message:    out.Result.Message,
		Status:     out.Result.Status,
		Technician: out.Result.Technician,
		Duration:   out.Result.Duration,
		Request:    requestSummary(out.Request, now),
	}
}

func historyResponses(entries []domain.RequestHistory) []dto.HistoryResponse {
	resp := make([]dto.HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.HistoryResponse{
			ID:          entry.ID,
			ChangeType:  entry.ChangeType,
			ChangedByID: entry.ChangedByID,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return resp
}

func equipmentResponse(eq *domain.Equipment) dto.EquipmentResponse {
	return dto.EquipmentResponse{
		ID:                  eq.ID,
		Name:                eq.Name,
		SerialNumber:        eq.SerialNumber,
		Department:          eq.Department,
		Location:            eq.Location,
		DefaultTeamID:       eq.DefaultTeamID,
		DefaultTechnicianID: eq.DefaultTechnicianID,
		PurchaseDate:        eq.PurchaseDate,
		WarrantyExpiresOn:   eq.WarrantyExpiresOn,
		IsScrapped:          eq.IsScrapped,
		CreatedAt:           eq.CreatedAt,
	}
}

func teamResponse(team *domain.MaintenanceTeam) dto.TeamResponse {
	members := team.MemberIDs
	if members == nil {
		members = []string{}
	}
	return dto.TeamResponse{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		MemberIDs:   members,
		CreatedAt:   team.CreatedAt,
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	teams := user.TeamIDs
	if teams == nil {
		teams = []string{}
	}
	return dto.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		IsManager: user.IsManager,
		TeamIDs:   teams,
		Role:      string(workflow.RoleOf(user)),
	}
}
