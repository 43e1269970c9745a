package domain

import "time"

// RequestStatus enumerates lifecycle states for maintenance requests.
type RequestStatus string

const (
	RequestStatusNew        RequestStatus = "NEW"
	RequestStatusInProgress RequestStatus = "IN_PROGRESS"
	RequestStatusRepaired   RequestStatus = "REPAIRED"
	RequestStatusScrap      RequestStatus = "SCRAP"
)

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusNew, RequestStatusInProgress, RequestStatusRepaired, RequestStatusScrap:
		return true
	}
	return false
}

// RequestType distinguishes unplanned from scheduled maintenance.
type RequestType string

const (
	RequestTypeCorrective RequestType = "CORRECTIVE"
	RequestTypePreventive RequestType = "PREVENTIVE"
)

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	return t == RequestTypeCorrective || t == RequestTypePreventive
}

// MaintenanceRequest is the work order aggregate. The pointer relations are
// populated by the repository layer before the request reaches the workflow engine.
type MaintenanceRequest struct {
	ID                   string
	ExternalKey          string
	Subject              string
	Type                 RequestType
	Status               RequestStatus
	EquipmentID          string
	AssignedTeamID       *string
	AssignedTechnicianID *string
	CreatedByID          *string
	ScheduledDate        *time.Time
	DueDate              *time.Time
	DurationHours        *float64
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Equipment          *Equipment
	AssignedTeam       *MaintenanceTeam
	AssignedTechnician *User
	CreatedBy          *User
}

// IsOverdue reports whether the due date has passed without the request being repaired.
func (r *MaintenanceRequest) IsOverdue(now time.Time) bool {
	if r.DueDate == nil {
		return false
	}
	return dateOnly(now).After(dateOnly(*r.DueDate)) && r.Status != RequestStatusRepaired
}

// IsAssignedTo reports whether userID is the assigned technician.
func (r *MaintenanceRequest) IsAssignedTo(userID string) bool {
	return r.AssignedTechnicianID != nil && userID != "" && *r.AssignedTechnicianID == userID
}

// ApplyEquipmentDefaults fills the team from the equipment's default team when unset.
func (r *MaintenanceRequest) ApplyEquipmentDefaults(team *MaintenanceTeam) {
	if r.AssignedTeamID != nil || r.Equipment == nil || r.Equipment.DefaultTeamID == nil {
		return
	}
	teamID := *r.Equipment.DefaultTeamID
	r.AssignedTeamID = &teamID
	if team != nil && team.ID == teamID {
		r.AssignedTeam = team
	}
}
