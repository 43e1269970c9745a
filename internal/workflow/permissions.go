package workflow

import "github.com/spec-kit/maintenance-service/internal/domain"

// Role is derived from a user's attributes and never stored.
type Role string

const (
	RoleUser       Role = "user"
	RoleTechnician Role = "technician"
	RoleManager    Role = "manager"
)

// RoleOf derives the role from the manager flag and team memberships.
func RoleOf(user *domain.User) Role {
	switch {
	case user == nil:
		return RoleUser
	case user.IsManager:
		return RoleManager
	case len(user.TeamIDs) > 0:
		return RoleTechnician
	default:
		return RoleUser
	}
}

// PermissionChecker answers capability questions for an acting user. It only
// reads the supplied records.
type PermissionChecker struct{}

// IsManager reports whether the user holds the manager role.
func (PermissionChecker) IsManager(user *domain.User) bool {
	return RoleOf(user) == RoleManager
}

// IsTechnician is true for technicians and managers.
func (PermissionChecker) IsTechnician(user *domain.User) bool {
	role := RoleOf(user)
	return role == RoleTechnician || role == RoleManager
}

// BelongsToTeam checks membership from the team side.
func (PermissionChecker) BelongsToTeam(user *domain.User, team *domain.MaintenanceTeam) bool {
	if user == nil {
		return false
	}
	return team.HasMember(user.ID)
}

// CanAssignTechnician: managers always; technicians only within the request's team.
func (p PermissionChecker) CanAssignTechnician(user *domain.User, req *domain.MaintenanceRequest) bool {
	if p.IsManager(user) {
		return true
	}
	if p.IsTechnician(user) && req.AssignedTeam != nil {
		return p.BelongsToTeam(user, req.AssignedTeam)
	}
	return false
}

// CanStartWork: managers, or the assigned technician.
func (p PermissionChecker) CanStartWork(user *domain.User, req *domain.MaintenanceRequest) bool {
	return p.isManagerOrAssignee(user, req)
}

// CanCompleteWork: managers, or the assigned technician.
func (p PermissionChecker) CanCompleteWork(user *domain.User, req *domain.MaintenanceRequest) bool {
	return p.isManagerOrAssignee(user, req)
}

// CanScrapRequest: managers only.
func (p PermissionChecker) CanScrapRequest(user *domain.User, _ *domain.MaintenanceRequest) bool {
	return p.IsManager(user)
}

func (p PermissionChecker) isManagerOrAssignee(user *domain.User, req *domain.MaintenanceRequest) bool {
	if p.IsManager(user) {
		return true
	}
	if p.IsTechnician(user) {
		return req.IsAssignedTo(user.ID)
	}
	return false
}
