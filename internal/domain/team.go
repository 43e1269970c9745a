package domain

import "time"

// MaintenanceTeam is a group of technicians eligible for assignment.
type MaintenanceTeam struct {
	ID          string
	Name        string
	Description string
	MemberIDs   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasMember reports whether the user belongs to the team.
func (t *MaintenanceTeam) HasMember(userID string) bool {
	if t == nil || userID == "" {
		return false
	}
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
