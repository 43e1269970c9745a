package workflow

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func strPtr(s string) *string { return &s }

type fixture struct {
	manager    *domain.User
	tech       *domain.User
	otherTech  *domain.User
	outsider   *domain.User
	plain      *domain.User
	team       *domain.MaintenanceTeam
	otherTeam  *domain.MaintenanceTeam
	equipment  *domain.Equipment
	newRequest func() *domain.MaintenanceRequest
}

func newFixture() fixture {
	team := &domain.MaintenanceTeam{ID: "team-mech", Name: "Mechanics", MemberIDs: []string{"u-tech", "u-tech2"}}
	otherTeam := &domain.MaintenanceTeam{ID: "team-it", Name: "IT Support", MemberIDs: []string{"u-outsider"}}
	equipment := &domain.Equipment{ID: "eq-1", Name: "CNC Machine 01", DefaultTeamID: strPtr(team.ID)}

	f := fixture{
		manager:   &domain.User{ID: "u-mgr", Name: "Morgan", IsManager: true},
		tech:      &domain.User{ID: "u-tech", Name: "Taylor", TeamIDs: []string{team.ID}},
		otherTech: &domain.User{ID: "u-tech2", Name: "Jordan", TeamIDs: []string{team.ID}},
		outsider:  &domain.User{ID: "u-outsider", Name: "Casey", TeamIDs: []string{otherTeam.ID}},
		plain:     &domain.User{ID: "u-plain", Name: "Riley"},
		team:      team,
		otherTeam: otherTeam,
		equipment: equipment,
	}
	f.newRequest = func() *domain.MaintenanceRequest {
		return &domain.MaintenanceRequest{
			ID:             "1",
			ExternalKey:    "MR-0001",
			Subject:        "Spindle vibration",
			Type:           domain.RequestTypeCorrective,
			Status:         domain.RequestStatusNew,
			EquipmentID:    equipment.ID,
			Equipment:      equipment,
			AssignedTeamID: strPtr(team.ID),
			AssignedTeam:   team,
			CreatedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		}
	}
	return f
}

func assignTo(req *domain.MaintenanceRequest, tech *domain.User) {
	req.AssignedTechnicianID = strPtr(tech.ID)
	req.AssignedTechnician = tech
}
