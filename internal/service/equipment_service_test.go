package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

func newEquipmentEnv() (*EquipmentService, *fakeEquipment) {
	team := &domain.MaintenanceTeam{ID: "team-mech", Name: "Mechanics", MemberIDs: []string{"u-tech"}}
	equipment := newFakeEquipment()
	svc := NewEquipmentService(EquipmentDependencies{
		EquipmentRepo: equipment,
		TeamRepo:      newFakeTeams(team),
		UserRepo: newFakeUsers(
			&domain.User{ID: "u-tech", Name: "Taylor", TeamIDs: []string{team.ID}},
			&domain.User{ID: "u-plain", Name: "Riley"},
		),
	})
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc, equipment
}

func TestEquipmentService_Create(t *testing.T) {
	svc, repo := newEquipmentEnv()
	manager := &domain.User{ID: "u-mgr", IsManager: true}
	purchased := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expires := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	eq, err := svc.Create(context.Background(), manager, CreateEquipmentInput{
		Name:                " CNC Machine 01 ",
		SerialNumber:        "SN-1",
		DefaultTeamID:       strPtr("team-mech"),
		DefaultTechnicianID: strPtr("u-tech"),
		PurchaseDate:        purchased,
		WarrantyExpiresOn:   &expires,
	})
	require.NoError(t, err)
	assert.Equal(t, "CNC Machine 01", eq.Name)
	assert.Len(t, repo.created, 1)

	repo.openCount[eq.ID] = 3
	detail, err := svc.Get(context.Background(), eq.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.OpenRequestCount)
	assert.True(t, detail.UnderWarranty, "warranty is valid through its expiry day")
	assert.Equal(t, "Mechanics", detail.Defaults.TeamName)
	assert.Equal(t, "Taylor", detail.Defaults.TechnicianName)
}

func TestEquipmentService_CreateRejections(t *testing.T) {
	svc, repo := newEquipmentEnv()
	manager := &domain.User{ID: "u-mgr", IsManager: true}
	purchased := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	early := purchased.AddDate(0, -1, 0)

	tests := []struct {
		name  string
		actor *domain.User
		input CreateEquipmentInput
		code  string
	}{
		{name: "not a manager", actor: &domain.User{ID: "u-tech", TeamIDs: []string{"team-mech"}}, input: CreateEquipmentInput{Name: "x", SerialNumber: "y"}, code: "PERMISSION_DENIED"},
		{name: "missing serial", actor: manager, input: CreateEquipmentInput{Name: "x"}, code: "VALIDATION_FAILED"},
		{name: "warranty before purchase", actor: manager, input: CreateEquipmentInput{Name: "x", SerialNumber: "y", PurchaseDate: purchased, WarrantyExpiresOn: &early}, code: "VALIDATION_FAILED"},
		{name: "unknown team", actor: manager, input: CreateEquipmentInput{Name: "x", SerialNumber: "y", DefaultTeamID: strPtr("team-404")}, code: "NOT_FOUND"},
		{name: "technician without team", actor: manager, input: CreateEquipmentInput{Name: "x", SerialNumber: "y", DefaultTechnicianID: strPtr("u-tech")}, code: "VALIDATION_FAILED"},
		{name: "technician outside team", actor: manager, input: CreateEquipmentInput{Name: "x", SerialNumber: "y", DefaultTeamID: strPtr("team-mech"), DefaultTechnicianID: strPtr("u-plain")}, code: "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.actor, tt.input)
			requireCode(t, err, tt.code)
		})
	}
	assert.Empty(t, repo.created)
}

func TestEquipmentService_ListHidesScrapped(t *testing.T) {
	svc, repo := newEquipmentEnv()
	repo.byID["eq-1"] = &domain.Equipment{ID: "eq-1", Name: "Lathe"}
	repo.byID["eq-2"] = &domain.Equipment{ID: "eq-2", Name: "Press", IsScrapped: true}

	items, err := svc.List(context.Background(), repository.EquipmentFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Lathe", items[0].Name)

	items, err = svc.List(context.Background(), repository.EquipmentFilter{IncludeScrapped: true})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = svc.Get(context.Background(), "eq-404")
	requireCode(t, err, "NOT_FOUND")
}
