package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/workflow"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

type requestEnv struct {
	svc        *RequestService
	requests   *fakeRequests
	history    *fakeHistory
	equipment  *fakeEquipment
	tx         *fakeTx
	dispatcher *recordingDispatcher

	manager, tech, tech2, outsider, plain *domain.User
	team                                  *domain.MaintenanceTeam
	cnc                                   *domain.Equipment
}

func newRequestEnv(t *testing.T) *requestEnv {
	t.Helper()

	team := &domain.MaintenanceTeam{ID: "team-mech", Name: "Mechanics", MemberIDs: []string{"u-tech", "u-tech2"}}
	other := &domain.MaintenanceTeam{ID: "team-it", Name: "IT", MemberIDs: []string{"u-out"}}
	env := &requestEnv{
		manager:  &domain.User{ID: "u-mgr", Name: "Morgan", IsManager: true, Active: true},
		tech:     &domain.User{ID: "u-tech", Name: "Taylor", TeamIDs: []string{team.ID}, Active: true},
		tech2:    &domain.User{ID: "u-tech2", Name: "Jordan", TeamIDs: []string{team.ID}, Active: true},
		outsider: &domain.User{ID: "u-out", Name: "Casey", TeamIDs: []string{other.ID}, Active: true},
		plain:    &domain.User{ID: "u-plain", Name: "Riley", Active: true},
		team:     team,
		cnc: &domain.Equipment{
			ID:                  "eq-cnc",
			Name:                "CNC Machine 01",
			DefaultTeamID:       strPtr(team.ID),
			DefaultTechnicianID: strPtr("u-tech"),
		},
	}
	env.requests = newFakeRequests()
	env.history = &fakeHistory{}
	env.equipment = newFakeEquipment(env.cnc)
	env.tx = &fakeTx{}
	env.dispatcher = &recordingDispatcher{}

	env.svc = NewRequestService(RequestDependencies{
		RequestRepo:   env.requests,
		HistoryRepo:   env.history,
		EquipmentRepo: env.equipment,
		TeamRepo:      newFakeTeams(team, other),
		UserRepo:      newFakeUsers(env.manager, env.tech, env.tech2, env.outsider, env.plain),
		TxManager:     env.tx,
		Engine:        workflow.NewEngine(),
		Dispatcher:    env.dispatcher,
		Metrics:       observability.NewMetrics(),
		Logger:        zap.NewNop(),
		KeyPrefix:     "MR",
	})
	return env
}

func (env *requestEnv) create(t *testing.T, actor *domain.User) *domain.MaintenanceRequest {
	t.Helper()
	req, err := env.svc.CreateRequest(context.Background(), actor, CreateRequestInput{
		Subject:     "Spindle vibration",
		Type:        domain.RequestTypeCorrective,
		EquipmentID: env.cnc.ID,
	})
	require.NoError(t, err)
	return req
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T", err)
	assert.Equal(t, code, de.Code)
}

func TestCreateRequest_AppliesEquipmentDefaults(t *testing.T) {
	env := newRequestEnv(t)

	req := env.create(t, env.plain)

	assert.Equal(t, "MR-0001", req.ExternalKey)
	assert.Equal(t, domain.RequestStatusNew, req.Status)
	require.NotNil(t, req.AssignedTeamID)
	assert.Equal(t, env.team.ID, *req.AssignedTeamID)
	require.NotNil(t, req.AssignedTechnicianID)
	assert.Equal(t, env.tech.ID, *req.AssignedTechnicianID)
	assert.Equal(t, env.plain.ID, *req.CreatedByID)

	require.Len(t, env.history.entries, 1)
	assert.Equal(t, domain.ChangeTypeCreated, env.history.entries[0].ChangeType)
	assert.Equal(t, []events.EventType{events.EventRequestCreated}, env.dispatcher.types())
}

func TestCreateRequest_SkipsTechnicianOutsideTeam(t *testing.T) {
	env := newRequestEnv(t)
	env.cnc.DefaultTechnicianID = strPtr(env.outsider.ID)

	req := env.create(t, env.manager)

	require.NotNil(t, req.AssignedTeamID)
	assert.Nil(t, req.AssignedTechnicianID)
}

func TestCreateRequest_Rejections(t *testing.T) {
	env := newRequestEnv(t)
	scrapped := &domain.Equipment{ID: "eq-old", Name: "Old Press", IsScrapped: true}
	env.equipment.byID[scrapped.ID] = scrapped
	scheduled := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		actor *domain.User
		input CreateRequestInput
		code  string
	}{
		{name: "empty subject", actor: env.manager, input: CreateRequestInput{Type: domain.RequestTypeCorrective, EquipmentID: env.cnc.ID}, code: "VALIDATION_FAILED"},
		{name: "unknown equipment", actor: env.manager, input: CreateRequestInput{Subject: "x", Type: domain.RequestTypeCorrective, EquipmentID: "eq-404"}, code: "NOT_FOUND"},
		{name: "no equipment", actor: env.manager, input: CreateRequestInput{Subject: "x", Type: domain.RequestTypeCorrective}, code: "MISSING_DATA"},
		{name: "scrapped equipment", actor: env.manager, input: CreateRequestInput{Subject: "x", Type: domain.RequestTypeCorrective, EquipmentID: scrapped.ID}, code: "MISSING_DATA"},
		{name: "preventive by technician", actor: env.tech, input: CreateRequestInput{Subject: "x", Type: domain.RequestTypePreventive, EquipmentID: env.cnc.ID, ScheduledDate: &scheduled}, code: "PERMISSION_DENIED"},
		{name: "preventive without date", actor: env.manager, input: CreateRequestInput{Subject: "x", Type: domain.RequestTypePreventive, EquipmentID: env.cnc.ID}, code: "MISSING_DATA"},
		{name: "unknown type", actor: env.manager, input: CreateRequestInput{Subject: "x", Type: "EMERGENCY", EquipmentID: env.cnc.ID}, code: "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateRequest(context.Background(), tt.actor, tt.input)
			requireCode(t, err, tt.code)
		})
	}
	assert.Empty(t, env.requests.byID)
	assert.Zero(t, env.tx.calls)
}

func TestRequestLifecycle(t *testing.T) {
	env := newRequestEnv(t)
	ctx := context.Background()
	env.cnc.DefaultTechnicianID = nil
	req := env.create(t, env.plain)

	_, err := env.svc.StartWork(ctx, env.tech, req.ID)
	requireCode(t, err, "MISSING_DATA")

	out, err := env.svc.AssignTechnician(ctx, env.manager, req.ID, env.tech.ID)
	require.NoError(t, err)
	assert.Equal(t, "Taylor", out.Result.Technician)

	_, err = env.svc.StartWork(ctx, env.tech2, req.ID)
	requireCode(t, err, "PERMISSION_DENIED")

	out, err = env.svc.StartWork(ctx, env.tech, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusInProgress, out.Request.Status)

	_, err = env.svc.CompleteWork(ctx, env.tech, req.ID, "")
	requireCode(t, err, "MISSING_DATA")

	out, err = env.svc.CompleteWork(ctx, env.tech, req.ID, "2.5")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRepaired, out.Request.Status)
	require.NotNil(t, env.requests.byID[req.ID].DurationHours)
	assert.InDelta(t, 2.5, *env.requests.byID[req.ID].DurationHours, 1e-9)

	_, err = env.svc.StartWork(ctx, env.tech, req.ID)
	requireCode(t, err, "INVALID_TRANSITION")

	_, err = env.svc.ScrapRequest(ctx, env.tech, req.ID)
	requireCode(t, err, "PERMISSION_DENIED")

	out, err = env.svc.ScrapRequest(ctx, env.manager, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusScrap, out.Request.Status)
	assert.True(t, out.Request.Equipment.IsScrapped)
	assert.True(t, env.equipment.byID[env.cnc.ID].IsScrapped)

	assert.Equal(t, []events.EventType{
		events.EventRequestCreated,
		events.EventRequestAssigned,
		events.EventRequestStatusChanged,
		events.EventRequestStatusChanged,
		events.EventRequestStatusChanged,
		events.EventEquipmentScrapped,
	}, env.dispatcher.types())

	history, err := env.svc.History(ctx, env.manager, req.ID)
	require.NoError(t, err)
	changeTypes := make([]domain.RequestChangeType, len(history))
	for i, h := range history {
		changeTypes[i] = h.ChangeType
	}
	assert.Equal(t, []domain.RequestChangeType{
		domain.ChangeTypeCreated,
		domain.ChangeTypeTechnician,
		domain.ChangeTypeStatus,
		domain.ChangeTypeStatus,
		domain.ChangeTypeStatus,
	}, changeTypes)

	_, err = env.svc.ScrapRequest(ctx, env.manager, req.ID)
	requireCode(t, err, "INVALID_TRANSITION")
}

func TestScrapRequest_EquipmentAlreadyScrappedEmitsNoSecondEvent(t *testing.T) {
	env := newRequestEnv(t)
	ctx := context.Background()
	first := env.create(t, env.manager)
	second := env.create(t, env.manager)

	_, err := env.svc.ScrapRequest(ctx, env.manager, first.ID)
	require.NoError(t, err)

	// second request was opened before the equipment was scrapped
	out, err := env.svc.ScrapRequest(ctx, env.manager, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusScrap, out.Request.Status)

	scrapEvents := 0
	for _, e := range env.dispatcher.published {
		if e.Type == events.EventEquipmentScrapped {
			scrapEvents++
		}
	}
	assert.Equal(t, 1, scrapEvents)
}

func TestAssignTechnician_Rejections(t *testing.T) {
	env := newRequestEnv(t)
	ctx := context.Background()
	req := env.create(t, env.plain)

	_, err := env.svc.AssignTechnician(ctx, env.outsider, req.ID, env.tech2.ID)
	requireCode(t, err, "PERMISSION_DENIED")

	_, err = env.svc.AssignTechnician(ctx, env.manager, req.ID, env.outsider.ID)
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = env.svc.AssignTechnician(ctx, env.manager, req.ID, "u-404")
	requireCode(t, err, "NOT_FOUND")

	_, err = env.svc.AssignTechnician(ctx, env.manager, "r-404", env.tech.ID)
	requireCode(t, err, "NOT_FOUND")

	assert.Equal(t, env.tech.ID, *env.requests.byID[req.ID].AssignedTechnicianID, "rejections leave the stored request untouched")
}

func TestTransition_ConcurrentUpdateIsConflict(t *testing.T) {
	env := newRequestEnv(t)
	req := env.create(t, env.plain)
	env.requests.staleOnce = true

	_, err := env.svc.StartWork(context.Background(), env.tech, req.ID)
	requireCode(t, err, "CONFLICT")
	assert.Equal(t, domain.RequestStatusNew, env.requests.byID[req.ID].Status)
	assert.Len(t, env.history.entries, 1, "history is only written by the create")
}

func TestList_ScopesByRole(t *testing.T) {
	env := newRequestEnv(t)
	ctx := context.Background()
	env.create(t, env.plain)

	_, _, err := env.svc.List(ctx, env.manager, ListRequestsFilter{})
	require.NoError(t, err)
	assert.Nil(t, env.requests.lastFilter.Scope)
	assert.Nil(t, env.requests.lastFilter.CreatedByID)

	_, _, err = env.svc.List(ctx, env.tech, ListRequestsFilter{})
	require.NoError(t, err)
	require.NotNil(t, env.requests.lastFilter.Scope)
	assert.Equal(t, env.tech.ID, env.requests.lastFilter.Scope.TechnicianID)
	assert.Equal(t, env.tech.TeamIDs, env.requests.lastFilter.Scope.TeamIDs)

	items, total, err := env.svc.List(ctx, env.plain, ListRequestsFilter{Statuses: []domain.RequestStatus{domain.RequestStatusNew}})
	require.NoError(t, err)
	require.NotNil(t, env.requests.lastFilter.CreatedByID)
	assert.Equal(t, env.plain.ID, *env.requests.lastFilter.CreatedByID)
	assert.Equal(t, []domain.RequestStatus{domain.RequestStatusNew}, env.requests.lastFilter.Statuses)
	require.Len(t, items, 1)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "CNC Machine 01", items[0].Equipment.Name)
	assert.Equal(t, "Mechanics", items[0].AssignedTeam.Name)
}

func TestList_TechnicianSeesOwnRequestOnOtherTeam(t *testing.T) {
	env := newRequestEnv(t)
	ctx := context.Background()
	req := env.create(t, env.outsider)
	require.NotNil(t, req.AssignedTeamID)
	require.NotContains(t, env.outsider.TeamIDs, *req.AssignedTeamID)

	_, err := env.svc.Detail(ctx, env.outsider, req.ID)
	require.NoError(t, err)

	_, _, err = env.svc.List(ctx, env.outsider, ListRequestsFilter{})
	require.NoError(t, err)
	scope := env.requests.lastFilter.Scope
	require.NotNil(t, scope)
	assert.Equal(t, env.outsider.ID, scope.TechnicianID)
	assert.Nil(t, env.requests.lastFilter.CreatedByID)
}

func TestDetail_VisibilityAndActions(t *testing.T) {
	env := newRequestEnv(t)
	ctx := context.Background()
	req := env.create(t, env.plain)

	detail, err := env.svc.Detail(ctx, env.tech, req.ID)
	require.NoError(t, err)
	assert.True(t, detail.Actions.CanStart)
	assert.False(t, detail.Actions.CanScrap)
	assert.Equal(t, []domain.RequestStatus{domain.RequestStatusInProgress, domain.RequestStatusScrap}, detail.State.ValidNextTransitions)

	_, err = env.svc.Detail(ctx, env.outsider, req.ID)
	requireCode(t, err, "PERMISSION_DENIED")

	other := &domain.User{ID: "u-other", Active: true}
	_, err = env.svc.AvailableActions(ctx, other, req.ID)
	requireCode(t, err, "PERMISSION_DENIED")

	actions, err := env.svc.AvailableActions(ctx, env.manager, req.ID)
	require.NoError(t, err)
	assert.True(t, actions.CanScrap)

	state, err := env.svc.WorkflowState(ctx, env.plain, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "CNC Machine 01", state.Equipment)
}

func TestTranslateWorkflowError(t *testing.T) {
	err := workflow.ValidateTransition(domain.RequestStatusScrap, domain.RequestStatusNew)
	de := apperrors.ToDomainError(translateWorkflowError(err))
	assert.Equal(t, "INVALID_TRANSITION", de.Code)
	assert.Equal(t, 400, de.HTTPStatus)
	assert.Equal(t, "SCRAP", de.Details["from"])
	assert.Equal(t, []string{}, de.Details["allowed"])

	de = apperrors.ToDomainError(translateWorkflowError(errors.New("db down")))
	assert.Equal(t, "INTERNAL_ERROR", de.Code)
}
