package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/workflow"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// Workflow operation names used in events, metrics and logs.
const (
	OpAssignTechnician = "assign_technician"
	OpStartWork        = "start_work"
	OpCompleteWork     = "complete_work"
	OpScrapRequest     = "scrap_request"
	OpCreateRequest    = "create_request"
)

// RequestService coordinates maintenance request workflows.
type RequestService struct {
	requests  repository.RequestRepository
	history   repository.RequestHistoryRepository
	equipment repository.EquipmentRepository
	teams     repository.TeamRepository
	users     repository.UserRepository
	tx        repository.TxManager
	engine    *workflow.Engine

	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	keyPrefix  string
	pageSize   int
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	RequestRepo   repository.RequestRepository
	HistoryRepo   repository.RequestHistoryRepository
	EquipmentRepo repository.EquipmentRepository
	TeamRepo      repository.TeamRepository
	UserRepo      repository.UserRepository
	TxManager     repository.TxManager
	Engine        *workflow.Engine
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	KeyPrefix     string
	PageSize      int
}

// CreateRequestInput describes request creation payload.
type CreateRequestInput struct {
	Subject       string
	Type          domain.RequestType
	EquipmentID   string
	TeamID        *string
	ScheduledDate *time.Time
	DueDate       *time.Time
}

// ListRequestsFilter describes listing filters. Role scoping is applied on top.
type ListRequestsFilter struct {
	EquipmentID  *string
	TeamID       *string
	TechnicianID *string
	Statuses     []domain.RequestStatus
	Types        []domain.RequestType
	Limit        int
	Offset       int
}

// WorkflowOutcome is returned by every lifecycle operation.
type WorkflowOutcome struct {
	Result  workflow.Result
	Request *domain.MaintenanceRequest
}

// RequestDetail bundles a request with its lifecycle snapshot and the caller's options.
type RequestDetail struct {
	Request *domain.MaintenanceRequest
	State   workflow.State
	Actions workflow.Actions
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := deps.Engine
	if engine == nil {
		engine = workflow.NewEngine()
	}
	prefix := deps.KeyPrefix
	if prefix == "" {
		prefix = "MR"
	}
	return &RequestService{
		requests:   deps.RequestRepo,
		history:    deps.HistoryRepo,
		equipment:  deps.EquipmentRepo,
		teams:      deps.TeamRepo,
		users:      deps.UserRepo,
		tx:         deps.TxManager,
		engine:     engine,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		keyPrefix:  prefix,
		pageSize:   deps.PageSize,
	}
}

// CreateRequest validates and stores a new request, filling team and technician from the equipment.
func (s *RequestService) CreateRequest(ctx context.Context, actor *domain.User, input CreateRequestInput) (*domain.MaintenanceRequest, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject is required", map[string]any{"field": "subject"})
	}

	var equipment *domain.Equipment
	if input.EquipmentID != "" {
		loaded, err := s.equipment.GetByID(ctx, input.EquipmentID)
		if err != nil {
			return nil, lookupError("equipment", input.EquipmentID, err)
		}
		equipment = loaded
	}

	if _, err := s.engine.ValidateCreation(input.Type, actor, input.ScheduledDate, equipment); err != nil {
		s.metrics.RecordWorkflowFailure(OpCreateRequest, string(workflow.KindOf(err)))
		return nil, translateWorkflowError(err)
	}

	req := &domain.MaintenanceRequest{
		Subject:       subject,
		Type:          input.Type,
		Status:        domain.RequestStatusNew,
		EquipmentID:   equipment.ID,
		Equipment:     equipment,
		CreatedByID:   actorID(actor.ID),
		CreatedBy:     actor,
		ScheduledDate: input.ScheduledDate,
		DueDate:       input.DueDate,
	}

	if input.TeamID != nil {
		req.AssignedTeamID = input.TeamID
	} else {
		req.ApplyEquipmentDefaults(nil)
	}
	if req.AssignedTeamID != nil {
		team, err := s.teams.GetByID(ctx, *req.AssignedTeamID)
		if err != nil {
			return nil, lookupError("team", *req.AssignedTeamID, err)
		}
		req.AssignedTeam = team
	}
	if err := s.applyDefaultTechnician(ctx, req); err != nil {
		return nil, err
	}

	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.requests.WithTx(tx).Create(ctx, req, s.keyPrefix); err != nil {
			return err
		}
		return s.history.WithTx(tx).Create(ctx, &domain.RequestHistory{
			RequestID:   req.ID,
			ChangedByID: actorID(actor.ID),
			ChangeType:  domain.ChangeTypeCreated,
			NewValue: map[string]any{
				"status":                 string(req.Status),
				"type":                   string(req.Type),
				"assigned_team_id":       req.AssignedTeamID,
				"assigned_technician_id": req.AssignedTechnicianID,
			},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: req.ID,
		ActorID:   actor.ID,
		Payload: events.RequestCreatedPayload{
			ExternalKey:          req.ExternalKey,
			Type:                 req.Type,
			EquipmentID:          req.EquipmentID,
			AssignedTeamID:       req.AssignedTeamID,
			AssignedTechnicianID: req.AssignedTechnicianID,
		},
	})
	return req, nil
}

// applyDefaultTechnician copies the equipment's default technician when they belong to the request's team.
func (s *RequestService) applyDefaultTechnician(ctx context.Context, req *domain.MaintenanceRequest) error {
	eq := req.Equipment
	if eq == nil || eq.DefaultTechnicianID == nil || req.AssignedTeam == nil {
		return nil
	}
	if !req.AssignedTeam.HasMember(*eq.DefaultTechnicianID) {
		return nil
	}
	tech, err := s.users.GetByID(ctx, *eq.DefaultTechnicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}
	techID := tech.ID
	req.AssignedTechnicianID = &techID
	req.AssignedTechnician = tech
	return nil
}

// Get returns a request visible to actor.
func (s *RequestService) Get(ctx context.Context, actor *domain.User, id string) (*domain.MaintenanceRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, req) {
		return nil, apperrors.NewPermissionDenied("you are not allowed to view this request")
	}
	return req, nil
}

// Detail returns the request with its workflow state and the actions available to actor.
func (s *RequestService) Detail(ctx context.Context, actor *domain.User, id string) (*RequestDetail, error) {
	req, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &RequestDetail{
		Request: req,
		State:   s.engine.WorkflowState(req),
		Actions: s.engine.AvailableActions(req, actor),
	}, nil
}

// AvailableActions tells actor which operations apply to the request right now.
func (s *RequestService) AvailableActions(ctx context.Context, actor *domain.User, id string) (workflow.Actions, error) {
	req, err := s.Get(ctx, actor, id)
	if err != nil {
		return workflow.Actions{}, err
	}
	return s.engine.AvailableActions(req, actor), nil
}

// WorkflowState returns a read-only lifecycle snapshot.
func (s *RequestService) WorkflowState(ctx context.Context, actor *domain.User, id string) (workflow.State, error) {
	req, err := s.Get(ctx, actor, id)
	if err != nil {
		return workflow.State{}, err
	}
	return s.engine.WorkflowState(req), nil
}

// History lists the audit trail of a request, oldest first.
func (s *RequestService) History(ctx context.Context, actor *domain.User, id string) ([]domain.RequestHistory, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByRequest(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// List returns requests scoped to what actor may see: managers see all,
// technicians see requests they created, are assigned to, or their teams own,
// users see what they created.
func (s *RequestService) List(ctx context.Context, actor *domain.User, filter ListRequestsFilter) ([]domain.MaintenanceRequest, uint64, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = s.pageSize
	}
	repoFilter := repository.RequestFilter{
		EquipmentID:  filter.EquipmentID,
		TeamID:       filter.TeamID,
		TechnicianID: filter.TechnicianID,
		Statuses:     filter.Statuses,
		Types:        filter.Types,
		Limit:        limit,
		Offset:       filter.Offset,
	}
	switch workflow.RoleOf(actor) {
	case workflow.RoleManager:
	case workflow.RoleTechnician:
		repoFilter.Scope = &repository.RequestScope{TechnicianID: actor.ID, TeamIDs: actor.TeamIDs}
	default:
		repoFilter.CreatedByID = actorID(actor.ID)
	}

	items, total, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	h := newHydrator(s)
	for i := range items {
		if err := h.hydrate(ctx, &items[i]); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

// AssignTechnician sets the technician on a request.
func (s *RequestService) AssignTechnician(ctx context.Context, actor *domain.User, requestID, technicianID string) (*WorkflowOutcome, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	var technician *domain.User
	if technicianID != "" {
		technician, err = s.users.GetByID(ctx, technicianID)
		if err != nil {
			return nil, lookupError("technician", technicianID, err)
		}
	}

	expected := req.Status
	previous := req.AssignedTechnicianID
	result, err := s.engine.AssignTechnician(req, technician, actor)
	if err != nil {
		return nil, s.rejected(OpAssignTechnician, req, actor, err)
	}

	entry := &domain.RequestHistory{
		RequestID:   req.ID,
		ChangedByID: actorID(actor.ID),
		ChangeType:  domain.ChangeTypeTechnician,
		OldValue:    map[string]any{"assigned_technician_id": previous},
		NewValue:    map[string]any{"assigned_technician_id": req.AssignedTechnicianID},
	}
	if err := s.persist(ctx, req, expected, entry, nil); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventRequestAssigned,
		RequestID: req.ID,
		ActorID:   actor.ID,
		Payload: events.RequestAssignedPayload{
			PreviousTechnicianID: previous,
			TechnicianID:         technician.ID,
			TeamID:               req.AssignedTeamID,
			Status:               req.Status,
		},
	})
	return &WorkflowOutcome{Result: result, Request: req}, nil
}

// StartWork moves a request into IN_PROGRESS.
func (s *RequestService) StartWork(ctx context.Context, actor *domain.User, requestID string) (*WorkflowOutcome, error) {
	return s.transition(ctx, actor, requestID, OpStartWork, func(req *domain.MaintenanceRequest) (workflow.Result, error) {
		return s.engine.StartWork(req, actor)
	})
}

// CompleteWork moves a request into REPAIRED with the hours spent.
func (s *RequestService) CompleteWork(ctx context.Context, actor *domain.User, requestID, durationHours string) (*WorkflowOutcome, error) {
	return s.transition(ctx, actor, requestID, OpCompleteWork, func(req *domain.MaintenanceRequest) (workflow.Result, error) {
		return s.engine.CompleteWork(req, durationHours, actor)
	})
}

// ScrapRequest moves a request into SCRAP and takes its equipment out of service.
func (s *RequestService) ScrapRequest(ctx context.Context, actor *domain.User, requestID string) (*WorkflowOutcome, error) {
	return s.transition(ctx, actor, requestID, OpScrapRequest, func(req *domain.MaintenanceRequest) (workflow.Result, error) {
		return s.engine.ScrapRequest(req, actor)
	})
}

func (s *RequestService) transition(ctx context.Context, actor *domain.User, requestID, op string, apply func(*domain.MaintenanceRequest) (workflow.Result, error)) (*WorkflowOutcome, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	from := req.Status
	result, err := apply(req)
	if err != nil {
		return nil, s.rejected(op, req, actor, err)
	}

	newValue := map[string]any{"status": string(req.Status)}
	if req.DurationHours != nil && op == OpCompleteWork {
		newValue["duration_hours"] = *req.DurationHours
	}
	entry := &domain.RequestHistory{
		RequestID:   req.ID,
		ChangedByID: actorID(actor.ID),
		ChangeType:  domain.ChangeTypeStatus,
		OldValue:    map[string]any{"status": string(from)},
		NewValue:    newValue,
	}

	scrapped := false
	var afterUpdate func(tx pgx.Tx) error
	if op == OpScrapRequest {
		afterUpdate = func(tx pgx.Tx) error {
			changed, err := s.equipment.WithTx(tx).MarkScrapped(ctx, req.EquipmentID)
			if err != nil {
				return err
			}
			scrapped = changed
			return nil
		}
	}
	if err := s.persist(ctx, req, from, entry, afterUpdate); err != nil {
		return nil, err
	}
	if scrapped && req.Equipment != nil {
		req.Equipment.MarkScrapped()
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventRequestStatusChanged,
		RequestID: req.ID,
		ActorID:   actor.ID,
		Payload: events.RequestStatusChangedPayload{
			Operation:     op,
			OldStatus:     from,
			NewStatus:     req.Status,
			DurationHours: result.Duration,
		},
	})
	if scrapped {
		payload := events.EquipmentScrappedPayload{EquipmentID: req.EquipmentID}
		if req.Equipment != nil {
			payload.EquipmentName = req.Equipment.Name
		}
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:      events.EventEquipmentScrapped,
			RequestID: req.ID,
			ActorID:   actor.ID,
			Payload:   payload,
		})
	}
	return &WorkflowOutcome{Result: result, Request: req}, nil
}

// persist writes the request conditionally on its previous status together with
// the history entry and any extra work in one transaction.
func (s *RequestService) persist(ctx context.Context, req *domain.MaintenanceRequest, expected domain.RequestStatus, entry *domain.RequestHistory, afterUpdate func(tx pgx.Tx) error) error {
	err := s.tx.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.requests.WithTx(tx).UpdateIfStatus(ctx, req, expected); err != nil {
			return err
		}
		if err := s.history.WithTx(tx).Create(ctx, entry); err != nil {
			return err
		}
		if afterUpdate != nil {
			return afterUpdate(tx)
		}
		return nil
	})
	if err != nil {
		return persistError(req.ID, err)
	}
	return nil
}

func (s *RequestService) rejected(op string, req *domain.MaintenanceRequest, actor *domain.User, err error) error {
	kind := workflow.KindOf(err)
	s.metrics.RecordWorkflowFailure(op, string(kind))
	s.logger.Info("workflow operation rejected",
		zap.String("operation", op),
		zap.String("request_id", req.ID),
		zap.String("actor_id", actor.ID),
		zap.String("kind", string(kind)),
		zap.String("reason", err.Error()),
	)
	return translateWorkflowError(err)
}

func (s *RequestService) load(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("request", id, err)
	}
	if err := newHydrator(s).hydrate(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// canView mirrors the list scoping for single-record reads.
func canView(actor *domain.User, req *domain.MaintenanceRequest) bool {
	if actor == nil {
		return false
	}
	switch workflow.RoleOf(actor) {
	case workflow.RoleManager:
		return true
	case workflow.RoleTechnician:
		if req.IsAssignedTo(actor.ID) {
			return true
		}
		if req.AssignedTeamID != nil {
			for _, teamID := range actor.TeamIDs {
				if teamID == *req.AssignedTeamID {
					return true
				}
			}
		}
	}
	return req.CreatedByID != nil && *req.CreatedByID == actor.ID
}

// hydrator loads the related records of requests, memoising lookups within one call.
type hydrator struct {
	s         *RequestService
	equipment map[string]*domain.Equipment
	teams     map[string]*domain.MaintenanceTeam
	users     map[string]*domain.User
}

func newHydrator(s *RequestService) *hydrator {
	return &hydrator{
		s:         s,
		equipment: map[string]*domain.Equipment{},
		teams:     map[string]*domain.MaintenanceTeam{},
		users:     map[string]*domain.User{},
	}
}

func (h *hydrator) hydrate(ctx context.Context, req *domain.MaintenanceRequest) error {
	eq, ok := h.equipment[req.EquipmentID]
	if !ok {
		loaded, err := h.s.equipment.GetByID(ctx, req.EquipmentID)
		if err != nil {
			return lookupError("equipment", req.EquipmentID, err)
		}
		eq = loaded
		h.equipment[req.EquipmentID] = eq
	}
	req.Equipment = eq

	if req.AssignedTeamID != nil {
		team, ok := h.teams[*req.AssignedTeamID]
		if !ok {
			loaded, err := h.s.teams.GetByID(ctx, *req.AssignedTeamID)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return apperrors.MapError(err)
			}
			team = loaded
			h.teams[*req.AssignedTeamID] = team
		}
		req.AssignedTeam = team
	}

	var err error
	if req.AssignedTechnician, err = h.user(ctx, req.AssignedTechnicianID); err != nil {
		return err
	}
	if req.CreatedBy, err = h.user(ctx, req.CreatedByID); err != nil {
		return err
	}
	return nil
}

func (h *hydrator) user(ctx context.Context, id *string) (*domain.User, error) {
	if id == nil {
		return nil, nil
	}
	if u, ok := h.users[*id]; ok {
		return u, nil
	}
	u, err := h.s.users.GetByID(ctx, *id)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	h.users[*id] = u
	return u, nil
}
