package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/service"
	"github.com/spec-kit/maintenance-service/internal/workflow"
)

// RequestWorkflow is the request service surface used over HTTP.
type RequestWorkflow interface {
	CreateRequest(ctx context.Context, actor *domain.User, input service.CreateRequestInput) (*domain.MaintenanceRequest, error)
	List(ctx context.Context, actor *domain.User, filter service.ListRequestsFilter) ([]domain.MaintenanceRequest, uint64, error)
	Detail(ctx context.Context, actor *domain.User, id string) (*service.RequestDetail, error)
	AvailableActions(ctx context.Context, actor *domain.User, id string) (workflow.Actions, error)
	History(ctx context.Context, actor *domain.User, id string) ([]domain.RequestHistory, error)
	AssignTechnician(ctx context.Context, actor *domain.User, requestID, technicianID string) (*service.WorkflowOutcome, error)
	StartWork(ctx context.Context, actor *domain.User, requestID string) (*service.WorkflowOutcome, error)
	CompleteWork(ctx context.Context, actor *domain.User, requestID, durationHours string) (*service.WorkflowOutcome, error)
	ScrapRequest(ctx context.Context, actor *domain.User, requestID string) (*service.WorkflowOutcome, error)
}

// RequestsHandler exposes maintenance request endpoints.
type RequestsHandler struct {
	service  RequestWorkflow
	pageSize int
	now      func() time.Time
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService RequestWorkflow, pageSize int) *RequestsHandler {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &RequestsHandler{service: requestService, pageSize: pageSize, now: time.Now}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequestRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	created, err := h.service.CreateRequest(c.UserContext(), user, service.CreateRequestInput{
		Subject:       req.Subject,
		Type:          req.Type,
		EquipmentID:   req.EquipmentID,
		TeamID:        req.TeamID,
		ScheduledDate: req.ScheduledDate,
		DueDate:       req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestSummary(created, h.now())})
}

// List GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	filter := h.parseListQuery(c)
	items, total, err := h.service.List(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	now := h.now()
	data := make([]dto.RequestSummary, 0, len(items))
	for i := range items {
		data = append(data, requestSummary(&items[i], now))
	}
	return c.JSON(fiber.Map{
		"data": data,
		"meta": dto.ListMeta{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	detail, err := h.service.Detail(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RequestDetailResponse{
		Request: requestSummary(detail.Request, h.now()),
		State:   workflowState(detail.State),
		Actions: actionsResponse(detail.Actions),
	}})
}

// Actions GET /requests/:id/actions.
func (h *RequestsHandler) Actions(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	actions, err := h.service.AvailableActions(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": actionsResponse(actions)})
}

// History GET /requests/:id/history.
func (h *RequestsHandler) History(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// Assign POST /requests/:id/assign.
func (h *RequestsHandler) Assign(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AssignTechnicianRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	out, err := h.service.AssignTechnician(c.UserContext(), user, c.Params("id"), req.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workflowResult(out, h.now())})
}

// Start POST /requests/:id/start.
func (h *RequestsHandler) Start(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	out, err := h.service.StartWork(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workflowResult(out, h.now())})
}

// Complete POST /requests/:id/complete.
func (h *RequestsHandler) Complete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CompleteWorkRequest
	if len(c.Body()) > 0 {
		if err := bindJSON(c, &req); err != nil {
			return err
		}
	}
	out, err := h.service.CompleteWork(c.UserContext(), user, c.Params("id"), req.DurationText())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workflowResult(out, h.now())})
}

// Scrap POST /requests/:id/scrap.
func (h *RequestsHandler) Scrap(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	out, err := h.service.ScrapRequest(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workflowResult(out, h.now())})
}

// Transitions GET /transitions.
func (h *RequestsHandler) Transitions(c *fiber.Ctx) error {
	table := workflow.Transitions()
	data := make(map[string][]domain.RequestStatus, len(table))
	for from, to := range table {
		if to == nil {
			to = []domain.RequestStatus{}
		}
		data[string(from)] = to
	}
	return c.JSON(fiber.Map{"data": data})
}

func (h *RequestsHandler) parseListQuery(c *fiber.Ctx) service.ListRequestsFilter {
	filter := service.ListRequestsFilter{
		EquipmentID:  optionalQuery(c, "equipment_id"),
		TeamID:       optionalQuery(c, "team_id"),
		TechnicianID: optionalQuery(c, "technician_id"),
		Limit:        parseInt(c.Query("limit"), h.pageSize),
		Offset:       parseInt(c.Query("offset"), 0),
	}
	for _, s := range parseList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.RequestStatus(s))
	}
	for _, t := range parseList(c.Query("type")) {
		filter.Types = append(filter.Types, domain.RequestType(t))
	}
	return filter
}
