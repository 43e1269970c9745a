package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// EquipmentHandler exposes the equipment registry.
type EquipmentHandler struct {
	equipment *service.EquipmentService
	requests  RequestWorkflow
	pageSize  int
}

// NewEquipmentHandler constructs handler.
func NewEquipmentHandler(equipmentService *service.EquipmentService, requests RequestWorkflow, pageSize int) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipmentService, requests: requests, pageSize: pageSize}
}

// Create POST /equipment.
func (h *EquipmentHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateEquipmentRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	eq, err := h.equipment.Create(c.UserContext(), user, service.CreateEquipmentInput{
		Name:                req.Name,
		SerialNumber:        req.SerialNumber,
		Department:          req.Department,
		Location:            req.Location,
		DefaultTeamID:       req.DefaultTeamID,
		DefaultTechnicianID: req.DefaultTechnicianID,
		PurchaseDate:        req.PurchaseDate,
		WarrantyExpiresOn:   req.WarrantyExpiresOn,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": equipmentResponse(eq)})
}

// List GET /equipment.
func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	filter := repository.EquipmentFilter{
		TeamID:          optionalQuery(c, "team_id"),
		Department:      optionalQuery(c, "department"),
		IncludeScrapped: c.QueryBool("include_scrapped", false),
		Limit:           parseInt(c.Query("limit"), h.pageSize),
		Offset:          parseInt(c.Query("offset"), 0),
	}
	items, err := h.equipment.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	data := make([]dto.EquipmentResponse, 0, len(items))
	for i := range items {
		data = append(data, equipmentResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": data})
}

// Get GET /equipment/:id.
func (h *EquipmentHandler) Get(c *fiber.Ctx) error {
	detail, err := h.equipment.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EquipmentDetailResponse{
		EquipmentResponse: equipmentResponse(detail.Equipment),
		OpenRequestCount:  detail.OpenRequestCount,
		UnderWarranty:     detail.UnderWarranty,
		RequestDefaults: dto.RequestDefaultsBlock{
			TeamID:         detail.Defaults.TeamID,
			TeamName:       detail.Defaults.TeamName,
			TechnicianID:   detail.Defaults.TechnicianID,
			TechnicianName: detail.Defaults.TechnicianName,
		},
	}})
}

// Requests GET /equipment/:id/requests lists the caller-visible requests raised against the equipment.
func (h *EquipmentHandler) Requests(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	detail, err := h.equipment.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	equipmentID := detail.Equipment.ID
	filter := service.ListRequestsFilter{
		EquipmentID: &equipmentID,
		Limit:       parseInt(c.Query("limit"), h.pageSize),
		Offset:      parseInt(c.Query("offset"), 0),
	}
	items, total, err := h.requests.List(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	now := time.Now()
	data := make([]dto.RequestSummary, 0, len(items))
	for i := range items {
		data = append(data, requestSummary(&items[i], now))
	}
	return c.JSON(fiber.Map{
		"data": data,
		"meta": dto.ListMeta{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	})
}
