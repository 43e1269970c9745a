package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// TeamsHandler exposes maintenance team endpoints.
type TeamsHandler struct {
	teams *service.TeamService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teamService *service.TeamService) *TeamsHandler {
	return &TeamsHandler{teams: teamService}
}

// Create POST /teams.
func (h *TeamsHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTeamRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	team, err := h.teams.Create(c.UserContext(), user, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": teamResponse(team)})
}

// List GET /teams.
func (h *TeamsHandler) List(c *fiber.Ctx) error {
	teams, err := h.teams.List(c.UserContext())
	if err != nil {
		return err
	}
	data := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		data = append(data, teamResponse(&teams[i]))
	}
	return c.JSON(fiber.Map{"data": data})
}

// Get GET /teams/:id.
func (h *TeamsHandler) Get(c *fiber.Ctx) error {
	team, err := h.teams.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team)})
}

// AddMember POST /teams/:id/members.
func (h *TeamsHandler) AddMember(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AddMemberRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	team, err := h.teams.AddMember(c.UserContext(), user, c.Params("id"), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team)})
}

// RemoveMember DELETE /teams/:id/members/:userID.
func (h *TeamsHandler) RemoveMember(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	team, err := h.teams.RemoveMember(c.UserContext(), user, c.Params("id"), c.Params("userID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team)})
}
