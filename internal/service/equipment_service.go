package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/workflow"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// EquipmentService manages the equipment registry.
type EquipmentService struct {
	equipment   repository.EquipmentRepository
	teams       repository.TeamRepository
	users       repository.UserRepository
	permissions workflow.PermissionChecker
	now         func() time.Time
}

// EquipmentDependencies bundles repositories for equipment service.
type EquipmentDependencies struct {
	EquipmentRepo repository.EquipmentRepository
	TeamRepo      repository.TeamRepository
	UserRepo      repository.UserRepository
}

// CreateEquipmentInput describes equipment registration payload.
type CreateEquipmentInput struct {
	Name                string
	SerialNumber        string
	Department          string
	Location            string
	DefaultTeamID       *string
	DefaultTechnicianID *string
	PurchaseDate        time.Time
	WarrantyExpiresOn   *time.Time
}

// RequestDefaults are the values a new request form is pre-filled with.
type RequestDefaults struct {
	TeamID         *string
	TeamName       string
	TechnicianID   *string
	TechnicianName string
}

// EquipmentDetail is the equipment record enriched for display.
type EquipmentDetail struct {
	Equipment        *domain.Equipment
	OpenRequestCount int
	UnderWarranty    bool
	Defaults         RequestDefaults
}

// NewEquipmentService constructs the service.
func NewEquipmentService(deps EquipmentDependencies) *EquipmentService {
	return &EquipmentService{
		equipment: deps.EquipmentRepo,
		teams:     deps.TeamRepo,
		users:     deps.UserRepo,
		now:       time.Now,
	}
}

// Create registers equipment. Managers only.
func (s *EquipmentService) Create(ctx context.Context, actor *domain.User, input CreateEquipmentInput) (*domain.Equipment, error) {
	if !s.permissions.IsManager(actor) {
		return nil, apperrors.NewPermissionDenied("only managers can register equipment")
	}
	name := strings.TrimSpace(input.Name)
	serial := strings.TrimSpace(input.SerialNumber)
	if name == "" || serial == "" {
		return nil, apperrors.NewValidationError("name and serial number are required", nil)
	}
	if input.WarrantyExpiresOn != nil && input.WarrantyExpiresOn.Before(input.PurchaseDate) {
		return nil, apperrors.NewValidationError("warranty cannot expire before the purchase date", map[string]any{"field": "warranty_expires_on"})
	}

	var team *domain.MaintenanceTeam
	if input.DefaultTeamID != nil {
		loaded, err := s.teams.GetByID(ctx, *input.DefaultTeamID)
		if err != nil {
			return nil, lookupError("team", *input.DefaultTeamID, err)
		}
		team = loaded
	}
	if input.DefaultTechnicianID != nil {
		if _, err := s.users.GetByID(ctx, *input.DefaultTechnicianID); err != nil {
			return nil, lookupError("technician", *input.DefaultTechnicianID, err)
		}
		if team == nil {
			return nil, apperrors.NewValidationError("a default technician requires a default team", map[string]any{"field": "default_technician_id"})
		}
		if !team.HasMember(*input.DefaultTechnicianID) {
			return nil, apperrors.NewValidationError("default technician is not a member of the default team", map[string]any{"field": "default_technician_id"})
		}
	}

	equipment := &domain.Equipment{
		Name:                name,
		SerialNumber:        serial,
		Department:          strings.TrimSpace(input.Department),
		Location:            strings.TrimSpace(input.Location),
		DefaultTeamID:       input.DefaultTeamID,
		DefaultTechnicianID: input.DefaultTechnicianID,
		PurchaseDate:        input.PurchaseDate,
		WarrantyExpiresOn:   input.WarrantyExpiresOn,
	}
	if err := s.equipment.Create(ctx, equipment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return equipment, nil
}

// Get returns equipment with its open request count, warranty flag and request defaults.
func (s *EquipmentService) Get(ctx context.Context, id string) (*EquipmentDetail, error) {
	equipment, err := s.equipment.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("equipment", id, err)
	}
	open, err := s.equipment.CountOpenRequests(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	detail := &EquipmentDetail{
		Equipment:        equipment,
		OpenRequestCount: open,
		UnderWarranty:    equipment.UnderWarranty(s.now()),
	}
	if err := s.fillDefaults(ctx, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// fillDefaults mirrors the autofill applied when a request is created.
func (s *EquipmentService) fillDefaults(ctx context.Context, detail *EquipmentDetail) error {
	eq := detail.Equipment
	if eq.DefaultTeamID == nil {
		return nil
	}
	team, err := s.teams.GetByID(ctx, *eq.DefaultTeamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}
	detail.Defaults.TeamID = eq.DefaultTeamID
	detail.Defaults.TeamName = team.Name

	if eq.DefaultTechnicianID == nil || !team.HasMember(*eq.DefaultTechnicianID) {
		return nil
	}
	tech, err := s.users.GetByID(ctx, *eq.DefaultTechnicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}
	detail.Defaults.TechnicianID = eq.DefaultTechnicianID
	detail.Defaults.TechnicianName = tech.DisplayName()
	return nil
}

// List returns equipment, hiding scrapped items unless asked.
func (s *EquipmentService) List(ctx context.Context, filter repository.EquipmentFilter) ([]domain.Equipment, error) {
	items, err := s.equipment.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}
