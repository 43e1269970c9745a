package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/workflow"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// TeamService manages maintenance teams and their membership.
type TeamService struct {
	teams       repository.TeamRepository
	users       repository.UserRepository
	cache       auth.PrincipalCache
	permissions workflow.PermissionChecker
	logger      *zap.Logger
}

// TeamDependencies bundles collaborators for the team service.
type TeamDependencies struct {
	TeamRepo       repository.TeamRepository
	UserRepo       repository.UserRepository
	PrincipalCache auth.PrincipalCache
	Logger         *zap.Logger
}

// NewTeamService constructs the service.
func NewTeamService(deps TeamDependencies) *TeamService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamService{
		teams:  deps.TeamRepo,
		users:  deps.UserRepo,
		cache:  deps.PrincipalCache,
		logger: logger,
	}
}

// Create adds a team. Managers only.
func (s *TeamService) Create(ctx context.Context, actor *domain.User, name, description string) (*domain.MaintenanceTeam, error) {
	if !s.permissions.IsManager(actor) {
		return nil, apperrors.NewPermissionDenied("only managers can create teams")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("team name is required", map[string]any{"field": "name"})
	}
	team := &domain.MaintenanceTeam{Name: name, Description: strings.TrimSpace(description), MemberIDs: []string{}}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// Get returns a team with its member ids.
func (s *TeamService) Get(ctx context.Context, id string) (*domain.MaintenanceTeam, error) {
	team, err := s.teams.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("team", id, err)
	}
	return team, nil
}

// List returns all teams.
func (s *TeamService) List(ctx context.Context) ([]domain.MaintenanceTeam, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return teams, nil
}

// AddMember puts a user on a team, which makes them a technician. Managers only.
func (s *TeamService) AddMember(ctx context.Context, actor *domain.User, teamID, userID string) (*domain.MaintenanceTeam, error) {
	if err := s.checkMembershipChange(ctx, actor, teamID, userID); err != nil {
		return nil, err
	}
	if err := s.teams.AddMember(ctx, teamID, userID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, userID)
	return s.Get(ctx, teamID)
}

// RemoveMember takes a user off a team. Managers only.
func (s *TeamService) RemoveMember(ctx context.Context, actor *domain.User, teamID, userID string) (*domain.MaintenanceTeam, error) {
	if err := s.checkMembershipChange(ctx, actor, teamID, userID); err != nil {
		return nil, err
	}
	if err := s.teams.RemoveMember(ctx, teamID, userID); err != nil {
		return nil, lookupError("team member", userID, err)
	}
	s.invalidate(ctx, userID)
	return s.Get(ctx, teamID)
}

func (s *TeamService) checkMembershipChange(ctx context.Context, actor *domain.User, teamID, userID string) error {
	if !s.permissions.IsManager(actor) {
		return apperrors.NewPermissionDenied("only managers can change team membership")
	}
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return lookupError("team", teamID, err)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return lookupError("user", userID, err)
	}
	return nil
}

func (s *TeamService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate principal cache", zap.String("user_id", userID), zap.Error(err))
	}
}
