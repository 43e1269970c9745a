package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/domain"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// UserLoader resolves a user by id.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and loads the acting user.
type AuthMiddleware struct {
	tokens *TokenManager
	users  UserLoader
	cache  PrincipalCache
}

// NewAuthMiddleware constructs middleware. cache may be nil.
func NewAuthMiddleware(tokens *TokenManager, users UserLoader, cache PrincipalCache) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, cache: cache}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.resolve(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	if !user.Active {
		return apperrors.NewUnauthorized("account disabled")
	}

	c.Locals(principalKey, user)
	return c.Next()
}

func (m *AuthMiddleware) resolve(ctx context.Context, userID string) (*domain.User, error) {
	if m.cache != nil {
		if user, ok := m.cache.Get(ctx, userID); ok {
			return user, nil
		}
	}
	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	if m.cache != nil {
		m.cache.Set(ctx, user)
	}
	return user, nil
}

// PrincipalFromContext retrieves the authenticated user.
func PrincipalFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok && user != nil
}

// SetPrincipal stores user as the authenticated caller.
func SetPrincipal(c *fiber.Ctx, user *domain.User) {
	c.Locals(principalKey, user)
}
