package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/persistence"
)

const principalKeyPrefix = "principal:"

// PrincipalCache keeps recently resolved users so role checks avoid a database round trip.
type PrincipalCache interface {
	Get(ctx context.Context, userID string) (*domain.User, bool)
	Set(ctx context.Context, user *domain.User)
	Invalidate(ctx context.Context, userIDs ...string) error
}

type cachedPrincipal struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	IsManager bool     `json:"is_manager"`
	TeamIDs   []string `json:"team_ids"`
	Active    bool     `json:"active"`
}

type redisPrincipalCache struct {
	redis  *persistence.Redis
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisPrincipalCache returns a cache backed by Redis. A zero ttl yields a cache that never stores.
func NewRedisPrincipalCache(redis *persistence.Redis, ttl time.Duration, logger *zap.Logger) PrincipalCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisPrincipalCache{redis: redis, ttl: ttl, logger: logger}
}

func (c *redisPrincipalCache) Get(ctx context.Context, userID string) (*domain.User, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	var cached cachedPrincipal
	found, err := c.redis.GetJSON(ctx, principalKeyPrefix+userID, &cached)
	if err != nil {
		c.logger.Warn("principal cache read failed", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &domain.User{
		ID:        cached.ID,
		Name:      cached.Name,
		Email:     cached.Email,
		IsManager: cached.IsManager,
		TeamIDs:   cached.TeamIDs,
		Active:    cached.Active,
	}, true
}

func (c *redisPrincipalCache) Set(ctx context.Context, user *domain.User) {
	if c.ttl <= 0 || user == nil {
		return
	}
	cached := cachedPrincipal{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		IsManager: user.IsManager,
		TeamIDs:   user.TeamIDs,
		Active:    user.Active,
	}
	if err := c.redis.SetJSON(ctx, principalKeyPrefix+user.ID, cached, c.ttl); err != nil {
		c.logger.Warn("principal cache write failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (c *redisPrincipalCache) Invalidate(ctx context.Context, userIDs ...string) error {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, principalKeyPrefix+id)
	}
	return c.redis.Delete(ctx, keys...)
}
