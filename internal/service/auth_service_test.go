package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/maintenance-service/internal/config"
)

func newAuthService(users *fakeUsers, cache *fakeCache) *AuthService {
	return NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret-key",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            bcrypt.MinCost,
		ManagerEmails:         []string{"Boss@Example.com"},
	}, AuthDependencies{UserRepo: users, PrincipalCache: cache})
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users, &fakeCache{})
	ctx := context.Background()

	session, err := svc.Register(ctx, "Morgan", " boss@example.com ", "hunter22")
	require.NoError(t, err)
	assert.True(t, session.User.IsManager)
	assert.NotEmpty(t, session.Token)

	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	plain, err := svc.Register(ctx, "Riley", "riley@example.com", "hunter22")
	require.NoError(t, err)
	assert.False(t, plain.User.IsManager)

	_, err = svc.Register(ctx, "Again", "riley@example.com", "hunter22")
	requireCode(t, err, "CONFLICT")

	_, err = svc.Login(ctx, "riley@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "riley@example.com", "wrong")
	requireCode(t, err, "UNAUTHORIZED")

	_, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	requireCode(t, err, "UNAUTHORIZED")

	plain.User.Active = false
	_, err = svc.Login(ctx, "riley@example.com", "hunter22")
	requireCode(t, err, "UNAUTHORIZED")
}

func TestAuthService_ChangePassword(t *testing.T) {
	users := newFakeUsers()
	cache := &fakeCache{}
	svc := newAuthService(users, cache)
	ctx := context.Background()

	session, err := svc.Register(ctx, "Taylor", "taylor@example.com", "old-password")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, session.User.ID, "bad", "new-password")
	requireCode(t, err, "UNAUTHORIZED")

	require.NoError(t, svc.ChangePassword(ctx, session.User.ID, "old-password", "new-password"))
	assert.Equal(t, []string{session.User.ID}, cache.invalidated)

	_, err = svc.Login(ctx, "taylor@example.com", "new-password")
	require.NoError(t, err)
}
