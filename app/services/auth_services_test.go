package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/auth"
)

func TestAuthService_CreateAdminAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc := NewAuthService(repo.Users)

	admin, err := svc.CreateAdmin(ctx, "Root", " Admin@Example.com ", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "admin@example.com", admin.Email)

	token, user, err := svc.Login(ctx, "ADMIN@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, _, err = svc.Login(ctx, "admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_CreateAdminPromotesExisting(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := seedUser(t, repo)

	admin, err := NewAuthService(repo.Users).CreateAdmin(ctx, "", u.Email, "another-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, admin.ID)
	assert.True(t, admin.IsAdmin())

	_, err = NewAuthService(repo.Users).CreateAdmin(ctx, "", "x@example.com", "short")
	assert.Error(t, err)
}
