package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/crypt"
)

func newTestResolver(t *testing.T, env map[string]string) (*SiteSecretsResolver, *models.SiteSettings, func()) {
	t.Helper()
	repo := newTestRepo(t)
	r := NewSiteSecretsResolver(repo.Settings)
	r.env = func(key string) string { return env[key] }

	row := &models.SiteSettings{}
	save := func() {
		require.NoError(t, repo.Settings.Save(context.Background(), row))
		r.Forget()
	}
	return r, row, save
}

func encrypted(t *testing.T, plain string) string {
	t.Helper()
	enc, err := crypt.Encrypt(plain)
	require.NoError(t, err)
	return enc
}

func TestResolve_Precedence(t *testing.T) {
	ctx := context.Background()
	r, row, save := newTestResolver(t, map[string]string{SecretStripeKey: "sk_env"})

	assert.Equal(t, "sk_env", r.Resolve(ctx, SecretStripeKey))
	assert.Equal(t, "", r.Resolve(ctx, SecretUpcitemdbKey))
	assert.Equal(t, "200", r.Resolve(ctx, "AI_DAILY_LIMIT"))

	row.StripeSecretKey = encrypted(t, "sk_db")
	save()
	assert.Equal(t, "sk_db", r.Resolve(ctx, SecretStripeKey))
}

func TestResolve_BlankAndBrokenOverridesFallThrough(t *testing.T) {
	ctx := context.Background()
	r, row, save := newTestResolver(t, map[string]string{SecretStripeKey: "sk_env", SecretStripeWebhook: "whsec_env"})

	row.StripeSecretKey = encrypted(t, "   ")
	row.StripeWebhookSecret = "not-ciphertext"
	save()

	assert.Equal(t, "sk_env", r.Resolve(ctx, SecretStripeKey))
	assert.Equal(t, "whsec_env", r.Resolve(ctx, SecretStripeWebhook))
}

func TestResolve_CachedUntilForget(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	r := NewSiteSecretsResolver(repo.Settings)
	r.env = func(string) string { return "" }

	assert.Equal(t, "", r.Resolve(ctx, SecretUpcitemdbKey))

	require.NoError(t, repo.Settings.Save(ctx, &models.SiteSettings{UpcitemdbUserKey: encrypted(t, "upc-key")}))
	assert.Equal(t, "", r.Resolve(ctx, SecretUpcitemdbKey), "served from cache")

	r.Forget()
	assert.Equal(t, "upc-key", r.Resolve(ctx, SecretUpcitemdbKey))
}

func TestAIKnobs(t *testing.T) {
	ctx := context.Background()
	r, row, save := newTestResolver(t, map[string]string{"AI_ENABLED": "true", "AI_DAILY_LIMIT": "50"})

	assert.False(t, r.AIEnabled(ctx), "no key means unavailable")
	assert.Equal(t, 50, r.AIDailyLimit(ctx))
	assert.Equal(t, defaultAIPerUserLimit, r.AIPerUserDailyLimit(ctx))

	off, zero, perUser := false, 0, 7
	row.OpenAIAPIKey = encrypted(t, "sk-openai")
	row.AIDailyLimit = &zero
	row.AIPerUserDailyLimit = &perUser
	save()

	assert.True(t, r.AIEnabled(ctx))
	assert.Equal(t, 50, r.AIDailyLimit(ctx), "non-positive override falls back")
	assert.Equal(t, 7, r.AIPerUserDailyLimit(ctx))

	row.AIEnabled = &off
	save()
	assert.False(t, r.AIEnabled(ctx))
}

func TestMaintenanceMode(t *testing.T) {
	ctx := context.Background()
	r, row, save := newTestResolver(t, nil)

	on, _ := r.MaintenanceMode(ctx)
	assert.False(t, on)

	row.MaintenanceMode = true
	row.MaintenanceMessage = "Back soon"
	save()

	on, msg := r.MaintenanceMode(ctx)
	assert.True(t, on)
	assert.Equal(t, "Back soon", msg)
}

func TestSettingsService_UpdateEncryptsAndHides(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	r := NewSiteSecretsResolver(repo.Settings)
	r.env = func(string) string { return "" }
	svc := NewSettingsService(repo.Settings, r)

	key := "sk_live_123"
	view, err := svc.Update(ctx, SettingsInput{StripeSecretKey: &key})
	require.NoError(t, err)
	assert.True(t, view.StripeSecretKeySet)
	assert.False(t, view.StripeWebhookSecretSet)

	row, err := repo.Settings.Get(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, key, row.StripeSecretKey)
	assert.Equal(t, key, r.Resolve(ctx, SecretStripeKey))

	empty := ""
	view, err = svc.Update(ctx, SettingsInput{StripeSecretKey: &empty})
	require.NoError(t, err)
	assert.False(t, view.StripeSecretKeySet)
}
