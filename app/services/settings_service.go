package services

import (
	"context"
	"strings"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/crypt"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// SettingsInput is an admin edit. Nil fields are left alone; an empty
// secret string clears the override.
type SettingsInput struct {
	StripeSecretKey     *string `json:"stripe_secret_key"`
	StripeWebhookSecret *string `json:"stripe_webhook_secret"`
	UpcitemdbUserKey    *string `json:"upcitemdb_user_key"`
	OpenAIAPIKey        *string `json:"openai_api_key"`
	AIEnabled           *bool   `json:"ai_enabled"`
	AIDailyLimit        *int    `json:"ai_daily_limit"      validate:"nullable,gte=0"`
	AIPerUserDailyLimit *int    `json:"ai_per_user_daily_limit" validate:"nullable,gte=0"`
	MaintenanceMode     *bool   `json:"maintenance_mode"`
	MaintenanceMessage  *string `json:"maintenance_message" validate:"nullable,max=500"`
}

// SettingsView is what the admin sees. Secrets are reported as set or not,
// never echoed.
type SettingsView struct {
	StripeSecretKeySet     bool   `json:"stripe_secret_key_set"`
	StripeWebhookSecretSet bool   `json:"stripe_webhook_secret_set"`
	UpcitemdbUserKeySet    bool   `json:"upcitemdb_user_key_set"`
	OpenAIAPIKeySet        bool   `json:"openai_api_key_set"`
	AIEnabled              bool   `json:"ai_enabled"`
	AIDailyLimit           int    `json:"ai_daily_limit"`
	AIPerUserDailyLimit    int    `json:"ai_per_user_daily_limit"`
	MaintenanceMode        bool   `json:"maintenance_mode"`
	MaintenanceMessage     string `json:"maintenance_message"`
}

type SettingsService struct {
	repo     *repositories.SettingsRepository
	resolver *SiteSecretsResolver
}

func NewSettingsService(repo *repositories.SettingsRepository, resolver *SiteSecretsResolver) *SettingsService {
	return &SettingsService{repo: repo, resolver: resolver}
}

// View reports the effective settings after resolution.
func (s *SettingsService) View(ctx context.Context) SettingsView {
	maintenance, msg := s.resolver.MaintenanceMode(ctx)
	return SettingsView{
		StripeSecretKeySet:     s.resolver.Resolve(ctx, SecretStripeKey) != "",
		StripeWebhookSecretSet: s.resolver.Resolve(ctx, SecretStripeWebhook) != "",
		UpcitemdbUserKeySet:    s.resolver.Resolve(ctx, SecretUpcitemdbKey) != "",
		OpenAIAPIKeySet:        s.resolver.Resolve(ctx, SecretOpenAIKey) != "",
		AIEnabled:              s.resolver.AIEnabled(ctx),
		AIDailyLimit:           s.resolver.AIDailyLimit(ctx),
		AIPerUserDailyLimit:    s.resolver.AIPerUserDailyLimit(ctx),
		MaintenanceMode:        maintenance,
		MaintenanceMessage:     msg,
	}
}

// Update writes the settings row and evicts the resolver cache.
func (s *SettingsService) Update(ctx context.Context, in SettingsInput) (SettingsView, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return SettingsView{}, err
	}
	if row == nil {
		row = &models.SiteSettings{}
	}

	for _, f := range []struct {
		in  *string
		dst *string
	}{
		{in.StripeSecretKey, &row.StripeSecretKey},
		{in.StripeWebhookSecret, &row.StripeWebhookSecret},
		{in.UpcitemdbUserKey, &row.UpcitemdbUserKey},
		{in.OpenAIAPIKey, &row.OpenAIAPIKey},
	} {
		if f.in == nil {
			continue
		}
		enc, err := crypt.Encrypt(strings.TrimSpace(*f.in))
		if err != nil {
			return SettingsView{}, err
		}
		*f.dst = enc
	}

	if in.AIEnabled != nil {
		row.AIEnabled = in.AIEnabled
	}
	if in.AIDailyLimit != nil {
		row.AIDailyLimit = in.AIDailyLimit
	}
	if in.AIPerUserDailyLimit != nil {
		row.AIPerUserDailyLimit = in.AIPerUserDailyLimit
	}
	if in.MaintenanceMode != nil {
		row.MaintenanceMode = *in.MaintenanceMode
	}
	if in.MaintenanceMessage != nil {
		row.MaintenanceMessage = strings.TrimSpace(*in.MaintenanceMessage)
	}

	if err := s.repo.Save(ctx, row); err != nil {
		return SettingsView{}, err
	}
	s.resolver.Forget()

	logger.WithCtx(ctx).Info("settings: updated", "maintenance", row.MaintenanceMode)
	return s.View(ctx), nil
}
