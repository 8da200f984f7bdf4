package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/crypt"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const (
	SecretStripeKey       = "STRIPE_SECRET_KEY"
	SecretStripeWebhook   = "STRIPE_WEBHOOK_SECRET"
	SecretUpcitemdbKey    = "UPCITEMDB_USER_KEY"
	SecretOpenAIKey       = "OPENAI_API_KEY"
	settingsCacheKey      = "site_settings:v1"
	settingsCacheTTL      = 5 * time.Minute
	defaultAIDailyLimit   = 200
	defaultAIPerUserLimit = 20
)

// compiledDefaults is the last resolution layer. Secrets have none.
var compiledDefaults = map[string]string{
	"AI_ENABLED":              "false",
	"AI_DAILY_LIMIT":          strconv.Itoa(defaultAIDailyLimit),
	"AI_PER_USER_DAILY_LIMIT": strconv.Itoa(defaultAIPerUserLimit),
}

// settingsSnapshot is what gets cached. Secret columns stay encrypted.
type settingsSnapshot struct {
	Exists              bool   `json:"exists"`
	StripeSecretKey     string `json:"stripe_secret_key"`
	StripeWebhookSecret string `json:"stripe_webhook_secret"`
	UpcitemdbUserKey    string `json:"upcitemdb_user_key"`
	OpenAIAPIKey        string `json:"openai_api_key"`
	AIEnabled           *bool  `json:"ai_enabled"`
	AIDailyLimit        *int   `json:"ai_daily_limit"`
	AIPerUserDailyLimit *int   `json:"ai_per_user_daily_limit"`
	MaintenanceMode     bool   `json:"maintenance_mode"`
	MaintenanceMessage  string `json:"maintenance_message"`
}

// SiteSecretsResolver resolves secrets and feature knobs with the
// precedence DB override > environment/config > compiled default.
type SiteSecretsResolver struct {
	settings *repositories.SettingsRepository
	env      func(key string) string
}

func NewSiteSecretsResolver(settings *repositories.SettingsRepository) *SiteSecretsResolver {
	return &SiteSecretsResolver{
		settings: settings,
		env:      func(key string) string { return config.Get(key, "") },
	}
}

// Resolve returns the effective value of key, or "" when no layer sets it.
func (r *SiteSecretsResolver) Resolve(ctx context.Context, key string) string {
	if v := r.override(ctx, key); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.env(key)); v != "" {
		return v
	}
	return compiledDefaults[key]
}

// AIEnabled is false whenever no AI key resolves: the feature is simply
// unavailable.
func (r *SiteSecretsResolver) AIEnabled(ctx context.Context) bool {
	if r.Resolve(ctx, SecretOpenAIKey) == "" {
		return false
	}
	if snap := r.snapshot(ctx); snap.AIEnabled != nil {
		return *snap.AIEnabled
	}
	b, err := strconv.ParseBool(r.Resolve(ctx, "AI_ENABLED"))
	return err == nil && b
}

func (r *SiteSecretsResolver) AIDailyLimit(ctx context.Context) int {
	return r.limit(ctx, r.snapshot(ctx).AIDailyLimit, "AI_DAILY_LIMIT", defaultAIDailyLimit)
}

func (r *SiteSecretsResolver) AIPerUserDailyLimit(ctx context.Context) int {
	return r.limit(ctx, r.snapshot(ctx).AIPerUserDailyLimit, "AI_PER_USER_DAILY_LIMIT", defaultAIPerUserLimit)
}

func (r *SiteSecretsResolver) limit(ctx context.Context, override *int, key string, fallback int) int {
	if override != nil && *override > 0 {
		return *override
	}
	if n, err := strconv.Atoi(strings.TrimSpace(r.env(key))); err == nil && n > 0 {
		return n
	}
	return fallback
}

// MaintenanceMode reports the DB flag, or MAINTENANCE_MODE from config.
func (r *SiteSecretsResolver) MaintenanceMode(ctx context.Context) (bool, string) {
	snap := r.snapshot(ctx)
	if snap.MaintenanceMode {
		return true, snap.MaintenanceMessage
	}
	return config.GetBool("MAINTENANCE_MODE", false), config.Get("MAINTENANCE_MESSAGE", "")
}

// Forget drops the cached settings row.
func (r *SiteSecretsResolver) Forget() {
	_ = cache.Forget(settingsCacheKey)
}

func (r *SiteSecretsResolver) override(ctx context.Context, key string) string {
	snap := r.snapshot(ctx)
	var enc string
	switch key {
	case SecretStripeKey:
		enc = snap.StripeSecretKey
	case SecretStripeWebhook:
		enc = snap.StripeWebhookSecret
	case SecretUpcitemdbKey:
		enc = snap.UpcitemdbUserKey
	case SecretOpenAIKey:
		enc = snap.OpenAIAPIKey
	default:
		return ""
	}
	if enc == "" {
		return ""
	}

	plain, err := crypt.Decrypt(enc)
	if err != nil {
		logger.WithCtx(ctx).Warn("secrets: undecryptable override ignored", "key", key, "error", err)
		return ""
	}
	return strings.TrimSpace(plain)
}

func (r *SiteSecretsResolver) snapshot(ctx context.Context) settingsSnapshot {
	var snap settingsSnapshot
	if cache.GetCtx(ctx, settingsCacheKey, &snap) {
		return snap
	}
	if r.settings == nil {
		return snap
	}

	row, err := r.settings.Get(ctx)
	if err != nil {
		// Do not cache: the next call retries the database.
		logger.WithCtx(ctx).Error("secrets: load settings", "error", err)
		return snap
	}
	if row != nil {
		snap = snapshotOf(row)
	}
	_ = cache.SetCtx(ctx, settingsCacheKey, snap, settingsCacheTTL)
	return snap
}

func snapshotOf(s *models.SiteSettings) settingsSnapshot {
	return settingsSnapshot{
		Exists:              true,
		StripeSecretKey:     s.StripeSecretKey,
		StripeWebhookSecret: s.StripeWebhookSecret,
		UpcitemdbUserKey:    s.UpcitemdbUserKey,
		OpenAIAPIKey:        s.OpenAIAPIKey,
		AIEnabled:           s.AIEnabled,
		AIDailyLimit:        s.AIDailyLimit,
		AIPerUserDailyLimit: s.AIPerUserDailyLimit,
		MaintenanceMode:     s.MaintenanceMode,
		MaintenanceMessage:  s.MaintenanceMessage,
	}
}
