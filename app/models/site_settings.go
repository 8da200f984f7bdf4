package models

import "gorm.io/gorm"

// SiteSettingsID is the primary key of the single settings row.
const SiteSettingsID = 1

// SiteSettings holds per-install overrides edited from the admin. Secret
// columns are stored encrypted (pkg/crypt); an empty column means "not
// overridden" and resolution falls through to the environment.
type SiteSettings struct {
	gorm.Model
	StripeSecretKey     string `gorm:"type:text" json:"-"`
	StripeWebhookSecret string `gorm:"type:text" json:"-"`
	UpcitemdbUserKey    string `gorm:"type:text" json:"-"`
	OpenAIAPIKey        string `gorm:"type:text" json:"-"`

	AIEnabled           *bool `json:"ai_enabled,omitempty"`
	AIDailyLimit        *int  `json:"ai_daily_limit,omitempty"`
	AIPerUserDailyLimit *int  `json:"ai_per_user_daily_limit,omitempty"`

	MaintenanceMode    bool   `gorm:"not null;default:false" json:"maintenance_mode"`
	MaintenanceMessage string `gorm:"size:500"               json:"maintenance_message"`
}
