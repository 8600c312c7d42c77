package model

import "time"

// SiteSetting is one key-value row of runtime configuration. Typed access
// goes through pkg/settings; nothing else should read these rows directly.
type SiteSetting struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SettingKey   string    `json:"setting_key" gorm:"uniqueIndex;not null"`
	SettingValue string    `json:"setting_value"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (SiteSetting) TableName() string {
	return "site_settings"
}
