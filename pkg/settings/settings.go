// Package settings provides typed access to the site_settings table.
// Runtime toggles live in the database so admins can flip them without a
// deploy; the recognized keys are enumerated here instead of being looked
// up stringly all over the codebase.
package settings

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wheredjsplay_backend/internal/model"
)

// Recognized setting keys.
const (
	KeyNewsletterAutomationEnabled = "newsletter_automation_enabled"
	KeySiteName                    = "site_name"
	KeySiteTagline                 = "site_tagline"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// NewsletterAutomationEnabled reads the automation toggle. A missing row
// means disabled.
func (s *Service) NewsletterAutomationEnabled() bool {
	return s.getBool(KeyNewsletterAutomationEnabled, false)
}

func (s *Service) getBool(key string, fallback bool) bool {
	var row model.SiteSetting
	err := s.db.Where("setting_key = ?", key).First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fallback
		}
		return fallback
	}
	return row.SettingValue == "true"
}

// Get returns the raw value for a key, empty string when unset.
func (s *Service) Get(key string) string {
	var row model.SiteSetting
	if err := s.db.Where("setting_key = ?", key).First(&row).Error; err != nil {
		return ""
	}
	return row.SettingValue
}

// Set upserts a single key.
func (s *Service) Set(key, value string) error {
	row := model.SiteSetting{
		SettingKey:   key,
		SettingValue: value,
		UpdatedAt:    time.Now(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at"}),
	}).Create(&row).Error
}

// All returns every setting as a key-value map, the shape the public
// settings endpoint serves.
func (s *Service) All() (map[string]string, error) {
	var rows []model.SiteSetting
	if err := s.db.Order("setting_key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.SettingKey] = row.SettingValue
	}
	return out, nil
}
