package settings

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wheredjsplay_backend/internal/model"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("getting sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.SiteSetting{}); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return NewService(db)
}

func TestAutomationDisabledByDefault(t *testing.T) {
	svc := newTestService(t)
	if svc.NewsletterAutomationEnabled() {
		t.Error("missing row must read as disabled")
	}
}

func TestSetUpserts(t *testing.T) {
	svc := newTestService(t)

	if err := svc.Set(KeyNewsletterAutomationEnabled, "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !svc.NewsletterAutomationEnabled() {
		t.Error("toggle should read true after Set")
	}

	if err := svc.Set(KeyNewsletterAutomationEnabled, "false"); err != nil {
		t.Fatalf("second Set: %v", err)
	}
	if svc.NewsletterAutomationEnabled() {
		t.Error("toggle should read false after update")
	}

	all, err := svc.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("setting rows = %d, want 1 (upsert, not insert)", len(all))
	}
}

func TestGetUnsetKey(t *testing.T) {
	svc := newTestService(t)
	if got := svc.Get(KeySiteName); got != "" {
		t.Errorf("Get on unset key = %q, want empty", got)
	}
}

func TestAllReturnsEveryKey(t *testing.T) {
	svc := newTestService(t)
	svc.Set(KeySiteName, "WhereDJsPlay")
	svc.Set(KeySiteTagline, "Electronic music news")

	all, err := svc.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if all[KeySiteName] != "WhereDJsPlay" || all[KeySiteTagline] != "Electronic music news" {
		t.Errorf("All = %v", all)
	}
}
