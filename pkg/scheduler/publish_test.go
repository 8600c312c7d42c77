package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wheredjsplay_backend/internal/model"
	"wheredjsplay_backend/pkg/email"
	"wheredjsplay_backend/pkg/newsletter"
	"wheredjsplay_backend/pkg/settings"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("getting sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Article{},
		&model.Subscriber{},
		&model.NewsletterCampaign{},
		&model.SiteSetting{},
	); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

type recordingSender struct {
	articleSent []string
}

func (r *recordingSender) SendNewsletterEmail(toEmail, toName, subject, content, unsubscribeURL string) error {
	return nil
}

func (r *recordingSender) SendArticleNotificationEmail(toEmail, toName string, data email.ArticleNotificationData, unsubscribeURL string) error {
	r.articleSent = append(r.articleSent, toEmail)
	return nil
}

// newTestScheduler wires a scheduler with newsletter automation enabled and
// the given sender behind it.
func newTestScheduler(t *testing.T, db *gorm.DB, sender email.Sender) *Scheduler {
	t.Helper()

	svc := settings.NewService(db)
	if err := svc.Set(settings.KeyNewsletterAutomationEnabled, "true"); err != nil {
		t.Fatalf("enabling automation: %v", err)
	}

	d := newsletter.NewDispatcher(db, sender, "https://wheredjsplay.com")
	d.BatchDelay = 0
	auto := newsletter.NewAutomation(db, svc, d, "https://api.wheredjsplay.com", "https://wheredjsplay.com")
	return NewScheduler(db, auto)
}

func createScheduledArticle(t *testing.T, db *gorm.DB, title string, publishAt time.Time) *model.Article {
	t.Helper()

	category := model.Category{Name: "Cat " + title}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seeding category: %v", err)
	}
	author := model.User{Name: "Writer", Email: title + "@example.com", Password: "x", Role: model.RoleAuthor}
	if err := db.Create(&author).Error; err != nil {
		t.Fatalf("seeding author: %v", err)
	}

	article := model.Article{
		Title:       title,
		Excerpt:     "An excerpt",
		Content:     "Body",
		CategoryID:  category.ID,
		AuthorID:    author.ID,
		Status:      model.ArticleStatusDraft,
		PublishDate: &publishAt,
	}
	if err := db.Create(&article).Error; err != nil {
		t.Fatalf("creating article: %v", err)
	}
	return &article
}

func seedSubscribers(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		sub := model.Subscriber{
			Email:  fmt.Sprintf("fan%d@example.com", i),
			Status: model.SubscriberStatusActive,
		}
		if err := db.Create(&sub).Error; err != nil {
			t.Fatalf("seeding subscriber: %v", err)
		}
	}
}

func TestTickPublishesDueArticle(t *testing.T) {
	db := newTestDB(t)
	sender := &recordingSender{}
	s := newTestScheduler(t, db, sender)
	seedSubscribers(t, db, 3)

	article := createScheduledArticle(t, db, "Due Story", time.Now().Add(-time.Minute))

	s.Tick()

	var updated model.Article
	if err := db.First(&updated, article.ID).Error; err != nil {
		t.Fatalf("loading article: %v", err)
	}
	if updated.Status != model.ArticleStatusPublished {
		t.Errorf("status = %q, want published", updated.Status)
	}

	if len(sender.articleSent) != 3 {
		t.Errorf("notification emails = %d, want 3", len(sender.articleSent))
	}

	var campaigns int64
	db.Model(&model.NewsletterCampaign{}).
		Where("campaign_type = ? AND article_id = ?", model.CampaignTypeAutomated, article.ID).
		Count(&campaigns)
	if campaigns != 1 {
		t.Errorf("automated campaigns = %d, want 1", campaigns)
	}

	var subs []model.Subscriber
	db.Find(&subs)
	for _, sub := range subs {
		if sub.EmailCount != 1 {
			t.Errorf("subscriber %s email_count = %d, want 1", sub.Email, sub.EmailCount)
		}
	}
}

func TestTickIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	sender := &recordingSender{}
	s := newTestScheduler(t, db, sender)
	seedSubscribers(t, db, 2)

	article := createScheduledArticle(t, db, "Once Only", time.Now().Add(-time.Minute))

	s.Tick()
	s.Tick()
	s.Tick()

	var campaigns int64
	db.Model(&model.NewsletterCampaign{}).
		Where("campaign_type = ? AND article_id = ?", model.CampaignTypeAutomated, article.ID).
		Count(&campaigns)
	if campaigns != 1 {
		t.Errorf("automated campaigns after repeated ticks = %d, want 1", campaigns)
	}
	if len(sender.articleSent) != 2 {
		t.Errorf("notification emails = %d, want 2", len(sender.articleSent))
	}
}

func TestTickLeavesFutureArticlesAlone(t *testing.T) {
	db := newTestDB(t)
	s := newTestScheduler(t, db, &recordingSender{})

	article := createScheduledArticle(t, db, "Tomorrow Story", time.Now().Add(24*time.Hour))

	s.Tick()

	var updated model.Article
	if err := db.First(&updated, article.ID).Error; err != nil {
		t.Fatalf("loading article: %v", err)
	}
	if updated.Status != model.ArticleStatusDraft {
		t.Errorf("status = %q, want draft", updated.Status)
	}
	if !updated.IsScheduled() {
		t.Error("article should still report as scheduled")
	}
}

func TestTickPublishesEvenWithoutSubscribers(t *testing.T) {
	db := newTestDB(t)
	s := newTestScheduler(t, db, &recordingSender{})

	article := createScheduledArticle(t, db, "Quiet Launch", time.Now().Add(-time.Minute))

	s.Tick()

	var updated model.Article
	if err := db.First(&updated, article.ID).Error; err != nil {
		t.Fatalf("loading article: %v", err)
	}
	if updated.Status != model.ArticleStatusPublished {
		t.Errorf("status = %q, want published even when the broadcast is empty", updated.Status)
	}

	var campaigns int64
	db.Model(&model.NewsletterCampaign{}).Count(&campaigns)
	if campaigns != 0 {
		t.Errorf("campaign rows = %d, want 0", campaigns)
	}
}

func TestTickSkipsUnscheduledDrafts(t *testing.T) {
	db := newTestDB(t)
	s := newTestScheduler(t, db, &recordingSender{})

	category := model.Category{Name: "Drafts"}
	db.Create(&category)
	author := model.User{Name: "Writer", Email: "drafts@example.com", Password: "x", Role: model.RoleAuthor}
	db.Create(&author)

	article := model.Article{
		Title:      "Plain Draft",
		Excerpt:    "e",
		Content:    "c",
		CategoryID: category.ID,
		AuthorID:   author.ID,
		Status:     model.ArticleStatusDraft,
	}
	if err := db.Create(&article).Error; err != nil {
		t.Fatalf("creating draft: %v", err)
	}

	s.Tick()

	var updated model.Article
	db.First(&updated, article.ID)
	if updated.Status != model.ArticleStatusDraft {
		t.Errorf("status = %q, a draft without publish_date must stay draft", updated.Status)
	}
}
